package main

import (
	"net/http"

	"cofre/internal/middleware"
)

// SetupRoutes configures the HTTP surface and returns the final handler
// with middleware applied.
func SetupRoutes(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", handleHealth)
	mux.Handle("/webhooks/pluggy", deps.WebhookHandler)

	return middleware.Logging(mux)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
