package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"cofre/internal/jobs"
)

// Submitter enqueues background work. Satisfied by *jobs.Pool.
type Submitter interface {
	Submit(job jobs.Job) error
}

// Handler acknowledges inbound deliveries and hands the real work to the
// pool. The sender only ever sees the fixed acknowledgment; processing
// outcomes stay internal.
type Handler struct {
	processor *Processor
	pool      Submitter
}

func NewHandler(processor *Processor, pool Submitter) *Handler {
	return &Handler{processor: processor, pool: pool}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Webhook: failed to read delivery body: %v", err)
		h.acknowledge(w)
		return
	}

	ev, err := ParseEvent(body)
	if err != nil {
		log.Printf("Webhook: dropping delivery: %v", err)
		h.acknowledge(w)
		return
	}

	if err := h.pool.Submit(&processEventJob{processor: h.processor, event: ev}); err != nil {
		log.Printf("Webhook: could not enqueue %s for item %s: %v", ev.Name, ev.ItemID, err)
	}

	h.acknowledge(w)
}

func (h *Handler) acknowledge(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "received"})
}

type processEventJob struct {
	processor *Processor
	event     *Event
}

func (j *processEventJob) Execute(ctx context.Context) error {
	return j.processor.Process(ctx, j.event)
}

func (j *processEventJob) Key() string { return j.event.ItemID }

func (j *processEventJob) Description() string { return "webhook " + j.event.Name }
