package main

import (
	"log"

	"cofre/internal/config"
	"cofre/internal/jobs"
	"cofre/internal/pluggy"
	"cofre/internal/postgres"
	syncsvc "cofre/internal/sync"
	"cofre/internal/webhook"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	ItemRepo        *postgres.ItemRepository
	AccountRepo     *postgres.AccountRepository
	TransactionRepo *postgres.TransactionRepository
	BalanceRepo     *postgres.BalanceRepository

	PluggyClient *pluggy.Client
	Syncer       *syncsvc.Syncer
	Pool         *jobs.Pool

	WebhookHandler *webhook.Handler
}

// NewDependencies initializes all application dependencies.
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	itemRepo := postgres.NewItemRepository(db)
	accountRepo := postgres.NewAccountRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	balanceRepo := postgres.NewBalanceRepository(db)

	client := pluggy.NewClient(&cfg.Pluggy)
	syncer := syncsvc.NewSyncer(client, itemRepo, accountRepo, transactionRepo, balanceRepo)

	pool := jobs.NewPool(cfg.Scheduler.WorkerCount, cfg.Scheduler.QueueSize, cfg.Scheduler.JobTimeout)

	processor := webhook.NewProcessor(itemRepo, itemRepo, client, syncer, transactionRepo)
	webhookHandler := webhook.NewHandler(processor, pool)

	return &Dependencies{
		DB:              db,
		ItemRepo:        itemRepo,
		AccountRepo:     accountRepo,
		TransactionRepo: transactionRepo,
		BalanceRepo:     balanceRepo,
		PluggyClient:    client,
		Syncer:          syncer,
		Pool:            pool,
		WebhookHandler:  webhookHandler,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
