package main

import (
	"context"
	"log"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"backoffice/internal/config"
	"backoffice/internal/database"
	"backoffice/internal/logger"
	"backoffice/internal/repository"
	"backoffice/internal/service"
	"backoffice/internal/workflow"
)

// The scan worker executes background duplicate scans started through
// POST /api/allocation-requests/scan-jobs.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config failed: %v", err)
	}
	zlog, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Logger failed: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if !cfg.Temporal.Enabled() {
		zlog.Fatal("TEMPORAL_HOST is required for the scan worker")
	}

	db, err := database.NewConnection(cfg.DB, zlog)
	if err != nil {
		zlog.Fatal("postgres connection failed", zap.Error(err))
	}
	mongoClient, mongoDB, err := database.NewMongo(context.Background(), cfg.Mongo)
	if err != nil {
		zlog.Fatal("mongodb connection failed", zap.Error(err))
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	// Scans only read requests and write audit rows; no evidence or notifications.
	allocationService := service.NewAllocationService(service.AllocationDeps{
		Requests:  repository.NewAllocationRepository(db),
		Audit:     repository.NewAuditRepository(db),
		TxManager: repository.NewTransactionManager(db),
		Resolver:  repository.NewTransactionResolver(mongoDB),
		Policies:  repository.NewPolicyRepository(mongoDB),
		Logger:    zlog.Named("allocation"),
	}, service.Options{ValidatePolicy: cfg.ValidatePolicy})

	tc, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.Host,
		Namespace: cfg.Temporal.Namespace,
		Logger:    logger.Temporal(zlog.Named("temporal")),
	})
	if err != nil {
		zlog.Fatal("temporal connection failed", zap.Error(err))
	}
	defer tc.Close()

	w := worker.New(tc, workflow.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflow.ScanAllocationRequests)
	w.RegisterActivity(&workflow.Activities{Store: allocationService})

	zlog.Info("scan worker started", zap.String("task_queue", workflow.TaskQueue))
	if err := w.Run(worker.InterruptCh()); err != nil {
		zlog.Fatal("scan worker stopped", zap.Error(err))
	}
}
