package main

import (
	"log"
	"os"

	"go.temporal.io/sdk/worker"

	"temporal-worker-onboarding/bootstrap"
	"temporal-worker-onboarding/config"
	"temporal-worker-onboarding/logger"
	"temporal-worker-onboarding/shared"
	"temporal-worker-onboarding/workflows"
)

func main() {
	cfg, err := config.Load(os.Getenv("ONBOARDING_CONFIG"))
	if err != nil {
		log.Fatalf("Unable to load configuration: %v", err)
	}
	logr := logger.New(cfg.LogLevel)

	c, err := bootstrap.Dial(cfg, logr)
	if err != nil {
		log.Fatalf("Unable to create Temporal client: %v", err)
	}
	defer c.Close()

	// Workflow tasks do no I/O; the defaults are enough.
	w := worker.New(c, shared.OnboardingWorkflowTaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.OnboardingWorkflow)
	w.RegisterWorkflow(workflows.IdentityVerificationWorkflow)

	logr.Info("Starting onboarding workflow worker...")
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("Unable to start worker: %v", err)
	}
}
