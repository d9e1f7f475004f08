package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"asignaciones/config"
	"asignaciones/services/sync"
	"asignaciones/services/tasks"
	"asignaciones/services/tracker"

	"github.com/hibiken/asynq"
)

// InitWorker runs the async worker in background. It consumes the per-call
// outcome polling tasks and the self-rescheduling resolver batches.
func InitWorker(trackerSvc tracker.TrackerService, syncSvc sync.SyncService) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeCallPoll, handleCallPollTask(trackerSvc))
	mux.HandleFunc(tasks.TypeSyncRun, handleSyncTask(syncSvc))

	// Start async worker with retry logic
	go func() {
		log.Println("[Worker] 🚀 Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[Worker] ❌ Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[Worker] ❗ Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleCallPollTask(trackerSvc tracker.TrackerService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.CallPollPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[CallPollHandler] 🔴 Invalid payload: %v", err)
			return err
		}

		outcome, err := trackerSvc.PollOutcome(ctx, p.AppointmentID, p.CallIndex, p.CallSID)
		if err != nil {
			log.Printf("[CallPollHandler] ❌ Polling failed for call %s: %v", p.CallSID, err)
			return err
		}
		log.Printf("[CallPollHandler] ☎️ Call %s resolved to %s", p.CallSID, outcome)
		return nil
	}
}

func handleSyncTask(syncSvc sync.SyncService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		result, err := syncSvc.Resolve(ctx)
		if err != nil {
			log.Printf("[SyncHandler] ❌ Resolver batch failed: %v", err)
		} else {
			log.Printf("[SyncHandler] ⏰ Batch done: %d appointments, %d patients",
				result.AppointmentsProcessed, result.PatientsProcessed)
		}

		// Keep the schedule alive regardless of this run's result.
		interval := time.Duration(config.AppConfig.SyncIntervalMinutes) * time.Minute
		if interval > 0 {
			if qerr := EnqueueSyncIn(interval); qerr != nil {
				log.Printf("[SyncHandler] ⚠️ Failed to schedule next batch: %v", qerr)
			}
		}
		return err
	}
}
