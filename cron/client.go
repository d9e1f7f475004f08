package cron

import (
	"fmt"
	"time"

	"asignaciones/config"
	"asignaciones/services/tasks"

	"github.com/hibiken/asynq"
)

var taskClient *asynq.Client

// GetTaskClient returns the shared asynq client for enqueueing tasks.
func GetTaskClient() *asynq.Client {
	if taskClient == nil {
		taskClient = asynq.NewClient(asynq.RedisClientOpt{
			Addr:     config.AppConfig.RedisAddr,
			Password: config.AppConfig.RedisPassword,
			DB:       config.AppConfig.RedisQueueDB,
		})
	}
	return taskClient
}

// EnqueueCallPoll schedules outcome polling for one placed call.
func EnqueueCallPoll(payload tasks.CallPollPayload) error {
	task, opts, err := tasks.NewCallPollTask(payload)
	if err != nil {
		return fmt.Errorf("failed to build call poll task: %w", err)
	}
	if _, err := GetTaskClient().Enqueue(task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue call poll task: %w", err)
	}
	return nil
}

// EnqueueSyncIn schedules a resolver batch after the given delay.
func EnqueueSyncIn(delay time.Duration) error {
	task, opts := tasks.NewSyncTask(delay)
	if _, err := GetTaskClient().Enqueue(task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue sync task: %w", err)
	}
	return nil
}
