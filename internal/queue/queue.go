package queue

import (
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
)

const TaskTypeStateSync = "state:sync"

type StateSyncPayload struct {
	Prefix string `json:"prefix"`
}

// Pusher enqueues mirror pushes through asynq so failed pushes land in the
// queue's retry/archive machinery instead of vanishing with a goroutine.
type Pusher struct {
	client *asynq.Client
}

func NewPusher(client *asynq.Client) *Pusher {
	return &Pusher{client: client}
}

func (p *Pusher) EnqueueSync(prefix string) error {
	taskPayload, err := json.Marshal(StateSyncPayload{Prefix: prefix})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeStateSync, taskPayload)

	_, err = p.client.Enqueue(task, asynq.MaxRetry(3))
	if err != nil {
		return err
	}

	log.Printf("State sync scheduled: %s", prefix)
	return nil
}
