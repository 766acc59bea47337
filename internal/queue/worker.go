package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postloop/internal/state"
)

type Worker struct {
	st *state.Store
	mr state.Mirror
}

func NewWorker(st *state.Store, mr state.Mirror) *Worker {
	return &Worker{st: st, mr: mr}
}

// HandleStateSyncTask aggregates the current local artifacts for the prefix
// and pushes them to the mirror. The local files are read at handling time,
// not enqueue time, so a burst of writes collapses into the latest state.
func (w *Worker) HandleStateSyncTask(ctx context.Context, task *asynq.Task) error {
	var payload StateSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	snapshot := w.st.Snapshot(payload.Prefix)
	return w.mr.Put(ctx, payload.Prefix, snapshot)
}
