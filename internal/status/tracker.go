package status

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/maheshrc27/postloop/internal/models"
)

// Tracker persists the single current publish status per state prefix.
// Every write overwrites the previous value; this is not a run log.
type Tracker struct {
	dir string
}

func NewTracker(dir string) *Tracker {
	return &Tracker{dir: dir}
}

func (t *Tracker) path(prefix string) string {
	return filepath.Join(t.dir, fmt.Sprintf("%s_status.json", prefix))
}

func (t *Tracker) Set(prefix, status, message string) {
	ps := models.PublishStatus{
		LastRun: time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
		Status:  status,
		Message: message,
	}

	data, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		slog.Error(err.Error())
		return
	}
	if err := os.WriteFile(t.path(prefix), data, 0644); err != nil {
		slog.Error(err.Error())
	}
}

func (t *Tracker) Get(prefix string) models.PublishStatus {
	data, err := os.ReadFile(t.path(prefix))
	if err != nil {
		return models.PublishStatus{Status: models.StatusNever}
	}

	var ps models.PublishStatus
	if err := json.Unmarshal(data, &ps); err != nil {
		slog.Info(err.Error())
		return models.PublishStatus{Status: models.StatusNever}
	}
	return ps
}
