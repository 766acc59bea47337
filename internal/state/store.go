package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/maheshrc27/postloop/internal/models"
)

// Pusher enqueues an asynchronous mirror push for a prefix. The local write
// never waits on it.
type Pusher interface {
	EnqueueSync(prefix string) error
}

// Store keeps per-account rotation state in local JSON artifacts, one file
// per counter or used-set. Local state is authoritative; the mirror is only
// consulted when an artifact is entirely absent.
type Store struct {
	dir    string
	mirror Mirror
	pusher Pusher
}

func NewStore(dir string, mirror Mirror, pusher Pusher) *Store {
	return &Store{dir: dir, mirror: mirror, pusher: pusher}
}

type indexFile struct {
	LastIndex int `json:"last_index"`
}

type usedFile struct {
	Used []string `json:"used"`
}

func (s *Store) indexPath(prefix, key string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", prefix, key))
}

func (s *Store) usedPath(prefix, kind string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s_used.json", prefix, kind))
}

func (s *Store) LoadIndex(ctx context.Context, prefix, key string) int {
	path := s.indexPath(prefix, key)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.restoreIfNeeded(ctx, prefix)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}

	var f indexFile
	if err := json.Unmarshal(data, &f); err != nil {
		// Corrupt local state counts as present-but-empty; recovery is
		// only for a missing artifact.
		slog.Info(err.Error())
		return 0
	}
	return f.LastIndex
}

func (s *Store) SaveIndex(prefix, key string, index int, sync bool) error {
	data, err := json.MarshalIndent(indexFile{LastIndex: index}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.indexPath(prefix, key), data, 0644); err != nil {
		slog.Error(err.Error())
		return err
	}
	if sync {
		s.push(prefix)
	}
	return nil
}

func (s *Store) LoadUsed(ctx context.Context, prefix, kind string) []string {
	path := s.usedPath(prefix, kind)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.restoreIfNeeded(ctx, prefix)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return []string{}
	}

	var f usedFile
	if err := json.Unmarshal(data, &f); err != nil {
		slog.Info(err.Error())
		return []string{}
	}
	if f.Used == nil {
		return []string{}
	}
	return f.Used
}

func (s *Store) SaveUsed(prefix, kind string, used []string, sync bool) error {
	if used == nil {
		used = []string{}
	}
	data, err := json.MarshalIndent(usedFile{Used: used}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.usedPath(prefix, kind), data, 0644); err != nil {
		slog.Error(err.Error())
		return err
	}
	if sync {
		s.push(prefix)
	}
	return nil
}

// Snapshot aggregates all local artifacts for a prefix into the mirrored
// form. Missing artifacts read as empty without triggering recovery.
func (s *Store) Snapshot(prefix string) models.RotationSnapshot {
	return models.RotationSnapshot{
		VideoUsed:  s.readUsedRaw(prefix, models.ContentKindVideo),
		ImageUsed:  s.readUsedRaw(prefix, models.ContentKindImage),
		CaptionIdx: s.readIndexRaw(prefix, models.RotationKeyCaption),
		ImageIdx:   s.readIndexRaw(prefix, models.RotationKeyImage),
	}
}

func (s *Store) readIndexRaw(prefix, key string) int {
	data, err := os.ReadFile(s.indexPath(prefix, key))
	if err != nil {
		return 0
	}
	var f indexFile
	if err := json.Unmarshal(data, &f); err != nil {
		return 0
	}
	return f.LastIndex
}

func (s *Store) readUsedRaw(prefix, kind string) []string {
	data, err := os.ReadFile(s.usedPath(prefix, kind))
	if err != nil {
		return []string{}
	}
	var f usedFile
	if err := json.Unmarshal(data, &f); err != nil {
		return []string{}
	}
	if f.Used == nil {
		return []string{}
	}
	return f.Used
}

// restoreIfNeeded hydrates local artifacts from the mirror, but only when no
// used-set artifact exists at all for the prefix. Once any local state
// exists it stays authoritative.
func (s *Store) restoreIfNeeded(ctx context.Context, prefix string) {
	if s.mirror == nil {
		return
	}

	_, vErr := os.Stat(s.usedPath(prefix, models.ContentKindVideo))
	_, iErr := os.Stat(s.usedPath(prefix, models.ContentKindImage))
	if vErr == nil || iErr == nil {
		return
	}

	snapshot, err := s.mirror.Get(ctx, prefix)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if snapshot == nil {
		return
	}

	slog.Info("restoring rotation state from mirror", "prefix", prefix)

	// sync=false: materializing the mirror must not re-push it.
	if err := s.SaveUsed(prefix, models.ContentKindVideo, snapshot.VideoUsed, false); err != nil {
		slog.Info(err.Error())
	}
	if err := s.SaveUsed(prefix, models.ContentKindImage, snapshot.ImageUsed, false); err != nil {
		slog.Info(err.Error())
	}
	if err := s.SaveIndex(prefix, models.RotationKeyCaption, snapshot.CaptionIdx, false); err != nil {
		slog.Info(err.Error())
	}
	if err := s.SaveIndex(prefix, models.RotationKeyImage, snapshot.ImageIdx, false); err != nil {
		slog.Info(err.Error())
	}
}

func (s *Store) push(prefix string) {
	if s.pusher == nil {
		return
	}
	if err := s.pusher.EnqueueSync(prefix); err != nil {
		slog.Info(err.Error())
	}
}
