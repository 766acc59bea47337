package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/maheshrc27/postloop/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMirror struct {
	snapshots map[string]models.RotationSnapshot
	gets      int
	puts      int
}

func (m *fakeMirror) Get(ctx context.Context, prefix string) (*models.RotationSnapshot, error) {
	m.gets++
	s, ok := m.snapshots[prefix]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *fakeMirror) Put(ctx context.Context, prefix string, snapshot models.RotationSnapshot) error {
	m.puts++
	if m.snapshots == nil {
		m.snapshots = make(map[string]models.RotationSnapshot)
	}
	m.snapshots[prefix] = snapshot
	return nil
}

type fakePusher struct {
	prefixes []string
}

func (p *fakePusher) EnqueueSync(prefix string) error {
	p.prefixes = append(p.prefixes, prefix)
	return nil
}

func TestLoadIndexDefaultsToZero(t *testing.T) {
	st := NewStore(t.TempDir(), nil, nil)
	assert.Equal(t, 0, st.LoadIndex(context.Background(), "acct1", models.RotationKeyCaption))
}

func TestIndexRoundtrip(t *testing.T) {
	st := NewStore(t.TempDir(), nil, nil)
	ctx := context.Background()

	require.NoError(t, st.SaveIndex("acct1", models.RotationKeyImage, 7, false))
	assert.Equal(t, 7, st.LoadIndex(ctx, "acct1", models.RotationKeyImage))

	// other keys for the same prefix are untouched
	assert.Equal(t, 0, st.LoadIndex(ctx, "acct1", models.RotationKeyCaption))
}

func TestUsedRoundtrip(t *testing.T) {
	st := NewStore(t.TempDir(), nil, nil)
	ctx := context.Background()

	require.NoError(t, st.SaveUsed("acct1", models.ContentKindImage, []string{"img (1).jpg", "img (3).jpg"}, false))
	assert.Equal(t, []string{"img (1).jpg", "img (3).jpg"}, st.LoadUsed(ctx, "acct1", models.ContentKindImage))
	assert.Empty(t, st.LoadUsed(ctx, "acct1", models.ContentKindVideo))
}

func TestCorruptArtifactReadsAsEmptyWithoutRecovery(t *testing.T) {
	dir := t.TempDir()
	mirror := &fakeMirror{snapshots: map[string]models.RotationSnapshot{
		"acct1": {ImageIdx: 99, ImageUsed: []string{"img (1).jpg"}},
	}}
	st := NewStore(dir, mirror, nil)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "acct1_image_used.json"), []byte("{not json"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acct1_image.json"), []byte("{not json"), 0644))

	assert.Empty(t, st.LoadUsed(ctx, "acct1", models.ContentKindImage))
	assert.Equal(t, 0, st.LoadIndex(ctx, "acct1", models.RotationKeyImage))
	// corrupt files exist, so the mirror must never be consulted
	assert.Equal(t, 0, mirror.gets)
}

func TestRecoveryHydratesAllArtifacts(t *testing.T) {
	dir := t.TempDir()
	pusher := &fakePusher{}
	mirror := &fakeMirror{snapshots: map[string]models.RotationSnapshot{
		"acct1": {
			VideoUsed:  []string{"vid (2).mp4"},
			ImageUsed:  []string{"img (5).jpg"},
			CaptionIdx: 3,
			ImageIdx:   5,
		},
	}}
	st := NewStore(dir, mirror, pusher)
	ctx := context.Background()

	assert.Equal(t, 5, st.LoadIndex(ctx, "acct1", models.RotationKeyImage))
	assert.Equal(t, 3, st.LoadIndex(ctx, "acct1", models.RotationKeyCaption))
	assert.Equal(t, []string{"img (5).jpg"}, st.LoadUsed(ctx, "acct1", models.ContentKindImage))
	assert.Equal(t, []string{"vid (2).mp4"}, st.LoadUsed(ctx, "acct1", models.ContentKindVideo))

	// materializing the mirror locally must not schedule a re-push
	assert.Empty(t, pusher.prefixes)
	// hydration happens once; later reads hit local files
	assert.Equal(t, 1, mirror.gets)
}

func TestNoRecoveryOncePartialLocalStateExists(t *testing.T) {
	dir := t.TempDir()
	mirror := &fakeMirror{snapshots: map[string]models.RotationSnapshot{
		"acct1": {ImageIdx: 42},
	}}
	st := NewStore(dir, mirror, nil)
	ctx := context.Background()

	require.NoError(t, st.SaveUsed("acct1", models.ContentKindImage, []string{}, false))

	assert.Equal(t, 0, st.LoadIndex(ctx, "acct1", models.RotationKeyImage))
	assert.Equal(t, 0, mirror.gets)
}

func TestSaveWithSyncEnqueuesPush(t *testing.T) {
	pusher := &fakePusher{}
	st := NewStore(t.TempDir(), nil, pusher)

	require.NoError(t, st.SaveIndex("acct1", models.RotationKeyCaption, 1, true))
	require.NoError(t, st.SaveUsed("acct1", models.ContentKindVideo, []string{"vid.mp4"}, true))
	require.NoError(t, st.SaveIndex("acct1", models.RotationKeyImage, 2, false))

	assert.Equal(t, []string{"acct1", "acct1"}, pusher.prefixes)
}

func TestSnapshotAggregatesLocalArtifacts(t *testing.T) {
	st := NewStore(t.TempDir(), nil, nil)

	require.NoError(t, st.SaveIndex("acct1", models.RotationKeyCaption, 4, false))
	require.NoError(t, st.SaveIndex("acct1", models.RotationKeyImage, 9, false))
	require.NoError(t, st.SaveUsed("acct1", models.ContentKindImage, []string{"img (2).jpg"}, false))

	snap := st.Snapshot("acct1")
	assert.Equal(t, 4, snap.CaptionIdx)
	assert.Equal(t, 9, snap.ImageIdx)
	assert.Equal(t, []string{"img (2).jpg"}, snap.ImageUsed)
	assert.Equal(t, []string{}, snap.VideoUsed)
}
