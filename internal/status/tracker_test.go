package status

import (
	"testing"

	"github.com/maheshrc27/postloop/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestGetDefaultsToNever(t *testing.T) {
	tr := NewTracker(t.TempDir())

	ps := tr.Get("acct1")
	assert.Equal(t, models.StatusNever, ps.Status)
	assert.Empty(t, ps.LastRun)
	assert.Empty(t, ps.Message)
}

func TestSetOverwritesPrevious(t *testing.T) {
	tr := NewTracker(t.TempDir())

	tr.Set("acct1", models.StatusRunning, "Uploading image 1/3...")
	ps := tr.Get("acct1")
	assert.Equal(t, models.StatusRunning, ps.Status)
	assert.Equal(t, "Uploading image 1/3...", ps.Message)
	assert.NotEmpty(t, ps.LastRun)

	tr.Set("acct1", models.StatusSuccess, "Carousel (manual) published")
	ps = tr.Get("acct1")
	assert.Equal(t, models.StatusSuccess, ps.Status)
	assert.Equal(t, "Carousel (manual) published", ps.Message)
}

func TestStatusIsPerPrefix(t *testing.T) {
	tr := NewTracker(t.TempDir())

	tr.Set("acct1", models.StatusError, "boom")
	assert.Equal(t, models.StatusError, tr.Get("acct1").Status)
	assert.Equal(t, models.StatusNever, tr.Get("acct2").Status)
}
