package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	config "github.com/maheshrc27/postloop/configs"
	"github.com/maheshrc27/postloop/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPollService(graphURL string, attempts int) *instagramService {
	return &instagramService{
		cfg:          config.Config{GraphAPIBase: graphURL},
		client:       &http.Client{Timeout: time.Second},
		pollClient:   &http.Client{Timeout: 200 * time.Millisecond},
		pollAttempts: attempts,
		pollInterval: 10 * time.Millisecond,
	}
}

func TestWaitUntilReadyFinished(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status_code":"FINISHED","status":""}`)
	}))
	defer srv.Close()

	svc := newPollService(srv.URL, 3)
	require.NoError(t, svc.WaitUntilReady(context.Background(), "c1", "tok"))
}

func TestWaitUntilReadyErrorStatusAborts(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&polls, 1)
		fmt.Fprint(w, `{"status_code":"ERROR","status":"Media processing failed"}`)
	}))
	defer srv.Close()

	svc := newPollService(srv.URL, 10)
	err := svc.WaitUntilReady(context.Background(), "c1", "tok")
	require.Error(t, err)
	assert.Equal(t, models.ErrKindUpstream, models.KindOf(err))
	// the terminal body is surfaced, and polling stops immediately
	assert.Contains(t, err.Error(), "Media processing failed")
	assert.Equal(t, int32(1), atomic.LoadInt32(&polls))
}

func TestWaitUntilReadyToleratesTransientFailures(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&polls, 1) {
		case 1:
			// stall past the per-request deadline; the attempt must fail
			// fast instead of holding the whole verification open
			time.Sleep(600 * time.Millisecond)
		case 2:
			fmt.Fprint(w, `not json`)
		default:
			fmt.Fprint(w, `{"status_code":"FINISHED","status":""}`)
		}
	}))
	defer srv.Close()

	svc := newPollService(srv.URL, 5)

	start := time.Now()
	require.NoError(t, svc.WaitUntilReady(context.Background(), "c1", "tok"))
	// attempt one ends at the 200ms poll deadline, not at the stall length
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&polls), int32(3))
}

func TestWaitUntilReadyAttemptCapExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status_code":"IN_PROGRESS","status":""}`)
	}))
	defer srv.Close()

	svc := newPollService(srv.URL, 3)
	err := svc.WaitUntilReady(context.Background(), "c1", "tok")
	require.Error(t, err)
	assert.Equal(t, models.ErrKindUpstream, models.KindOf(err))
	assert.Contains(t, err.Error(), "not ready after 3 attempts")
	assert.Contains(t, err.Error(), "IN_PROGRESS")
}

func TestWaitUntilReadyHonorsCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status_code":"IN_PROGRESS","status":""}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newPollService(srv.URL, 100)
	err := svc.WaitUntilReady(ctx, "c1", "tok")
	require.ErrorIs(t, err, context.Canceled)
}
