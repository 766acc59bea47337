package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/maheshrc27/postloop/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccounts struct {
	accounts []*models.Account
}

func (f *fakeAccounts) List(ctx context.Context) ([]*models.Account, error) {
	return f.accounts, nil
}

type fakeSettings struct {
	settings *models.ScheduleSettings
}

func (f *fakeSettings) Load(ctx context.Context) (*models.ScheduleSettings, error) {
	return f.settings, nil
}

type fakeRunner struct {
	mu   sync.Mutex
	runs []string
	done chan struct{}
}

func newFakeRunner(expected int) *fakeRunner {
	return &fakeRunner{done: make(chan struct{}, expected)}
}

func (f *fakeRunner) RunAccount(ctx context.Context, acct *models.Account, mode string) error {
	f.mu.Lock()
	f.runs = append(f.runs, acct.Name+"/"+mode)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func (f *fakeRunner) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-f.done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for runs")
		}
	}
}

func fixedClock(hour, minute int, loc *time.Location) func() time.Time {
	return func() time.Time {
		return time.Date(2025, 6, 1, hour, minute, 10, 0, loc)
	}
}

func newTestScheduler(accounts []*models.Account, settings *models.ScheduleSettings, ps Runner) *Scheduler {
	s := New(&fakeAccounts{accounts: accounts}, &fakeSettings{settings: settings}, ps, time.UTC)
	return s
}

func TestTickFiresOncePerMinute(t *testing.T) {
	acct := &models.Account{Name: "acct1", StatePrefix: "a1", ScheduleEnabled: true, ScheduleTimes: "07:30"}
	runner := newFakeRunner(4)
	s := newTestScheduler([]*models.Account{acct}, models.DefaultScheduleSettings(), runner)
	s.now = fixedClock(7, 30, time.UTC)

	assert.Equal(t, 1, s.Tick())
	// second tick inside the same minute is deduplicated
	assert.Equal(t, 0, s.Tick())

	runner.wait(t, 1)
	require.Len(t, runner.runs, 1)
	assert.Equal(t, "acct1/schedule", runner.runs[0])
}

func TestTickRefiresInLaterMinute(t *testing.T) {
	acct := &models.Account{Name: "acct1", StatePrefix: "a1", ScheduleEnabled: true, ScheduleTimes: "07:30, 21:00"}
	runner := newFakeRunner(4)
	s := newTestScheduler([]*models.Account{acct}, models.DefaultScheduleSettings(), runner)

	s.now = fixedClock(7, 30, time.UTC)
	assert.Equal(t, 1, s.Tick())

	s.now = fixedClock(21, 0, time.UTC)
	assert.Equal(t, 1, s.Tick())

	runner.wait(t, 2)
	assert.Len(t, runner.runs, 2)
}

func TestTickSkipsNonMatchingMinute(t *testing.T) {
	acct := &models.Account{Name: "acct1", StatePrefix: "a1", ScheduleEnabled: true, ScheduleTimes: "07:30"}
	runner := newFakeRunner(1)
	s := newTestScheduler([]*models.Account{acct}, models.DefaultScheduleSettings(), runner)
	s.now = fixedClock(7, 31, time.UTC)

	assert.Equal(t, 0, s.Tick())
}

func TestTickFallsBackToGlobalSlots(t *testing.T) {
	// unparseable override falls back to the global slots
	acct := &models.Account{Name: "acct1", StatePrefix: "a1", ScheduleEnabled: true, ScheduleTimes: "not a time"}
	runner := newFakeRunner(1)
	settings := models.DefaultScheduleSettings()
	s := newTestScheduler([]*models.Account{acct}, settings, runner)
	s.now = fixedClock(settings.Morning.Hour, settings.Morning.Minute, time.UTC)

	assert.Equal(t, 1, s.Tick())
	runner.wait(t, 1)
}

func TestTickHonorsGlobalDisable(t *testing.T) {
	acct := &models.Account{Name: "acct1", StatePrefix: "a1", ScheduleEnabled: true, ScheduleTimes: "07:30"}
	runner := newFakeRunner(1)
	settings := models.DefaultScheduleSettings()
	settings.Enabled = false
	s := newTestScheduler([]*models.Account{acct}, settings, runner)
	s.now = fixedClock(7, 30, time.UTC)

	assert.Equal(t, 0, s.Tick())
}

func TestTickSkipsDisabledAccounts(t *testing.T) {
	accounts := []*models.Account{
		{Name: "on", StatePrefix: "on", ScheduleEnabled: true, ScheduleTimes: "07:30"},
		{Name: "off", StatePrefix: "off", ScheduleEnabled: false, ScheduleTimes: "07:30"},
	}
	runner := newFakeRunner(2)
	s := newTestScheduler(accounts, models.DefaultScheduleSettings(), runner)
	s.now = fixedClock(7, 30, time.UTC)

	assert.Equal(t, 1, s.Tick())
	runner.wait(t, 1)
	assert.Equal(t, []string{"on/schedule"}, runner.runs)
}

func TestTriggerAllIgnoresFireTimes(t *testing.T) {
	accounts := []*models.Account{
		{Name: "a", StatePrefix: "a", ScheduleEnabled: true},
		{Name: "b", StatePrefix: "b", ScheduleEnabled: true, ScheduleTimes: "23:59"},
		{Name: "c", StatePrefix: "c", ScheduleEnabled: false},
	}
	runner := newFakeRunner(3)
	s := newTestScheduler(accounts, models.DefaultScheduleSettings(), runner)

	assert.Equal(t, 2, s.TriggerAll(context.Background()))
	runner.wait(t, 2)
	assert.Len(t, runner.runs, 2)
}

func TestParseAccountTimes(t *testing.T) {
	times := ParseAccountTimes("07:30, 21:00")
	require.Len(t, times, 2)
	assert.Equal(t, models.ScheduleTime{Hour: 7, Minute: 30}, times[0])
	assert.Equal(t, models.ScheduleTime{Hour: 21, Minute: 0}, times[1])

	assert.Nil(t, ParseAccountTimes(""))
	assert.Nil(t, ParseAccountTimes("   "))
	assert.Nil(t, ParseAccountTimes("25:00, 9:99"))
	assert.Nil(t, ParseAccountTimes("noon"))

	// partially valid input keeps the valid entries
	times = ParseAccountTimes("garbage, 06:15")
	require.Len(t, times, 1)
	assert.Equal(t, models.ScheduleTime{Hour: 6, Minute: 15}, times[0])
}
