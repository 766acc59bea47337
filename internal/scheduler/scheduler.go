package scheduler

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/maheshrc27/postloop/internal/models"
)

// AccountSource lists the configured accounts. Satisfied by the account
// repository.
type AccountSource interface {
	List(ctx context.Context) ([]*models.Account, error)
}

// SettingsSource loads the global schedule settings. Satisfied by the
// settings repository.
type SettingsSource interface {
	Load(ctx context.Context) (*models.ScheduleSettings, error)
}

// Runner executes one publish run. Satisfied by the publish service.
type Runner interface {
	RunAccount(ctx context.Context, acct *models.Account, mode string) error
}

// Scheduler evaluates every enabled account's effective fire times on each
// tick and launches at most one run per account per calendar minute. The
// tick period (30s) is finer than the minute granularity of fire times, so
// the dedup map is what keeps one target minute from firing twice.
type Scheduler struct {
	ar  AccountSource
	sr  SettingsSource
	ps  Runner
	loc *time.Location
	now func() time.Time

	mu           sync.Mutex
	lastTriggers map[string]int // account name -> minute of day last fired
}

func New(ar AccountSource, sr SettingsSource, ps Runner, loc *time.Location) *Scheduler {
	return &Scheduler{
		ar:           ar,
		sr:           sr,
		ps:           ps,
		loc:          loc,
		now:          time.Now,
		lastTriggers: make(map[string]int),
	}
}

// Tick runs one evaluation pass and returns how many runs were launched.
func (s *Scheduler) Tick() int {
	ctx := context.Background()

	settings, err := s.sr.Load(ctx)
	if err != nil {
		slog.Info(err.Error())
		return 0
	}
	if !settings.Enabled {
		return 0
	}

	accounts, err := s.ar.List(ctx)
	if err != nil {
		slog.Info(err.Error())
		return 0
	}

	now := s.now().In(s.loc)
	globalTimes := settings.Times()
	minuteOfDay := now.Hour()*60 + now.Minute()

	count := 0
	for _, acct := range accounts {
		if !acct.ScheduleEnabled {
			continue
		}

		effective := ParseAccountTimes(acct.ScheduleTimes)
		if effective == nil {
			effective = globalTimes
		}

		match := false
		for _, t := range effective {
			if t.Hour == now.Hour() && t.Minute == now.Minute() {
				match = true
				break
			}
		}
		if !match {
			continue
		}

		if !s.claim(acct.Name, minuteOfDay) {
			continue
		}

		slog.Info("scheduler triggering account", "account", acct.Name, "at", now.Format("15:04"))
		count++
		go func(a *models.Account) {
			_ = s.ps.RunAccount(context.Background(), a, models.RunModeSchedule)
		}(acct)
	}

	return count
}

// claim records the firing minute for the account unless it already fired
// in this exact minute.
func (s *Scheduler) claim(name string, minuteOfDay int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.lastTriggers[name]; ok && last == minuteOfDay {
		return false
	}
	s.lastTriggers[name] = minuteOfDay
	return true
}

// TriggerAll launches a scheduled run for every schedule-enabled account
// regardless of fire times. Used by the manual trigger endpoint.
func (s *Scheduler) TriggerAll(ctx context.Context) int {
	accounts, err := s.ar.List(ctx)
	if err != nil {
		slog.Info(err.Error())
		return 0
	}

	count := 0
	for _, acct := range accounts {
		if !acct.ScheduleEnabled {
			continue
		}
		slog.Info("scheduler manual trigger", "account", acct.Name)
		count++
		go func(a *models.Account) {
			_ = s.ps.RunAccount(context.Background(), a, models.RunModeSchedule)
		}(acct)
	}
	if count == 0 {
		slog.Info("no accounts have scheduling enabled")
	}
	return count
}

// ParseAccountTimes parses a free-text comma list like "07:30, 21:00" into
// fire times. Returns nil for empty or fully unparseable input, which makes
// the caller fall back to the global slots.
func ParseAccountTimes(raw string) []models.ScheduleTime {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var times []models.ScheduleTime
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		hm := strings.SplitN(part, ":", 2)
		if len(hm) != 2 {
			continue
		}
		h, errH := strconv.Atoi(strings.TrimSpace(hm[0]))
		m, errM := strconv.Atoi(strings.TrimSpace(hm[1]))
		if errH != nil || errM != nil {
			continue
		}
		if h < 0 || h > 23 || m < 0 || m > 59 {
			continue
		}
		times = append(times, models.ScheduleTime{Hour: h, Minute: m})
	}

	if len(times) == 0 {
		return nil
	}
	return times
}
