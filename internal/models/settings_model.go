package models

import "time"

type ScheduleTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ScheduleSettings holds the global named fire slots. Accounts without a
// parseable per-account override fall back to these.
type ScheduleSettings struct {
	Enabled   bool         `json:"enabled"`
	Morning   ScheduleTime `json:"morning"`
	Afternoon ScheduleTime `json:"afternoon"`
	Evening   ScheduleTime `json:"evening"`
	Night     ScheduleTime `json:"night"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func DefaultScheduleSettings() *ScheduleSettings {
	return &ScheduleSettings{
		Enabled:   true,
		Morning:   ScheduleTime{Hour: 7, Minute: 30},
		Afternoon: ScheduleTime{Hour: 15, Minute: 0},
		Evening:   ScheduleTime{Hour: 18, Minute: 30},
		Night:     ScheduleTime{Hour: 23, Minute: 0},
	}
}

// Times flattens the named slots. Empty when scheduling is globally off.
func (s *ScheduleSettings) Times() []ScheduleTime {
	if !s.Enabled {
		return nil
	}
	return []ScheduleTime{s.Morning, s.Afternoon, s.Evening, s.Night}
}
