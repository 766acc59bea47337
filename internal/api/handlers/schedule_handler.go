package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postloop/internal/models"
	"github.com/maheshrc27/postloop/internal/repository"
	"github.com/maheshrc27/postloop/internal/scheduler"
)

type ScheduleHandler struct {
	sched *scheduler.Scheduler
	sr    repository.SettingsRepository
}

func NewScheduleHandler(sched *scheduler.Scheduler, sr repository.SettingsRepository) *ScheduleHandler {
	return &ScheduleHandler{sched: sched, sr: sr}
}

// TriggerSchedule fires a scheduled run for every schedule-enabled account
// right now, ignoring the configured fire times.
func (h *ScheduleHandler) TriggerSchedule(c *fiber.Ctx) error {
	triggered := h.sched.TriggerAll(c.Context())
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"triggered": triggered})
}

func (h *ScheduleHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.sr.Load(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Unable to load settings"})
	}
	return c.Status(fiber.StatusOK).JSON(settings)
}

func (h *ScheduleHandler) SaveSettings(c *fiber.Ctx) error {
	var settings models.ScheduleSettings
	if err := c.BodyParser(&settings); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unable to parse payload"})
	}

	for _, t := range []models.ScheduleTime{settings.Morning, settings.Afternoon, settings.Evening, settings.Night} {
		if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Fire time out of range"})
		}
	}

	if err := h.sr.Save(c.Context(), &settings); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Unable to save settings"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "saved"})
}
