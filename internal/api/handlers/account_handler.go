package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postloop/internal/models"
	"github.com/maheshrc27/postloop/internal/repository"
	"github.com/maheshrc27/postloop/internal/status"
)

type AccountHandler struct {
	ar repository.AccountRepository
	tr *status.Tracker
}

func NewAccountHandler(ar repository.AccountRepository, tr *status.Tracker) *AccountHandler {
	return &AccountHandler{ar: ar, tr: tr}
}

type accountView struct {
	models.Account
	Status models.PublishStatus `json:"status"`
}

// List returns every configured account with its latest publish status
// attached. This is the dashboard's main view.
func (h *AccountHandler) List(c *fiber.Ctx) error {
	accounts, err := h.ar.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Unable to list accounts"})
	}

	views := make([]accountView, 0, len(accounts))
	for _, acct := range accounts {
		views = append(views, accountView{
			Account: *acct,
			Status:  h.tr.Get(acct.StatePrefix),
		})
	}
	return c.Status(fiber.StatusOK).JSON(views)
}

func (h *AccountHandler) Create(c *fiber.Ctx) error {
	var acct models.Account
	if err := c.BodyParser(&acct); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unable to parse payload"})
	}

	if acct.Name == "" || acct.StatePrefix == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing 'name' or 'state_prefix'"})
	}
	if acct.AccountType != models.AccountTypeCarousel && acct.AccountType != models.AccountTypeReel {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "account_type must be carousel or reel"})
	}
	if acct.EncodingVariant == "" {
		acct.EncodingVariant = models.EncodingDefault
	}

	existing, err := h.ar.GetByStatePrefix(c.Context(), acct.StatePrefix)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Unable to create account"})
	}
	if existing != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "state_prefix already in use"})
	}

	id, err := h.ar.Create(c.Context(), &acct)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Unable to create account"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (h *AccountHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account id"})
	}

	existing, err := h.ar.GetByID(c.Context(), int64(id))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Unable to load account"})
	}
	if existing == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Account not found"})
	}

	var acct models.Account
	if err := c.BodyParser(&acct); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unable to parse payload"})
	}
	acct.ID = existing.ID
	// state_prefix is immutable; renaming it would orphan rotation state.
	acct.StatePrefix = existing.StatePrefix

	if err := h.ar.Update(c.Context(), &acct); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Unable to update account"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "updated"})
}
