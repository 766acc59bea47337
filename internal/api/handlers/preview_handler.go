package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postloop/internal/models"
	"github.com/maheshrc27/postloop/internal/repository"
	"github.com/maheshrc27/postloop/internal/selector"
	"github.com/maheshrc27/postloop/internal/transfer"
)

const (
	previewPageSizeCarousel = 12
	previewPageSizeReel     = 8
)

type PreviewHandler struct {
	ar  repository.AccountRepository
	sel *selector.Selector
}

func NewPreviewHandler(ar repository.AccountRepository, sel *selector.Selector) *PreviewHandler {
	return &PreviewHandler{ar: ar, sel: sel}
}

// Preview returns the upcoming caption plus a page of content candidates
// without advancing any rotation state.
func (h *PreviewHandler) Preview(c *fiber.Ctx) error {
	idx, err := c.ParamsInt("idx")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid account index"})
	}

	acct, err := accountByIndex(c.Context(), h.ar, idx)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	page := c.QueryInt("page", 1)
	includeUsed := c.QueryBool("include_used", false)

	defaultSize := previewPageSizeCarousel
	if acct.AccountType == models.AccountTypeReel {
		defaultSize = previewPageSizeReel
	}
	pageSize := c.QueryInt("page_size", defaultSize)
	if pageSize < 1 || pageSize > 50 {
		pageSize = defaultSize
	}

	caption, err := h.sel.PeekCaption(c.Context(), acct)
	if err != nil {
		slog.Info(err.Error())
		caption = ""
	}

	resp := transfer.PreviewResponse{
		Type:    acct.AccountType,
		Caption: caption,
	}

	switch acct.AccountType {
	case models.AccountTypeReel:
		pg := h.sel.PreviewVideos(c.Context(), acct, page, pageSize, includeUsed)
		resp.Videos = pg.Items
		resp.HasMore = pg.HasMore
		resp.TotalItems = pg.TotalItems
	default:
		pg := h.sel.PreviewImages(c.Context(), acct, page, pageSize, includeUsed)
		resp.Images = pg.Items
		resp.HasMore = pg.HasMore
		resp.TotalItems = pg.TotalItems
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}
