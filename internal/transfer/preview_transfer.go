package transfer

import "github.com/maheshrc27/postloop/internal/models"

type PreviewPage struct {
	Items      []models.Candidate `json:"items"`
	HasMore    bool               `json:"has_more"`
	TotalItems int                `json:"total_items"`
}

type PreviewResponse struct {
	Type       string             `json:"type"`
	Caption    string             `json:"caption"`
	Images     []models.Candidate `json:"images,omitempty"`
	Videos     []models.Candidate `json:"videos,omitempty"`
	HasMore    bool               `json:"has_more"`
	TotalItems int                `json:"total_items"`
}

type PublishRequest struct {
	Images       []string `json:"images"`
	Video        string   `json:"video"`
	Caption      string   `json:"caption"`
	HideLikes    bool     `json:"hide_likes"`
	FirstComment string   `json:"first_comment"`
}
