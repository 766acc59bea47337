package models

import "time"

type Account struct {
	ID               int64     `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	StatePrefix      string    `db:"state_prefix" json:"state_prefix"`
	AccountType      string    `db:"account_type" json:"account_type"` // carousel, reel
	AccessTokenEnv   string    `db:"access_token_env" json:"access_token_env"`
	IGUserIDEnv      string    `db:"ig_user_id_env" json:"ig_user_id_env"`
	BaseURL          string    `db:"base_url" json:"base_url"`
	VideoBaseURL     string    `db:"video_base_url" json:"video_base_url"`
	CaptionURL       string    `db:"caption_url" json:"caption_url"`
	SlidesPerPost    int       `db:"slides_per_post" json:"slides_per_post"`
	MaxImages        int       `db:"max_images" json:"max_images"`
	EncodingVariant  string    `db:"encoding_variant" json:"encoding_variant"`
	ScheduleEnabled  bool      `db:"schedule_enabled" json:"schedule_enabled"`
	ScheduleTimes    string    `db:"schedule_times" json:"schedule_times"` // raw "07:30, 21:00"
	TokenExpiresAt   time.Time `db:"token_expires_at" json:"token_expires_at"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

const (
	AccountTypeCarousel = "carousel"
	AccountTypeReel     = "reel"
)

// EncodingVariant values control how the space in virtual filenames is
// percent-encoded when the public URL is composed. Some hosts store the
// files with a literal "%20" in the object name.
const (
	EncodingDefault      = "default"
	EncodingSpaceLiteral = "space_literal"
)
