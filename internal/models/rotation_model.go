package models

// RotationSnapshot is the mirrored form of one account's rotation state.
// The remote document is a single map of state_prefix to snapshot.
type RotationSnapshot struct {
	VideoUsed  []string `json:"video_used"`
	ImageUsed  []string `json:"image_used"`
	CaptionIdx int      `json:"caption_idx"`
	ImageIdx   int      `json:"image_idx"`
}

// Candidate is a catalog entry realized against an account's base URL.
// Never persisted; the filename is the stable identity, the URL is derived.
type Candidate struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Used     bool   `json:"used"`
}

const (
	RotationKeyCaption = "caption"
	RotationKeyImage   = "image"
)

const (
	ContentKindImage = "image"
	ContentKindVideo = "video"
)

const (
	RunModeManual   = "manual"
	RunModeSchedule = "schedule"
)
