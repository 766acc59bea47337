package models

type PublishStatus struct {
	LastRun string `json:"last_run"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

const (
	StatusNever   = "never"
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)
