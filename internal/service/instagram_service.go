package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/maheshrc27/postloop/configs"
	"github.com/maheshrc27/postloop/internal/models"
	"github.com/maheshrc27/postloop/internal/transfer"
)

const (
	readyPollAttempts = 600
	readyPollInterval = 2 * time.Second

	// Per-request deadline for status polls and permalink reads. The long
	// ceiling on verification comes from the attempt cap, not from any
	// single request.
	pollRequestTimeout = 30 * time.Second
)

type InstagramService interface {
	UploadImage(ctx context.Context, igUserID, accessToken, imageURL string) (string, error)
	UploadReel(ctx context.Context, igUserID, accessToken, videoURL, caption string, hideLikes bool) (string, error)
	CreateCarousel(ctx context.Context, igUserID, accessToken string, childIDs []string, caption string, hideLikes bool) (string, error)
	WaitUntilReady(ctx context.Context, containerID, accessToken string) error
	PublishContainer(ctx context.Context, igUserID, accessToken, creationID string) (string, error)
	PostComment(ctx context.Context, mediaID, accessToken, message string) (string, error)
	FetchPermalink(ctx context.Context, mediaID, accessToken string) string
}

type instagramService struct {
	cfg          config.Config
	client       *http.Client
	pollClient   *http.Client
	pollAttempts int
	pollInterval time.Duration
}

func NewInstagramService(cfg config.Config) InstagramService {
	return &instagramService{
		cfg:          cfg,
		client:       &http.Client{Timeout: 20 * time.Minute},
		pollClient:   &http.Client{Timeout: pollRequestTimeout},
		pollAttempts: readyPollAttempts,
		pollInterval: readyPollInterval,
	}
}

func (s *instagramService) endpoint(path string) string {
	return strings.TrimRight(s.cfg.GraphAPIBase, "/") + path
}

func (s *instagramService) postForm(ctx context.Context, path string, data url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(path), strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, models.NewRunError(models.ErrKindTransient, "HTTP request error: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// The platform's own error body goes through verbatim so the
		// operator sees what it rejected.
		var ge transfer.GraphErrorResponse
		if err := json.Unmarshal(body, &ge); err == nil && ge.Error.Message != "" {
			return nil, models.NewRunError(models.ErrKindUpstream, "instagram API error %d (code %d): %s",
				resp.StatusCode, ge.Error.Code, ge.Error.Message)
		}
		return nil, models.NewRunError(models.ErrKindUpstream, "instagram API error %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

func containerID(body []byte) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if result.ID == "" {
		return "", models.NewRunError(models.ErrKindUpstream, "no container ID returned from Instagram: %s", string(body))
	}
	return result.ID, nil
}

func (s *instagramService) UploadImage(ctx context.Context, igUserID, accessToken, imageURL string) (string, error) {
	data := url.Values{}
	data.Set("image_url", imageURL)
	data.Set("is_carousel_item", "true")
	data.Set("access_token", accessToken)

	body, err := s.postForm(ctx, fmt.Sprintf("/%s/media", igUserID), data)
	if err != nil {
		return "", err
	}
	return containerID(body)
}

func (s *instagramService) UploadReel(ctx context.Context, igUserID, accessToken, videoURL, caption string, hideLikes bool) (string, error) {
	data := url.Values{}
	data.Set("media_type", "REELS")
	data.Set("video_url", videoURL)
	data.Set("caption", caption)
	data.Set("access_token", accessToken)
	if hideLikes {
		data.Set("like_and_view_counts_disabled", "true")
	}

	body, err := s.postForm(ctx, fmt.Sprintf("/%s/media", igUserID), data)
	if err != nil {
		return "", err
	}
	return containerID(body)
}

func (s *instagramService) CreateCarousel(ctx context.Context, igUserID, accessToken string, childIDs []string, caption string, hideLikes bool) (string, error) {
	data := url.Values{}
	data.Set("media_type", "CAROUSEL")
	data.Set("children", strings.Join(childIDs, ","))
	data.Set("caption", caption)
	data.Set("access_token", accessToken)
	if hideLikes {
		data.Set("like_and_view_counts_disabled", "true")
	}

	body, err := s.postForm(ctx, fmt.Sprintf("/%s/media", igUserID), data)
	if err != nil {
		return "", err
	}
	return containerID(body)
}

// WaitUntilReady polls the container's processing status until it reaches a
// terminal state. A transport failure during a poll is logged and polling
// continues; media processing waits must survive network flakiness.
func (s *instagramService) WaitUntilReady(ctx context.Context, containerID, accessToken string) error {
	reqURL := fmt.Sprintf("%s?fields=status_code,status&access_token=%s",
		s.endpoint("/"+containerID), url.QueryEscape(accessToken))

	var lastBody string
	for i := 0; i < s.pollAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}

		resp, err := s.pollClient.Do(req)
		if err != nil {
			slog.Info("poll attempt failed", "attempt", i+1, "error", err.Error())
			time.Sleep(s.pollInterval)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			slog.Info("poll attempt failed", "attempt", i+1, "error", err.Error())
			time.Sleep(s.pollInterval)
			continue
		}
		lastBody = string(body)

		var cs transfer.ContainerStatus
		if err := json.Unmarshal(body, &cs); err != nil {
			slog.Info("poll attempt failed", "attempt", i+1, "error", err.Error())
			time.Sleep(s.pollInterval)
			continue
		}

		current := strings.ToUpper(cs.StatusCode)
		if current == "" {
			current = strings.ToUpper(cs.Status)
		}

		switch current {
		case "FINISHED":
			return nil
		case "ERROR":
			return models.NewRunError(models.ErrKindUpstream, "media container %s failed readiness: %s", containerID, lastBody)
		}

		time.Sleep(s.pollInterval)
	}

	return models.NewRunError(models.ErrKindUpstream, "media container %s not ready after %d attempts: %s", containerID, s.pollAttempts, lastBody)
}

func (s *instagramService) PublishContainer(ctx context.Context, igUserID, accessToken, creationID string) (string, error) {
	data := url.Values{}
	data.Set("creation_id", creationID)
	data.Set("access_token", accessToken)

	body, err := s.postForm(ctx, fmt.Sprintf("/%s/media_publish", igUserID), data)
	if err != nil {
		return "", err
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if result.ID == "" {
		return "", models.NewRunError(models.ErrKindUpstream, "media_publish error: %s", string(body))
	}
	return result.ID, nil
}

func (s *instagramService) PostComment(ctx context.Context, mediaID, accessToken, message string) (string, error) {
	if message == "" {
		return "", nil
	}

	data := url.Values{}
	data.Set("message", message)
	data.Set("access_token", accessToken)

	body, err := s.postForm(ctx, fmt.Sprintf("/%s/comments", mediaID), data)
	if err != nil {
		return "", &models.RunError{Kind: models.ErrKindAnnotation, Err: err}
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &models.RunError{Kind: models.ErrKindAnnotation, Err: err}
	}
	return result.ID, nil
}

// FetchPermalink is best-effort; a failure returns the empty string and the
// run carries on with a "(not available)" message.
func (s *instagramService) FetchPermalink(ctx context.Context, mediaID, accessToken string) string {
	reqURL := fmt.Sprintf("%s?fields=permalink&access_token=%s",
		s.endpoint("/"+mediaID), url.QueryEscape(accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return ""
	}

	resp, err := s.pollClient.Do(req)
	if err != nil {
		slog.Info("could not fetch permalink", "media_id", mediaID, "error", err.Error())
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Info("could not fetch permalink", "media_id", mediaID, "status", resp.StatusCode)
		return ""
	}

	var result struct {
		Permalink string `json:"permalink"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return ""
	}
	return result.Permalink
}
