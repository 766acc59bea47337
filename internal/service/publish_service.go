package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/maheshrc27/postloop/internal/models"
	"github.com/maheshrc27/postloop/internal/selector"
	"github.com/maheshrc27/postloop/internal/status"
	"github.com/maheshrc27/postloop/internal/transfer"
)

// Notifier is the outbound notification sink. Best-effort; the boolean is
// advisory only.
type Notifier interface {
	NotifySuccess(accountName, mediaType, permalink, mediaID string) bool
	NotifyFailure(accountName, errMessage string) bool
}

type PublishService interface {
	RunAccount(ctx context.Context, acct *models.Account, mode string) error
	PublishSelected(ctx context.Context, acct *models.Account, req *transfer.PublishRequest) error
}

type publishService struct {
	ig  InstagramService
	sel *selector.Selector
	tr  *status.Tracker
	nt  Notifier

	firstComment string

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewPublishService(
	ig InstagramService,
	sel *selector.Selector,
	tr *status.Tracker,
	nt Notifier,
	firstComment string) PublishService {
	return &publishService{
		ig:           ig,
		sel:          sel,
		tr:           tr,
		nt:           nt,
		firstComment: firstComment,
		inFlight:     make(map[string]struct{}),
	}
}

// tryStart claims the per-account run slot. A run launched while another run
// for the same prefix is active is rejected at launch; duplicate triggers
// are treated as mistakes, not as a backlog.
func (s *publishService) tryStart(prefix string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[prefix]; busy {
		return false
	}
	s.inFlight[prefix] = struct{}{}
	return true
}

func (s *publishService) finish(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, prefix)
}

// RunAccount executes one full rotation-and-publish run for the account.
// Manual runs select sequentially; scheduled runs select random-unused.
// All failures are absorbed here: the status tracker and the notification
// sink carry the outcome, nothing escapes into the scheduler.
func (s *publishService) RunAccount(ctx context.Context, acct *models.Account, mode string) error {
	prefix := acct.StatePrefix

	if !s.tryStart(prefix) {
		slog.Info("run already in flight, skipping", "account", acct.Name, "mode", mode)
		return fmt.Errorf("run already in flight for %s", acct.Name)
	}
	defer s.finish(prefix)

	runID, _ := gonanoid.New(8)
	slog.Info("starting publish run", "run_id", runID, "account", acct.Name, "mode", mode)

	s.tr.Set(prefix, models.StatusRunning, fmt.Sprintf("Starting automation (%s)...", mode))

	var err error
	switch acct.AccountType {
	case models.AccountTypeCarousel:
		err = s.runCarousel(ctx, acct, mode)
	default:
		err = s.runReel(ctx, acct, mode)
	}

	if err != nil {
		slog.Error("publish run failed", "run_id", runID, "account", acct.Name, "kind", string(models.KindOf(err)), "error", err.Error())
		s.tr.Set(prefix, models.StatusError, err.Error())
		s.nt.NotifyFailure(acct.Name, err.Error())
		return err
	}

	slog.Info("publish run finished", "run_id", runID, "account", acct.Name)
	return nil
}

func (s *publishService) runCarousel(ctx context.Context, acct *models.Account, mode string) error {
	var imgs []models.Candidate
	var err error
	if mode == models.RunModeSchedule {
		imgs, err = s.sel.RandomImages(ctx, acct, acct.SlidesPerPost)
	} else {
		imgs, err = s.sel.NextImages(ctx, acct)
	}
	if err != nil {
		return err
	}

	caption, err := s.sel.NextCaption(ctx, acct)
	if err != nil {
		return err
	}

	mediaID, permalink, err := s.publishCarousel(ctx, acct, imgs, caption, true, s.firstComment)
	if err != nil {
		return err
	}

	// Sequential selection already recorded progress through the pointer;
	// only the random strategy marks items used, and only after publish.
	if mode == models.RunModeSchedule {
		urls := make([]string, 0, len(imgs))
		for _, c := range imgs {
			urls = append(urls, c.URL)
		}
		if err := s.sel.MarkUsed(ctx, acct, models.ContentKindImage, urls); err != nil {
			slog.Info(err.Error())
		}
	}

	s.succeed(acct, models.AccountTypeCarousel, mode, mediaID, permalink)
	return nil
}

func (s *publishService) runReel(ctx context.Context, acct *models.Account, mode string) error {
	s.tr.Set(acct.StatePrefix, models.StatusRunning, "Selecting video...")

	var cand *models.Candidate
	var err error
	if mode == models.RunModeSchedule {
		cand, err = s.sel.RandomCandidate(ctx, acct, models.ContentKindVideo)
	} else {
		cand, err = s.sel.NextVideo(ctx, acct)
	}
	if err != nil {
		return err
	}

	caption, err := s.sel.NextCaption(ctx, acct)
	if err != nil {
		return err
	}

	mediaID, permalink, err := s.publishReel(ctx, acct, cand.URL, caption, true, s.firstComment)
	if err != nil {
		return err
	}

	if mode == models.RunModeSchedule {
		if err := s.sel.MarkUsed(ctx, acct, models.ContentKindVideo, []string{cand.URL}); err != nil {
			slog.Info(err.Error())
		}
	}

	s.succeed(acct, models.AccountTypeReel, mode, mediaID, permalink)
	return nil
}

// PublishSelected publishes operator-picked content from the preview view.
// Validation of required fields happened synchronously at the API boundary;
// everything here surfaces through the status tracker.
func (s *publishService) PublishSelected(ctx context.Context, acct *models.Account, req *transfer.PublishRequest) error {
	prefix := acct.StatePrefix

	if !s.tryStart(prefix) {
		slog.Info("run already in flight, skipping", "account", acct.Name, "mode", "selected")
		return fmt.Errorf("run already in flight for %s", acct.Name)
	}
	defer s.finish(prefix)

	s.tr.Set(prefix, models.StatusRunning, "Processing in background...")

	err := s.publishSelected(ctx, acct, req)
	if err != nil {
		slog.Error("selected publish failed", "account", acct.Name, "error", err.Error())
		s.tr.Set(prefix, models.StatusError, err.Error())
		s.nt.NotifyFailure(acct.Name, err.Error())
	}
	return err
}

func (s *publishService) publishSelected(ctx context.Context, acct *models.Account, req *transfer.PublishRequest) error {
	caption := req.Caption
	var err error
	if caption == "" {
		caption, err = s.sel.NextCaption(ctx, acct)
		if err != nil {
			return err
		}
	}

	if acct.AccountType == models.AccountTypeCarousel {
		if len(req.Images) == 0 {
			return models.NewRunError(models.ErrKindConfig, "no slides selected")
		}

		imgs := make([]models.Candidate, 0, len(req.Images))
		for _, u := range req.Images {
			imgs = append(imgs, models.Candidate{URL: u, Filename: selector.FilenameFromURL(u)})
		}

		mediaID, permalink, err := s.publishCarousel(ctx, acct, imgs, caption, req.HideLikes, req.FirstComment)
		if err != nil {
			return err
		}

		// Operator-picked items are always marked so the preview stops
		// offering them.
		if err := s.sel.MarkUsed(ctx, acct, models.ContentKindImage, req.Images); err != nil {
			slog.Info(err.Error())
		}

		s.succeed(acct, models.AccountTypeCarousel, models.RunModeManual, mediaID, permalink)
		return nil
	}

	if req.Video == "" {
		return models.NewRunError(models.ErrKindConfig, "missing 'video'")
	}

	mediaID, permalink, err := s.publishReel(ctx, acct, req.Video, caption, req.HideLikes, req.FirstComment)
	if err != nil {
		return err
	}

	if err := s.sel.MarkUsed(ctx, acct, models.ContentKindVideo, []string{req.Video}); err != nil {
		slog.Info(err.Error())
	}

	s.succeed(acct, models.AccountTypeReel, models.RunModeManual, mediaID, permalink)
	return nil
}

// publishCarousel drives the external protocol for a carousel: one child
// container per image, readiness verification for each, carousel assembly,
// assembly verification, publish, optional comment, permalink.
func (s *publishService) publishCarousel(ctx context.Context, acct *models.Account, imgs []models.Candidate, caption string, hideLikes bool, firstComment string) (string, string, error) {
	prefix := acct.StatePrefix

	accessToken, igUserID, err := ResolveCredentials(acct)
	if err != nil {
		return "", "", err
	}

	total := len(imgs)
	childIDs := make([]string, 0, total)
	for i, img := range imgs {
		s.tr.Set(prefix, models.StatusRunning, fmt.Sprintf("Uploading image %d/%d...", i+1, total))
		slog.Info("uploading carousel item", "account", acct.Name, "url", img.URL)

		cid, err := s.ig.UploadImage(ctx, igUserID, accessToken, img.URL)
		if err != nil {
			return "", "", err
		}

		s.tr.Set(prefix, models.StatusRunning, fmt.Sprintf("Verifying image %d/%d...", i+1, total))
		if err := s.ig.WaitUntilReady(ctx, cid, accessToken); err != nil {
			return "", "", err
		}
		childIDs = append(childIDs, cid)
	}

	s.tr.Set(prefix, models.StatusRunning, "Creating carousel container...")
	creationID, err := s.ig.CreateCarousel(ctx, igUserID, accessToken, childIDs, caption, hideLikes)
	if err != nil {
		return "", "", err
	}

	s.tr.Set(prefix, models.StatusRunning, "Processing carousel...")
	if err := s.ig.WaitUntilReady(ctx, creationID, accessToken); err != nil {
		return "", "", err
	}

	s.tr.Set(prefix, models.StatusRunning, "Publishing carousel...")
	mediaID, err := s.ig.PublishContainer(ctx, igUserID, accessToken, creationID)
	if err != nil {
		return "", "", err
	}

	s.comment(ctx, acct, mediaID, accessToken, firstComment)

	permalink := s.ig.FetchPermalink(ctx, mediaID, accessToken)
	return mediaID, permalink, nil
}

func (s *publishService) publishReel(ctx context.Context, acct *models.Account, videoURL, caption string, hideLikes bool, firstComment string) (string, string, error) {
	prefix := acct.StatePrefix

	accessToken, igUserID, err := ResolveCredentials(acct)
	if err != nil {
		return "", "", err
	}

	s.tr.Set(prefix, models.StatusRunning, "Uploading video...")
	slog.Info("uploading reel", "account", acct.Name, "url", videoURL)

	creationID, err := s.ig.UploadReel(ctx, igUserID, accessToken, videoURL, caption, hideLikes)
	if err != nil {
		return "", "", err
	}

	s.tr.Set(prefix, models.StatusRunning, "Processing video (this may take a while)...")
	if err := s.ig.WaitUntilReady(ctx, creationID, accessToken); err != nil {
		return "", "", err
	}

	s.tr.Set(prefix, models.StatusRunning, "Publishing reel...")
	mediaID, err := s.ig.PublishContainer(ctx, igUserID, accessToken, creationID)
	if err != nil {
		return "", "", err
	}

	s.comment(ctx, acct, mediaID, accessToken, firstComment)

	permalink := s.ig.FetchPermalink(ctx, mediaID, accessToken)
	return mediaID, permalink, nil
}

// comment posts the optional first comment. Failure never changes the run
// outcome; the media is already live at this point.
func (s *publishService) comment(ctx context.Context, acct *models.Account, mediaID, accessToken, message string) {
	if message == "" {
		return
	}

	s.tr.Set(acct.StatePrefix, models.StatusRunning, "Posting first comment...")
	if _, err := s.ig.PostComment(ctx, mediaID, accessToken, message); err != nil {
		slog.Info("failed to post comment", "account", acct.Name, "media_id", mediaID, "error", err.Error())
	}
}

func (s *publishService) succeed(acct *models.Account, mediaType, mode, mediaID, permalink string) {
	shown := permalink
	if shown == "" {
		shown = "(not available)"
	}

	msg := fmt.Sprintf("%s (%s) published\nMedia ID: %s\nPermalink: %s",
		titleFor(mediaType), mode, mediaID, shown)

	s.tr.Set(acct.StatePrefix, models.StatusSuccess, msg)
	slog.Info("published", "account", acct.Name, "media_id", mediaID, "permalink", shown)
	s.nt.NotifySuccess(acct.Name, mediaType, permalink, mediaID)
}

func titleFor(mediaType string) string {
	if mediaType == models.AccountTypeReel {
		return "Reel"
	}
	return "Carousel"
}
