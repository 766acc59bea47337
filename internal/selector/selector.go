package selector

import (
	"bufio"
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maheshrc27/postloop/internal/catalog"
	"github.com/maheshrc27/postloop/internal/models"
	"github.com/maheshrc27/postloop/internal/state"
	"github.com/maheshrc27/postloop/internal/transfer"
)

const (
	defaultMaxImages = 10000
	defaultMaxVideos = 200

	// Probe budget per random selection call. Probe misses are dropped from
	// the in-call pool only; they are never marked used.
	maxProbeAttempts = 50
)

// Prober answers whether a candidate URL actually exists on the remote
// host. Transport failures count as absent.
type Prober interface {
	Exists(ctx context.Context, url string) bool
}

type HTTPProber struct {
	client *http.Client
}

func NewHTTPProber() *HTTPProber {
	return &HTTPProber{client: &http.Client{Timeout: 10 * time.Second}}
}

func (p *HTTPProber) Exists(ctx context.Context, target string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Selector implements the two selection strategies over the catalog and the
// rotation state: sequential pointer advance for manual runs, random-unused
// with existence probing for scheduled runs.
type Selector struct {
	st *state.Store
	pr Prober
	hc *http.Client
}

func NewSelector(st *state.Store, pr Prober) *Selector {
	return &Selector{
		st: st,
		pr: pr,
		hc: &http.Client{Timeout: 5 * time.Minute},
	}
}

func maxItems(acct *models.Account, kind string) int {
	if acct.MaxImages > 0 {
		return acct.MaxImages
	}
	if kind == models.ContentKindVideo {
		return defaultMaxVideos
	}
	return defaultMaxImages
}

func (s *Selector) fetchCaptionLines(ctx context.Context, acct *models.Account) ([]string, error) {
	if acct.CaptionURL == "" {
		return nil, models.NewRunError(models.ErrKindConfig, "account %s has no caption_url", acct.Name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, acct.CaptionURL, nil)
	if err != nil {
		return nil, models.NewRunError(models.ErrKindTransient, "failed to fetch caption_url %s: %v", acct.CaptionURL, err)
	}

	resp, err := s.hc.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, models.NewRunError(models.ErrKindTransient, "failed to fetch caption_url %s: %v", acct.CaptionURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, models.NewRunError(models.ErrKindUpstream, "failed to fetch caption_url %s: status %d", acct.CaptionURL, resp.StatusCode)
	}

	var lines []string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, models.NewRunError(models.ErrKindTransient, "failed to read caption_url %s: %v", acct.CaptionURL, err)
	}

	return lines, nil
}

// NextCaption returns the caption at the current pointer and advances it.
// Captions rotate sequentially in every run mode.
func (s *Selector) NextCaption(ctx context.Context, acct *models.Account) (string, error) {
	lines, err := s.fetchCaptionLines(ctx, acct)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", models.NewRunError(models.ErrKindContentUnavailable, "caption list is empty")
	}

	idx := s.st.LoadIndex(ctx, acct.StatePrefix, models.RotationKeyCaption)
	caption := lines[idx%len(lines)]

	if err := s.st.SaveIndex(acct.StatePrefix, models.RotationKeyCaption, idx+1, true); err != nil {
		return "", err
	}
	return caption, nil
}

// PeekCaption returns the caption at the current pointer without advancing.
func (s *Selector) PeekCaption(ctx context.Context, acct *models.Account) (string, error) {
	lines, err := s.fetchCaptionLines(ctx, acct)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", nil
	}

	idx := s.st.LoadIndex(ctx, acct.StatePrefix, models.RotationKeyCaption)
	return lines[idx%len(lines)], nil
}

// NextImages picks slides_per_post consecutive catalog entries after the
// stored pointer, wrapping modulo max_images, and advances the pointer.
// Sequential selection never consults the used-sets.
func (s *Selector) NextImages(ctx context.Context, acct *models.Account) ([]models.Candidate, error) {
	if acct.BaseURL == "" {
		return nil, models.NewRunError(models.ErrKindConfig, "missing base_url for carousel")
	}

	count := acct.SlidesPerPost
	if count < 1 {
		count = 1
	}
	max := maxItems(acct, models.ContentKindImage)
	last := s.st.LoadIndex(ctx, acct.StatePrefix, models.RotationKeyImage)

	candidates := make([]models.Candidate, 0, count)
	for i := 1; i <= count; i++ {
		imgIndex := ((last + i - 1) % max) + 1
		name := catalog.ImageName(imgIndex)
		candidates = append(candidates, models.Candidate{
			URL:      catalog.ItemURL(acct.BaseURL, name, acct.EncodingVariant),
			Filename: name,
		})
	}

	// Pointer stays 1-based: after selecting the last catalog entry it
	// stores max, and the next call wraps to 1.
	next := ((last + count - 1) % max) + 1
	if err := s.st.SaveIndex(acct.StatePrefix, models.RotationKeyImage, next, true); err != nil {
		return nil, err
	}

	return candidates, nil
}

func (s *Selector) baseFor(acct *models.Account, kind string) string {
	if kind == models.ContentKindVideo {
		return acct.VideoBaseURL
	}
	return acct.BaseURL
}

// RandomCandidate draws a uniformly random not-yet-used catalog entry and
// accepts the first one whose URL answers the existence probe. When the
// whole catalog is used, the used-set is reset first (full exhaustion).
func (s *Selector) RandomCandidate(ctx context.Context, acct *models.Account, kind string) (*models.Candidate, error) {
	base := s.baseFor(acct, kind)
	if base == "" {
		return nil, models.NewRunError(models.ErrKindConfig, "missing base url for %s content", kind)
	}

	prefix := acct.StatePrefix
	items := catalog.Names(kind, maxItems(acct, kind))
	if len(items) == 0 {
		return nil, models.NewRunError(models.ErrKindContentUnavailable, "catalog for %s is empty", kind)
	}

	usedSet := make(map[string]struct{})
	for _, u := range s.st.LoadUsed(ctx, prefix, kind) {
		usedSet[u] = struct{}{}
	}

	unused := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := usedSet[it]; !ok {
			unused = append(unused, it)
		}
	}

	if len(unused) == 0 {
		slog.Info("all content used, resetting used list", "account", acct.Name, "kind", kind)
		if err := s.st.SaveUsed(prefix, kind, []string{}, true); err != nil {
			return nil, err
		}
		unused = append(unused, items...)
	}

	for attempts := 0; attempts < maxProbeAttempts; attempts++ {
		if len(unused) == 0 {
			break
		}

		pick := rand.Intn(len(unused))
		name := unused[pick]
		target := catalog.ItemURL(base, name, acct.EncodingVariant)

		if s.pr.Exists(ctx, target) {
			return &models.Candidate{URL: target, Filename: name}, nil
		}

		slog.Info("candidate not found on host, retrying", "account", acct.Name, "filename", name)
		unused = append(unused[:pick], unused[pick+1:]...)
	}

	return nil, models.NewRunError(models.ErrKindNoCandidate, "could not find any valid %s content after %d checks", kind, maxProbeAttempts)
}

// RandomImages draws count random-unused images. Duplicate draws are
// collapsed, so the result can hold fewer entries than requested.
func (s *Selector) RandomImages(ctx context.Context, acct *models.Account, count int) ([]models.Candidate, error) {
	if count < 1 {
		count = 1
	}

	seen := make(map[string]struct{})
	var picked []models.Candidate
	for i := 0; i < count; i++ {
		cand, err := s.RandomCandidate(ctx, acct, models.ContentKindImage)
		if err != nil {
			if len(picked) > 0 {
				break
			}
			return nil, err
		}
		if _, ok := seen[cand.Filename]; ok {
			continue
		}
		seen[cand.Filename] = struct{}{}
		picked = append(picked, *cand)
	}

	if len(picked) == 0 {
		return nil, models.NewRunError(models.ErrKindNoCandidate, "no random images available")
	}
	return picked, nil
}

// MarkUsed records filenames as consumed for the kind. Called only after a
// successful publish, and only for random-mode selections.
func (s *Selector) MarkUsed(ctx context.Context, acct *models.Account, kind string, urls []string) error {
	usedSet := make(map[string]struct{})
	used := s.st.LoadUsed(ctx, acct.StatePrefix, kind)
	for _, u := range used {
		usedSet[u] = struct{}{}
	}

	for _, u := range urls {
		name := FilenameFromURL(u)
		if _, ok := usedSet[name]; !ok {
			usedSet[name] = struct{}{}
			used = append(used, name)
		}
	}

	return s.st.SaveUsed(acct.StatePrefix, kind, used, true)
}

// FilenameFromURL recovers the catalog filename from a composed URL,
// undoing the percent-encoding applied at URL-construction time.
func FilenameFromURL(u string) string {
	segment := u
	if i := strings.LastIndex(u, "/"); i >= 0 {
		segment = u[i+1:]
	}
	if decoded, err := url.PathUnescape(segment); err == nil {
		return decoded
	}
	return segment
}

// PreviewImages returns a stable-ordered, non-destructive page of image
// candidates starting after the current sequential pointer. It never
// advances rotation state.
func (s *Selector) PreviewImages(ctx context.Context, acct *models.Account, page, pageSize int, includeUsed bool) transfer.PreviewPage {
	result := transfer.PreviewPage{Items: []models.Candidate{}, HasMore: true}
	if acct.AccountType != models.AccountTypeCarousel || acct.BaseURL == "" {
		result.HasMore = false
		return result
	}
	if page < 1 {
		page = 1
	}

	last := s.st.LoadIndex(ctx, acct.StatePrefix, models.RotationKeyImage)
	usedSet := make(map[string]struct{})
	for _, u := range s.st.LoadUsed(ctx, acct.StatePrefix, models.ContentKindImage) {
		usedSet[u] = struct{}{}
	}

	max := maxItems(acct, models.ContentKindImage)
	result.TotalItems = max

	startIdx := last + 1 + (page-1)*pageSize
	endIdx := startIdx + pageSize - 1
	if endIdx > max {
		endIdx = max
	}
	for i := startIdx; i <= endIdx; i++ {
		name := catalog.ImageName(i)
		_, used := usedSet[name]
		if used && !includeUsed {
			// Extend the window past skipped entries, never past the
			// catalog end.
			if endIdx < max {
				endIdx++
			}
			if endIdx-startIdx > pageSize*3 {
				break
			}
			continue
		}
		result.Items = append(result.Items, models.Candidate{
			URL:      catalog.ItemURL(acct.BaseURL, name, acct.EncodingVariant),
			Filename: name,
			Used:     used,
		})
		if len(result.Items) >= pageSize {
			break
		}
	}

	result.HasMore = len(result.Items) >= pageSize
	return result
}

// PreviewVideos returns a page of video candidates filtered by the used-set
// unless includeUsed is set. Never advances rotation state.
func (s *Selector) PreviewVideos(ctx context.Context, acct *models.Account, page, pageSize int, includeUsed bool) transfer.PreviewPage {
	result := transfer.PreviewPage{Items: []models.Candidate{}}
	if acct.AccountType != models.AccountTypeReel || acct.VideoBaseURL == "" {
		return result
	}
	if page < 1 {
		page = 1
	}

	usedSet := make(map[string]struct{})
	for _, u := range s.st.LoadUsed(ctx, acct.StatePrefix, models.ContentKindVideo) {
		usedSet[u] = struct{}{}
	}

	allFiles := catalog.VideoNames(maxItems(acct, models.ContentKindVideo))
	ordered := allFiles
	if !includeUsed {
		ordered = make([]string, 0, len(allFiles))
		for _, f := range allFiles {
			if _, ok := usedSet[f]; !ok {
				ordered = append(ordered, f)
			}
		}
	}

	total := len(ordered)
	result.TotalItems = total
	if total == 0 {
		return result
	}

	start := (page - 1) * pageSize
	if start >= total {
		return result
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	for _, name := range ordered[start:end] {
		_, used := usedSet[name]
		result.Items = append(result.Items, models.Candidate{
			URL:      catalog.ItemURL(acct.VideoBaseURL, name, acct.EncodingVariant),
			Filename: name,
			Used:     used,
		})
	}
	result.HasMore = end < total
	return result
}

// NextVideo is the sequential strategy for reels: the first unused video in
// catalog order, resetting the used-set when everything has been consumed.
func (s *Selector) NextVideo(ctx context.Context, acct *models.Account) (*models.Candidate, error) {
	if acct.VideoBaseURL == "" {
		return nil, models.NewRunError(models.ErrKindConfig, "missing video_base_url for reel")
	}

	pick := func() *models.Candidate {
		page := s.PreviewVideos(ctx, acct, 1, 1, false)
		if len(page.Items) == 0 {
			return nil
		}
		return &page.Items[0]
	}

	cand := pick()
	if cand == nil {
		slog.Info("all content used, resetting used list", "account", acct.Name, "kind", models.ContentKindVideo)
		if err := s.st.SaveUsed(acct.StatePrefix, models.ContentKindVideo, []string{}, true); err != nil {
			return nil, err
		}
		cand = pick()
	}
	if cand == nil {
		return nil, models.NewRunError(models.ErrKindContentUnavailable, "no content available")
	}
	return cand, nil
}
