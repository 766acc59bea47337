package job

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	config "github.com/maheshrc27/postloop/configs"
	"github.com/maheshrc27/postloop/internal/models"
	"github.com/maheshrc27/postloop/internal/repository"
)

const expiryWarningWindow = 7 * 24 * time.Hour

type ExpiryNotifier interface {
	NotifyCustom(message string) bool
}

// TokenWatchJob introspects every account's long-lived token via the Graph
// API debug endpoint, records the real expiry on the account row, and warns
// through the notification sink when a token is about to lapse. Tokens
// themselves live in env vars, so the job observes and alerts rather than
// rotating them.
type TokenWatchJob struct {
	cfg    config.Config
	ar     repository.AccountRepository
	nt     ExpiryNotifier
	client *http.Client
}

func NewTokenWatchJob(cfg config.Config, ar repository.AccountRepository, nt ExpiryNotifier) *TokenWatchJob {
	return &TokenWatchJob{
		cfg:    cfg,
		ar:     ar,
		nt:     nt,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (j *TokenWatchJob) CheckTokens() {
	ctx := context.Background()

	if j.cfg.FacebookAppID == "" || j.cfg.FacebookAppSecret == "" {
		return
	}

	accounts, err := j.ar.List(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 5)

	for _, acct := range accounts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(acct *models.Account) {
			defer wg.Done()
			defer func() { <-semaphore }()

			expiresAt, err := j.introspect(ctx, acct)
			if err != nil {
				slog.Info("token introspection failed", "account", acct.Name, "error", err.Error())
				return
			}

			if err := j.ar.SetTokenExpiry(ctx, acct.ID, expiresAt); err != nil {
				slog.Info(err.Error())
			}
		}(acct)
	}

	wg.Wait()

	expiring, err := j.ar.ListExpiring(ctx, time.Now().Add(expiryWarningWindow))
	if err != nil {
		slog.Info(err.Error())
		return
	}
	for _, acct := range expiring {
		if acct.TokenExpiresAt.IsZero() {
			continue
		}
		j.nt.NotifyCustom(fmt.Sprintf("<b>%s</b>\nAccess token expires %s. Re-issue it soon.",
			acct.Name, acct.TokenExpiresAt.Format("2006-01-02 15:04")))
	}
}

func (j *TokenWatchJob) introspect(ctx context.Context, acct *models.Account) (time.Time, error) {
	if acct.AccessTokenEnv == "" {
		return time.Time{}, fmt.Errorf("account %s has no access_token_env", acct.Name)
	}
	token := os.Getenv(acct.AccessTokenEnv)
	if token == "" {
		return time.Time{}, fmt.Errorf("missing environment var %s", acct.AccessTokenEnv)
	}

	appToken := fmt.Sprintf("%s|%s", j.cfg.FacebookAppID, j.cfg.FacebookAppSecret)
	reqURL := fmt.Sprintf("%s/debug_token?input_token=%s&access_token=%s",
		strings.TrimRight(j.cfg.GraphAPIBase, "/"),
		url.QueryEscape(token), url.QueryEscape(appToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return time.Time{}, err
	}

	resp, err := j.client.Do(req)
	if err != nil {
		return time.Time{}, err
	}
	defer resp.Body.Close()

	var result struct {
		Data struct {
			IsValid   bool  `json:"is_valid"`
			ExpiresAt int64 `json:"expires_at"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return time.Time{}, err
	}

	if !result.Data.IsValid {
		return time.Time{}, fmt.Errorf("token for %s is no longer valid", acct.Name)
	}
	if result.Data.ExpiresAt == 0 {
		// Never-expiring tokens exist; report a far-future expiry.
		return time.Now().Add(365 * 24 * time.Hour), nil
	}

	return time.Unix(result.Data.ExpiresAt, 0), nil
}
