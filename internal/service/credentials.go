package service

import (
	"os"

	"github.com/maheshrc27/postloop/internal/models"
)

// ResolveCredentials resolves an account's access token and platform user id
// through the env-var indirection named in its config. Raw secrets never
// live in the account row.
func ResolveCredentials(acct *models.Account) (accessToken, igUserID string, err error) {
	if acct.AccessTokenEnv == "" || acct.IGUserIDEnv == "" {
		return "", "", models.NewRunError(models.ErrKindConfig, "config missing 'access_token_env' or 'ig_user_id_env'")
	}

	accessToken = os.Getenv(acct.AccessTokenEnv)
	if accessToken == "" {
		return "", "", models.NewRunError(models.ErrKindCredential, "missing environment var %s", acct.AccessTokenEnv)
	}

	igUserID = os.Getenv(acct.IGUserIDEnv)
	if igUserID == "" {
		return "", "", models.NewRunError(models.ErrKindCredential, "missing environment var %s", acct.IGUserIDEnv)
	}

	return accessToken, igUserID, nil
}
