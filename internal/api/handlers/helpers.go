package handlers

import (
	"context"
	"errors"

	"github.com/maheshrc27/postloop/internal/models"
	"github.com/maheshrc27/postloop/internal/repository"
)

var errInvalidAccountIndex = errors.New("invalid account index")

// accountByIndex resolves the list-position addressing used by the UI
// (accounts ordered by id, zero-based index).
func accountByIndex(ctx context.Context, ar repository.AccountRepository, idx int) (*models.Account, error) {
	accounts, err := ar.List(ctx)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(accounts) {
		return nil, errInvalidAccountIndex
	}
	return accounts[idx], nil
}
