// Package loginflag keeps the durable "was logged in" hint. It survives
// restarts and is only ever a hint: the reconciler confirms it against the
// server before a session is restored.
package loginflag

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophfeed/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophfeed/internal/common"
)

const (
	valueTrue  = "true"
	valueFalse = "false"
)

// Flag is the durable login hint.
type Flag interface {
	MarkLoggedIn(ctx context.Context) error
	MarkLoggedOut(ctx context.Context) error
	IsLoggedIn(ctx context.Context) (bool, error)
}

type metadataFlag struct {
	repo metadata.Repository
}

// New returns a Flag stored under common.LoggedInKey in repo.
func New(repo metadata.Repository) Flag {
	return &metadataFlag{repo: repo}
}

func (f *metadataFlag) MarkLoggedIn(ctx context.Context) error {
	if err := f.repo.Set(ctx, common.LoggedInKey, []byte(valueTrue)); err != nil {
		return fmt.Errorf("mark logged in: %w", err)
	}
	return nil
}

func (f *metadataFlag) MarkLoggedOut(ctx context.Context) error {
	if err := f.repo.Set(ctx, common.LoggedInKey, []byte(valueFalse)); err != nil {
		return fmt.Errorf("mark logged out: %w", err)
	}
	return nil
}

// IsLoggedIn reports true only for the exact stored value "true"; an absent
// key or anything else reads as false.
func (f *metadataFlag) IsLoggedIn(ctx context.Context) (bool, error) {
	v, err := f.repo.Get(ctx, common.LoggedInKey)
	if err != nil {
		return false, fmt.Errorf("read login flag: %w", err)
	}
	return string(v) == valueTrue, nil
}
