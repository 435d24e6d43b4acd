package cookies

import (
	"context"

	"github.com/dmitrijs2005/gophfeed/internal/client/models"
)

type Repository interface {
	List(ctx context.Context) ([]models.Cookie, error)
	Upsert(ctx context.Context, c models.Cookie) error
	Delete(ctx context.Context, name string) error
	Clear(ctx context.Context) error
}
