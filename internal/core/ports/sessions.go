package ports

import (
	"context"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
)

// SessionStore keeps per-tab sessions. Update applies fn atomically; when fn
// returns an error the stored session is left unchanged.
type SessionStore interface {
	Create(ctx context.Context) (domain.Session, error)
	Get(ctx context.Context, id string) (domain.Session, error)
	Update(ctx context.Context, id string, fn func(s *domain.Session) error) (domain.Session, error)
}
