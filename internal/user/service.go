package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/victornm/techbridge/internal/domain"
	"github.com/victornm/techbridge/internal/errors"
	"github.com/victornm/techbridge/internal/event"
)

const defaultName = "User"

// Store persists users. Create must not overwrite an existing user.
type Store interface {
	// Create inserts u unless a user with the same id exists and reports whether it did.
	Create(ctx context.Context, u domain.User) (bool, error)
	// Get returns the user or CodeNotFound.
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type Config struct {
	Store    Store
	EventBus *event.Bus
	Now      func() time.Time
}

type Service struct {
	store Store
	eb    *event.Bus
	now   func() time.Time
}

func NewService(c Config) *Service {
	s := &Service{
		store: c.Store,
		eb:    c.EventBus,
		now:   c.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

type SyncRequest struct {
	Identity domain.Identity
}

// Sync creates the user of a verified identity on first sign-in. An existing user is returned
// unchanged, profile changes at the identity provider are not copied.
func (s *Service) Sync(ctx context.Context, req SyncRequest) (*domain.User, error) {
	id := req.Identity
	if id.Subject == "" {
		return nil, errors.New(errors.CodeUnauthenticated, errors.WithMessagef("identity has no subject"))
	}

	name := strings.TrimSpace(id.Name)
	if name == "" {
		name = defaultName
	}

	created, err := s.store.Create(ctx, domain.User{
		UserID:     id.Subject,
		Name:       name,
		Email:      id.Email,
		Picture:    id.Picture,
		CreateTime: s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	u, err := s.store.Get(ctx, id.Subject)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if created {
		slog.InfoContext(ctx, "user: created", "user_id", u.UserID)
		s.eb.Publish(ctx, domain.EventUserCreated{User: *u})
	}

	return u, nil
}

func (s *Service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.store.Get(ctx, userID)
}
