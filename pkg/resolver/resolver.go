package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/logger"
)

// Identity is what a provider event says about who it belongs to.
type Identity struct {
	CustomerID     string
	MetadataUserID string
}

// Directory is the slice of billing.Store the resolver needs.
type Directory interface {
	Get(ctx context.Context, userID string) (billing.Record, error)
	FindByCustomer(ctx context.Context, customerID string) (billing.Record, error)
	LinkCustomer(ctx context.Context, userID, customerID string) error
}

// Resolution is a successful attribution.
type Resolution struct {
	UserID string
	// Linked is true when this call created the customer link.
	Linked bool
}

// Resolver maps identities to users.
type Resolver struct {
	dir    Directory
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New returns a Resolver over dir.
func New(dir Directory, opts ...Option) *Resolver {
	r := &Resolver{dir: dir, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve attributes id to a user.
func (r *Resolver) Resolve(ctx context.Context, id Identity) (Resolution, error) {
	if id.CustomerID != "" {
		rec, err := r.dir.FindByCustomer(ctx, id.CustomerID)
		switch {
		case err == nil:
			if id.MetadataUserID != "" && id.MetadataUserID != rec.UserID {
				return Resolution{}, fmt.Errorf("%w: customer %s linked to %s, metadata names %s",
					ErrIdentityMismatch, id.CustomerID, rec.UserID, id.MetadataUserID)
			}
			return Resolution{UserID: rec.UserID}, nil
		case !errors.Is(err, billing.ErrRecordNotFound):
			return Resolution{}, fmt.Errorf("find user by customer: %w", err)
		}
	}

	if id.MetadataUserID == "" {
		return Resolution{}, fmt.Errorf("%w: customer %q has no linked user and no metadata", ErrUnresolved, id.CustomerID)
	}

	rec, err := r.dir.Get(ctx, id.MetadataUserID)
	if errors.Is(err, billing.ErrRecordNotFound) {
		return Resolution{}, fmt.Errorf("%w: metadata user %q does not exist", ErrUnresolved, id.MetadataUserID)
	}
	if err != nil {
		return Resolution{}, fmt.Errorf("get metadata user: %w", err)
	}

	if id.CustomerID == "" || rec.ExternalCustomerID == id.CustomerID {
		return Resolution{UserID: rec.UserID}, nil
	}

	if err := r.dir.LinkCustomer(ctx, rec.UserID, id.CustomerID); err != nil {
		if errors.Is(err, billing.ErrCustomerConflict) {
			return Resolution{}, errors.Join(ErrIdentityMismatch, err)
		}
		return Resolution{}, fmt.Errorf("link customer: %w", err)
	}

	r.logger.LogAttrs(ctx, slog.LevelInfo, "linked billing customer to user",
		logger.Component("resolver"),
		logger.UserID(rec.UserID),
		logger.CustomerID(id.CustomerID),
	)
	return Resolution{UserID: rec.UserID, Linked: true}, nil
}
