package store

import (
	"context"
	"errors"

	"washbot/internal/source"
)

var (
	// ErrUnavailable wraps every storage failure at this boundary so callers
	// can treat persistence trouble uniformly as a transient condition.
	ErrUnavailable = errors.New("store unavailable")

	// ErrNotFound is returned for lookups of rows that do not exist.
	ErrNotFound = errors.New("not found")
)

// User is a bot subscriber.
type User struct {
	ID       int64
	Username string
	Lang     string
}

// Store is the persistence API consumed by the watcher, the delivery fan-out
// and the bot handlers. Every operation is atomic on its own; no caller
// spans a transaction across operations.
type Store interface {
	// Users.
	UpsertUser(ctx context.Context, u User) error
	UserLang(ctx context.Context, userID int64) (string, error)
	SetUserLang(ctx context.Context, userID int64, lang string) error
	// RemoveUser cascades into the user's subscriptions.
	RemoveUser(ctx context.Context, userID int64) error

	// Machine catalog.
	UpsertCatalog(ctx context.Context, machines []source.Machine) error
	Catalog(ctx context.Context) ([]source.Machine, error)

	// Subscriptions.
	Subscribers(ctx context.Context, machineID int) ([]int64, error)
	Subscriptions(ctx context.Context, userID int64) ([]int, error)
	AddSubscription(ctx context.Context, userID int64, machineID int) error
	RemoveSubscription(ctx context.Context, userID int64, machineID int) error
	// SetSubscriptions replaces the user's subscription set in one batch.
	// Calling it twice with the same set is a no-op the second time.
	SetSubscriptions(ctx context.Context, userID int64, machineIDs []int) error
	ClearSubscriptions(ctx context.Context, userID int64) error

	Close() error
}
