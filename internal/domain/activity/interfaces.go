package activity

import "context"

// Repository provides persistence operations for activity entries.
type Repository interface {
	Log(ctx context.Context, entry *ActivityEntry) error
	List(ctx context.Context, opts ListActivityOptions) ([]ActivityEntry, error)
}

// Publisher fans activity entries out to external consumers.
type Publisher interface {
	Publish(ctx context.Context, entry ActivityEntry) error
}
