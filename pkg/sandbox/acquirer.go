package sandbox

import "context"

// Acquirer abstracts how a turn obtains its interpreter session.
// Implementations exist for a static service URL (development, shared
// sandbox service) and for per-turn sandbox pods (kubernetes subpackage).
type Acquirer interface {
	// Acquire opens a session for one turn. The caller must Close the
	// returned session unconditionally when the turn completes.
	Acquire(ctx context.Context) (*Session, error)
}

// StaticAcquirer opens sessions against a fixed sandbox service.
type StaticAcquirer struct {
	client *Client
}

// NewStaticAcquirer creates an Acquirer backed by the given client.
func NewStaticAcquirer(c *Client) *StaticAcquirer {
	return &StaticAcquirer{client: c}
}

// Acquire opens a new session on the configured service.
func (a *StaticAcquirer) Acquire(ctx context.Context) (*Session, error) {
	return a.client.NewSession(ctx)
}
