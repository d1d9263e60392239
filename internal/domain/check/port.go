package check

import "context"

// Repo is the engine's view of stored checks: raw records in, validated checks out.
type Repo interface {
	IDs(ctx context.Context) ([]string, error)
	Load(ctx context.Context, id string) ([]byte, error)
	Save(ctx context.Context, c *Check) error
}
