package repo

import (
	"context"
	"fmt"

	"github.com/NordCoder/Sentinel/internal/domain/check"
	"github.com/NordCoder/Sentinel/internal/domain/record"
)

// CheckRepo exposes the checks collection of a record store to the engine.
type CheckRepo struct {
	Store record.Store
}

var _ check.Repo = CheckRepo{}

func (r CheckRepo) IDs(ctx context.Context) ([]string, error) {
	return r.Store.List(ctx, check.Collection)
}

func (r CheckRepo) Load(ctx context.Context, id string) ([]byte, error) {
	return r.Store.Read(ctx, check.Collection, id)
}

func (r CheckRepo) Save(ctx context.Context, c *check.Check) error {
	data, err := c.Encode()
	if err != nil {
		return fmt.Errorf("encode check %s: %w", c.ID, err)
	}
	return r.Store.Update(ctx, check.Collection, c.ID, data)
}
