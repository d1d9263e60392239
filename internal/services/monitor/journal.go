package monitor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NordCoder/Sentinel/internal/domain/run"
)

// Journal appends entries to the log of their check as newline-delimited JSON.
type Journal struct {
	Logs run.LogStore
}

func (j Journal) Write(ctx context.Context, e run.Entry) error {
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	line = append(line, '\n')
	return j.Logs.Append(ctx, e.Check.ID, line)
}
