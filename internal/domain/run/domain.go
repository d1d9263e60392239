package run

import "github.com/NordCoder/Sentinel/internal/domain/check"

// ErrTimeout is the error text of an outcome whose deadline fired first.
const ErrTimeout = "timeout"

// Outcome is the single result of one probe attempt.
type Outcome struct {
	Error        string `json:"error,omitempty"`
	ResponseCode int    `json:"responseCode,omitempty"`
	LatencyMS    int64  `json:"latencyMs"`

	Cause error `json:"-"`
}

func (o Outcome) Failed() bool { return o.Error != "" }

// Entry is one line of a check's log.
type Entry struct {
	Check   *check.Check `json:"check"`
	Outcome Outcome      `json:"outcome"`
	State   check.State  `json:"state"`
	Alert   bool         `json:"alert"`
	Time    int64        `json:"time"`
	CycleID string       `json:"cycleId,omitempty"`
}
