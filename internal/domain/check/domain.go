package check

import (
	"encoding/json"
	"slices"
	"time"
)

// Collection is the record-store collection holding check records.
const Collection = "checks"

type State string

const (
	StateUp   State = "up"
	StateDown State = "down"
)

type Protocol string

const (
	ProtocolHTTP  Protocol = "http"
	ProtocolHTTPS Protocol = "https"
)

type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

// Check is a validated check record. Values of this type only come out of Parse.
type Check struct {
	ID             string   `json:"id"`
	UserPhone      string   `json:"userPhone"`
	Protocol       Protocol `json:"protocol"`
	URL            string   `json:"url"`
	Method         Method   `json:"method"`
	SuccessCodes   []int    `json:"successCodes"`
	TimeoutSeconds int      `json:"timeoutSeconds"`
	State          State    `json:"state"`
	// LastChecked is epoch milliseconds; zero means never probed.
	LastChecked int64 `json:"lastChecked,omitempty"`

	// the record as stored; a rewrite only replaces state and lastChecked
	fields map[string]json.RawMessage
}

func (c *Check) Target() string { return string(c.Protocol) + "://" + c.URL }

func (c *Check) Timeout() time.Duration { return time.Duration(c.TimeoutSeconds) * time.Second }

func (c *Check) HasBeenChecked() bool { return c.LastChecked > 0 }

func (c *Check) Accepts(code int) bool { return slices.Contains(c.SuccessCodes, code) }

// Observe returns a copy of c carrying the result of a completed probe.
func (c *Check) Observe(state State, at time.Time) *Check {
	cp := *c
	cp.SuccessCodes = slices.Clone(c.SuccessCodes)
	cp.State = state
	cp.LastChecked = at.UnixMilli()
	return &cp
}

// Encode renders the record back to JSON. Every stored key other than state and
// lastChecked is written back exactly as it was read.
func (c *Check) Encode() ([]byte, error) {
	out := make(map[string]any, len(c.fields)+9)
	if c.fields == nil {
		out["id"] = c.ID
		out["userPhone"] = c.UserPhone
		out["protocol"] = c.Protocol
		out["url"] = c.URL
		out["method"] = c.Method
		out["successCodes"] = c.SuccessCodes
		out["timeoutSeconds"] = c.TimeoutSeconds
	}
	for k, v := range c.fields {
		out[k] = v
	}
	out["state"] = c.State
	if c.LastChecked > 0 {
		out["lastChecked"] = c.LastChecked
	} else {
		delete(out, "lastChecked")
	}
	return json.Marshal(out)
}
