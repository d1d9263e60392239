package check

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

const (
	IDLength       = 20
	PhoneLength    = 10
	MinTimeoutSecs = 1
	MaxTimeoutSecs = 5
)

// ValidationError lists every required field that failed its shape check.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("malformed check: invalid %s", strings.Join(e.Fields, ", "))
}

// Parse turns a raw stored record into a Check or rejects it.
// state and lastChecked never cause a rejection; bad values fall back to down / never checked.
func Parse(raw []byte) (*Check, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, &ValidationError{Fields: []string{"record"}}
	}

	var (
		c   = &Check{fields: fields}
		bad []string
	)

	if s, ok := stringField(fields, "id"); ok && len(strings.TrimSpace(s)) == IDLength {
		c.ID = strings.TrimSpace(s)
	} else {
		bad = append(bad, "id")
	}

	if s, ok := stringField(fields, "userPhone"); ok && isPhone(strings.TrimSpace(s)) {
		c.UserPhone = strings.TrimSpace(s)
	} else {
		bad = append(bad, "userPhone")
	}

	if s, ok := stringField(fields, "protocol"); ok && (Protocol(s) == ProtocolHTTP || Protocol(s) == ProtocolHTTPS) {
		c.Protocol = Protocol(s)
	} else {
		bad = append(bad, "protocol")
	}

	if s, ok := stringField(fields, "url"); ok && strings.TrimSpace(s) != "" {
		c.URL = strings.TrimSpace(s)
	} else {
		bad = append(bad, "url")
	}

	if s, ok := stringField(fields, "method"); ok && isMethod(Method(strings.ToUpper(s))) {
		c.Method = Method(strings.ToUpper(s))
	} else {
		bad = append(bad, "method")
	}

	if codes, ok := codesField(fields, "successCodes"); ok {
		c.SuccessCodes = codes
	} else {
		bad = append(bad, "successCodes")
	}

	if n, ok := integerField(fields, "timeoutSeconds"); ok && n >= MinTimeoutSecs && n <= MaxTimeoutSecs {
		c.TimeoutSeconds = int(n)
	} else {
		bad = append(bad, "timeoutSeconds")
	}

	if len(bad) > 0 {
		return nil, &ValidationError{Fields: bad}
	}

	c.State = StateDown
	if s, ok := stringField(fields, "state"); ok && (State(s) == StateUp || State(s) == StateDown) {
		c.State = State(s)
	}
	if n, ok := integerField(fields, "lastChecked"); ok && n > 0 {
		c.LastChecked = n
	}
	return c, nil
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// integerField accepts any JSON number without a fractional part (5 and 5.0 alike).
func integerField(fields map[string]json.RawMessage, key string) (int64, bool) {
	raw, ok := fields[key]
	if !ok {
		return 0, false
	}
	return integer(raw)
}

func integer(raw json.RawMessage) (int64, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	num, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	if n, err := num.Int64(); err == nil {
		return n, true
	}
	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func codesField(fields map[string]json.RawMessage, key string) ([]int, bool) {
	raw, ok := fields[key]
	if !ok {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return nil, false
	}
	codes := make([]int, 0, len(items))
	for _, it := range items {
		n, ok := integer(it)
		if !ok {
			return nil, false
		}
		codes = append(codes, int(n))
	}
	return codes, true
}

func isPhone(s string) bool {
	if len(s) != PhoneLength {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isMethod(m Method) bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return true
	}
	return false
}
