package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/NordCoder/Sentinel/internal/domain/check"
)

// Alert describes a state transition of a check that its owner has to hear about.
type Alert struct {
	CheckID  string
	Phone    string
	Method   check.Method
	Target   string
	Previous check.State
	State    check.State
	At       time.Time
}

func NewAlert(prev, cur *check.Check, at time.Time) Alert {
	return Alert{
		CheckID:  cur.ID,
		Phone:    cur.UserPhone,
		Method:   cur.Method,
		Target:   cur.Target(),
		Previous: prev.State,
		State:    cur.State,
		At:       at,
	}
}

// Message is the human readable text sent to the user.
func (a Alert) Message() string {
	return fmt.Sprintf("Alert: Your check for %s %s is currently %s",
		strings.ToUpper(string(a.Method)), a.Target, a.State)
}

type Clock interface {
	Now() time.Time
}
