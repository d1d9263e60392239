package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/NordCoder/Sentinel/internal/config/monitor"
	"github.com/NordCoder/Sentinel/internal/domain/notification"
	"github.com/NordCoder/Sentinel/internal/obs"
	"go.uber.org/zap"
)

const (
	PhoneLength    = 10
	MaxMessageSize = 1600
)

var (
	ErrInvalidPhone   = errors.New("phone must be exactly 10 characters")
	ErrInvalidMessage = errors.New("message must be 1 to 1600 characters")
)

// Twilio sends SMS through the Twilio Messages REST endpoint.
type Twilio struct {
	client  *http.Client
	baseURL string
	sid     string
	token   string
	from    string

	log *zap.Logger
}

var _ notification.Sender = (*Twilio)(nil)

func NewTwilio(cfg config.Twilio, log *zap.Logger) *Twilio {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Twilio{
		client: &http.Client{
			Timeout:   timeout,
			Transport: obs.HTTPTransport(http.DefaultTransport, "twilio.messages"),
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		sid:     cfg.AccountSID,
		token:   cfg.AuthToken,
		from:    cfg.From,
		log:     obs.Component(log, "notifier.twilio"),
	}
}

func (t *Twilio) Send(ctx context.Context, phone, message string) error {
	phone = strings.TrimSpace(phone)
	if len(phone) != PhoneLength {
		return ErrInvalidPhone
	}
	message = strings.TrimSpace(message)
	if n := len(message); n == 0 || n > MaxMessageSize {
		return ErrInvalidMessage
	}

	form := url.Values{}
	form.Set("From", t.from)
	form.Set("To", "+1"+phone)
	form.Set("Body", message)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.baseURL, url.PathEscape(t.sid))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build twilio request: %w", err)
	}
	req.SetBasicAuth(t.sid, t.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		t.log.Error("twilio request failed", zap.Error(err))
		return fmt.Errorf("twilio request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		t.log.Error("twilio rejected message", zap.Int("status", resp.StatusCode))
		return fmt.Errorf("twilio: unexpected status %d", resp.StatusCode)
	}
	t.log.Info("sms sent", zap.Duration("elapsed", time.Since(start)))
	return nil
}
