package crm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"outreach-sync/internal/config"
	"outreach-sync/internal/domain"
	"outreach-sync/internal/ratelimit"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// DuplicateMarker is the phrase HubSpot puts in a 409 body for an existing email.
const DuplicateMarker = "Contact already exists"

var ErrRejected = errors.New("crm rejected contact")

type Config struct {
	Endpoint string
	Token    string
	Timeout  time.Duration

	// TokenSource, when set, is consulted until it yields a token. Token is ignored.
	TokenSource func() (string, error)
}

type Client struct {
	cfg     Config
	rc      *resty.Client
	limiter *ratelimit.HostLimiter

	mu    sync.Mutex
	token string
}

func New(cfg Config, limiter *ratelimit.HostLimiter) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	rc := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "outreach-sync/1.0")
	return &Client{cfg: cfg, rc: rc, limiter: limiter}
}

// Ready resolves the bearer token. An absent token wraps config.ErrNotConfigured.
func (c *Client) Ready() error {
	_, err := c.bearer()
	return err
}

func (c *Client) bearer() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}
	tok := c.cfg.Token
	if c.cfg.TokenSource != nil {
		var err error
		if tok, err = c.cfg.TokenSource(); err != nil {
			return "", err
		}
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return "", fmt.Errorf("%w: crm token is empty", config.ErrNotConfigured)
	}
	c.token = tok
	return tok, nil
}

type upsertBody struct {
	Properties domain.Contact `json:"properties"`
}

// Result is the outcome of one Upsert. OK covers both created and duplicate.
type Result struct {
	OK         bool
	Duplicate  bool
	StatusCode int
	Err        error
}

// Upsert creates the contact. It never returns a transport error to the caller;
// failures come back in Result.Err.
func (c *Client) Upsert(ctx context.Context, contact domain.Contact) Result {
	tok, err := c.bearer()
	if err != nil {
		return Result{Err: err}
	}
	if err := c.limiter.WaitURL(ctx, c.cfg.Endpoint); err != nil {
		return Result{Err: fmt.Errorf("crm rate wait: %w", err)}
	}

	resp, err := c.rc.R().
		SetContext(ctx).
		SetAuthToken(tok).
		SetBody(upsertBody{Properties: contact}).
		Post(c.cfg.Endpoint)
	if err != nil {
		log.Printf("[crm] connection error email=%s err=%v", contact.Email, err)
		return Result{Err: fmt.Errorf("crm post: %w", err)}
	}

	body := resp.String()
	res := Result{StatusCode: resp.StatusCode()}
	switch {
	case resp.IsSuccess():
		res.OK = true
	case IsDuplicate(body):
		res.OK = true
		res.Duplicate = true
	default:
		res.Err = fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode(), errorMessage(body))
		log.Printf("[crm] error email=%s status=%d body=%s", contact.Email, resp.StatusCode(), body)
	}
	return res
}

// IsDuplicate reports whether a response body announces an existing contact.
// TODO: match on HubSpot's 409 category/"Existing ID" instead of the message text once the API contract is pinned down.
func IsDuplicate(body string) bool {
	return strings.Contains(body, DuplicateMarker)
}

func errorMessage(body string) string {
	if gjson.Valid(body) {
		if m := gjson.Get(body, "message"); m.Exists() && m.String() != "" {
			return m.String()
		}
	}
	if len(body) > 256 {
		return body[:256]
	}
	return body
}
