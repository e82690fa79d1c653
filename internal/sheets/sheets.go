package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"outreach-sync/internal/config"
	"outreach-sync/internal/domain"
	"outreach-sync/internal/ratelimit"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const (
	defaultEndpoint = "https://sheets.googleapis.com/"
	rawInput        = "RAW"
)

// ErrNoCredentials means the service-account key file is absent.
var ErrNoCredentials = errors.New("sheets: credentials file not found")

type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	Endpoint        string
}

// Opener builds a fresh Client per cycle so a key file dropped in later is picked up.
type Opener struct {
	cfg     Config
	limiter *ratelimit.HostLimiter
	opts    []option.ClientOption
}

func NewOpener(cfg Config, limiter *ratelimit.HostLimiter, opts ...option.ClientOption) *Opener {
	return &Opener{cfg: cfg, limiter: limiter, opts: opts}
}

func (o *Opener) Open(ctx context.Context) (*Client, error) {
	if o.cfg.SpreadsheetID == "" || o.cfg.SheetName == "" {
		return nil, fmt.Errorf("%w: sheets.spreadsheet_id and sheets.sheet_name are required", config.ErrNotConfigured)
	}
	b, err := os.ReadFile(o.cfg.CredentialsFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoCredentials, o.cfg.CredentialsFile)
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, b, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	opts := []option.ClientOption{option.WithCredentials(creds)}
	if o.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(o.cfg.Endpoint))
	}
	opts = append(opts, o.opts...)

	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewClient(svc, o.cfg, o.limiter), nil
}

type Client struct {
	svc      *gsheets.Service
	id       string
	sheet    string
	endpoint string
	limiter  *ratelimit.HostLimiter
}

func NewClient(svc *gsheets.Service, cfg Config, limiter *ratelimit.HostLimiter) *Client {
	ep := cfg.Endpoint
	if ep == "" {
		ep = defaultEndpoint
	}
	return &Client{svc: svc, id: cfg.SpreadsheetID, sheet: cfg.SheetName, endpoint: ep, limiter: limiter}
}

// ReadRows returns the data rows below the header, columns A..I.
func (c *Client) ReadRows(ctx context.Context) ([][]any, error) {
	if err := c.limiter.WaitURL(ctx, c.endpoint); err != nil {
		return nil, err
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.id, ReadRange(c.sheet)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets get %s: %w", ReadRange(c.sheet), err)
	}
	return resp.Values, nil
}

// WriteStatus overwrites the status cell of one row.
func (c *Client) WriteStatus(ctx context.Context, row int, value string) error {
	if err := c.limiter.WaitURL(ctx, c.endpoint); err != nil {
		return err
	}
	rng := StatusCell(c.sheet, row)
	vr := &gsheets.ValueRange{Values: [][]any{{value}}}
	_, err := c.svc.Spreadsheets.Values.Update(c.id, rng, vr).
		ValueInputOption(rawInput).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets update %s: %w", rng, err)
	}
	return nil
}

func ReadRange(sheet string) string {
	first := domain.HeaderRows + 1
	return fmt.Sprintf("%s!A%d:%s", quote(sheet), first, column(domain.NumColumns-1))
}

func StatusCell(sheet string, row int) string {
	return fmt.Sprintf("%s!%s%d", quote(sheet), column(domain.ColStatus), row)
}

// column only handles A..Z, which covers the read range.
func column(i int) string {
	return string(rune('A' + i))
}

func quote(sheet string) string {
	for _, r := range sheet {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
		}
	}
	return sheet
}
