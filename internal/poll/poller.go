package poll

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"outreach-sync/internal/config"
	"outreach-sync/internal/crm"
	"outreach-sync/internal/domain"
	"outreach-sync/internal/scheduler"
	"outreach-sync/internal/sheets"

	"github.com/google/uuid"
)

type Sheet interface {
	ReadRows(ctx context.Context) ([][]any, error)
	WriteStatus(ctx context.Context, row int, value string) error
}

// OpenSheet connects to the sheet for one cycle.
type OpenSheet func(ctx context.Context) (Sheet, error)

type Pusher interface {
	// Ready reports whether the pusher has what it needs, such as a token.
	Ready() error
	Upsert(ctx context.Context, c domain.Contact) crm.Result
}

type Recorder interface {
	RecordReport(ctx context.Context, r Report) error
}

// SheetsOpener adapts a sheets.Opener to OpenSheet.
func SheetsOpener(o *sheets.Opener) OpenSheet {
	return func(ctx context.Context) (Sheet, error) {
		c, err := o.Open(ctx)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

type Syncer struct {
	open     OpenSheet
	crm      Pusher
	recorder Recorder
	interval time.Duration
	now      func() time.Time

	last atomic.Value // stores Report
}

type Option func(*Syncer)

func WithRecorder(r Recorder) Option { return func(s *Syncer) { s.recorder = r } }

func WithClock(now func() time.Time) Option { return func(s *Syncer) { s.now = now } }

func NewSyncer(open OpenSheet, pusher Pusher, interval time.Duration, opts ...Option) *Syncer {
	s := &Syncer{open: open, crm: pusher, interval: interval, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run polls until ctx is cancelled. The first cycle starts immediately.
func (s *Syncer) Run(ctx context.Context) {
	log.Printf("[sync] started interval=%s", s.interval)
	scheduler.Every(ctx, s.interval, "sync", func(ctx context.Context) error {
		log.Printf("[sync] checking sheet at %s", s.now().Format(time.RFC3339))
		rep, err := s.RunOnce(ctx)
		switch {
		case errors.Is(err, sheets.ErrNoCredentials), errors.Is(err, config.ErrNotConfigured):
			log.Printf("[sync] skipped: %v", err)
			return nil
		case errors.Is(err, context.Canceled) && ctx.Err() != nil:
			log.Printf("[sync] interrupted run=%s rows_done=%d marked=%d", rep.ID, len(rep.Rows), rep.Marked())
			return nil
		case err != nil:
			return err
		}
		log.Printf("[sync] ok run=%s rows=%d marked=%d failed=%d dur_ms=%d",
			rep.ID, rep.RowsRead, rep.Marked(), rep.Failed(), rep.Duration().Milliseconds())
		return nil
	})
	log.Printf("[sync] stopped")
}

// Last returns the most recent cycle report.
func (s *Syncer) Last() (Report, bool) {
	r, ok := s.last.Load().(Report)
	return r, ok
}

// RunOnce performs one cycle. The returned error is the cycle-level failure
// (missing credentials or settings, read error); row failures live in the Report.
//
// Calls within a row are not cut short by ctx, so a contact pushed to the CRM
// still gets its status written. ctx is checked between rows.
func (s *Syncer) RunOnce(ctx context.Context) (rep Report, err error) {
	rep = Report{ID: uuid.NewString(), StartedAt: s.now()}
	defer func() {
		rep.FinishedAt = s.now()
		rep.Err = err
		s.last.Store(rep)
		s.record(ctx, rep)
	}()

	work := context.WithoutCancel(ctx)

	sheet, err := s.open(work)
	if err != nil {
		return rep, err
	}
	if err := s.crm.Ready(); err != nil {
		return rep, err
	}

	rows, err := sheet.ReadRows(work)
	if err != nil {
		return rep, fmt.Errorf("read rows: %w", err)
	}
	rep.RowsRead = len(rows)

	for i, cells := range rows {
		if err := ctx.Err(); err != nil {
			return rep, fmt.Errorf("stopped before row %d: %w", domain.RowNumber(i), err)
		}

		c, ok := domain.ParseRow(i, cells)
		if !ok {
			rep.Malformed++
			continue
		}
		rep.Rows = append(rep.Rows, s.syncRow(work, sheet, c))
	}
	return rep, nil
}

func (s *Syncer) syncRow(ctx context.Context, sheet Sheet, c domain.Candidate) RowResult {
	res := RowResult{Row: c.Row, Email: c.Email, Company: c.Company}

	if reason := c.Skip(); reason != domain.SkipNone {
		res.Outcome = OutcomeSkipped
		res.Skip = reason
		return res
	}

	log.Printf("[sync] new candidate row=%d name=%q company=%q", c.Row, c.FirstName, c.Company)

	up := s.crm.Upsert(ctx, c.Contact())
	if !up.OK {
		res.Outcome = OutcomeCRMFailed
		res.Err = up.Err
		if res.Err == nil {
			res.Err = crm.ErrRejected
		}
		log.Printf("[sync] crm push failed row=%d email=%s err=%v", c.Row, c.Email, res.Err)
		return res
	}

	if err := sheet.WriteStatus(ctx, c.Row, domain.StatusSent); err != nil {
		res.Outcome = OutcomeMarkFailed
		res.Err = err
		log.Printf("[sync] mark failed row=%d email=%s err=%v", c.Row, c.Email, err)
		return res
	}

	res.Outcome = OutcomeSent
	if up.Duplicate {
		res.Outcome = OutcomeDuplicate
		log.Printf("[sync] contact already in crm row=%d email=%s; marked sent", c.Row, c.Email)
	} else {
		log.Printf("[sync] pushed to crm row=%d email=%s", c.Row, c.Email)
	}
	return res
}

func (s *Syncer) record(ctx context.Context, rep Report) {
	if s.recorder == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.recorder.RecordReport(rctx, rep); err != nil {
		log.Printf("[store] record run=%s err=%v", rep.ID, err)
	}
}
