// Package dispatch sends one rendered message per recipient of a template in
// bounded, strictly ordered chunks and records the outcome of every run in
// the campaign ledger exactly once.
package dispatch

import (
	"codemailer/config"
	"codemailer/entity"
	"codemailer/pkg/errutil"
	"context"
	"errors"
	"fmt"
	"github.com/cenkalti/backoff/v4"
	"time"
)

var (
	ErrTemplateNotFound   = errutil.NotFoundError(errors.New("template not found"))
	ErrCredentialNotFound = errutil.PreconditionError(errors.New("app password is not configured"))
	ErrRunNotFound        = errutil.NotFoundError(errors.New("dispatch run not found"))
	ErrRunCompleted       = errutil.ConflictError(errors.New("dispatch run already completed"))
)

type TemplateStore interface {
	Get(ctx context.Context, userID, templateID uint64) (*entity.Template, error)
}

type CredentialStore interface {
	GetByID(ctx context.Context, userID uint64) (*entity.User, error)
}

type Decrypter interface {
	Decrypt(cipherText string) (string, error)
}

type Ledger interface {
	RecordBatch(ctx context.Context, batch *entity.CampaignBatch) (bool, error)
}

type SentLog interface {
	Create(ctx context.Context, email *entity.SentEmail) error
}

// Notifier is told about every run once its ledger entry is written.
type Notifier interface {
	RunFinalized(ctx context.Context, run *entity.DispatchRun) error
}

// FinalizationError reports that the counts of a run could not be written to
// the ledger. The sends of the run are unaffected.
type FinalizationError struct {
	RunID string
	Err   error
}

func (e *FinalizationError) Error() string {
	return fmt.Sprintf("finalize run %s: %v", e.RunID, e.Err)
}

func (e *FinalizationError) Unwrap() error {
	return e.Err
}

type Options struct {
	ConcurrencyLimit  int
	InterBatchDelay   time.Duration
	SendTimeout       time.Duration
	FetchTimeout      time.Duration
	MaxSendAttempts   int
	StrictAttachments bool

	FinalizeMaxRetries   int
	RetryInitialInterval time.Duration

	RunTTL time.Duration
}

func NewOptions(cfg config.Dispatch) Options {
	opts := Options{
		ConcurrencyLimit:     cfg.ConcurrencyLimit,
		InterBatchDelay:      cfg.InterBatchDelay(),
		SendTimeout:          cfg.SendTimeout(),
		FetchTimeout:         cfg.FetchTimeout(),
		MaxSendAttempts:      cfg.MaxSendAttempts,
		StrictAttachments:    cfg.StrictAttachments,
		FinalizeMaxRetries:   cfg.FinalizeMaxRetries,
		RetryInitialInterval: 200 * time.Millisecond,
		RunTTL:               cfg.RunTTL(),
	}
	if opts.ConcurrencyLimit <= 0 {
		opts.ConcurrencyLimit = 3
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 30 * time.Second
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 20 * time.Second
	}
	if opts.MaxSendAttempts <= 0 {
		opts.MaxSendAttempts = 1
	}
	if opts.RunTTL <= 0 {
		opts.RunTTL = time.Hour
	}
	return opts
}

func newBackOff(initialInterval time.Duration) *backoff.ExponentialBackOff {
	eb := backoff.NewExponentialBackOff()
	if initialInterval > 0 {
		eb.InitialInterval = initialInterval
	}
	return eb
}
