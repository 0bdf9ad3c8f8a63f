package dispatch

import (
	"codemailer/entity"
	"codemailer/pkg/goutil"
	"codemailer/pkg/metrics"
	"context"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"time"
)

// Recorder writes the ledger entry of a finished run. The ledger keys entries
// by run id, so a retried write never counts a run twice.
type Recorder struct {
	ledger          Ledger
	notifier        Notifier
	maxRetries      int
	initialInterval time.Duration
}

func NewRecorder(opts Options, ledger Ledger, notifier Notifier) *Recorder {
	return &Recorder{
		ledger:          ledger,
		notifier:        notifier,
		maxRetries:      opts.FinalizeMaxRetries,
		initialInterval: opts.RetryInitialInterval,
	}
}

func (r *Recorder) Finalize(ctx context.Context, run *entity.DispatchRun) error {
	batch := &entity.CampaignBatch{
		RunID:           goutil.String(run.ID),
		UserID:          goutil.Uint64(run.UserID),
		TemplateID:      goutil.Uint64(run.TemplateID),
		TemplateName:    goutil.String(run.TemplateName),
		TotalRecipients: goutil.Uint64(uint64(run.TotalRecipients)),
		SentCount:       goutil.Uint64(uint64(run.SentCount)),
		Timestamp:       goutil.Uint64(uint64(time.Now().Unix())),
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(newBackOff(r.initialInterval), uint64(goutil.MaxInt(r.maxRetries, 0))), ctx)

	var inserted bool
	if err := backoff.RetryNotify(func() error {
		var err error
		inserted, err = r.ledger.RecordBatch(ctx, batch)
		return err
	}, b, func(err error, next time.Duration) {
		log.Ctx(ctx).Warn().Msgf("record campaign batch failed, retry in %v, err: %v", next, err)
	}); err != nil {
		metrics.IncFinalizeFailure()
		log.Ctx(ctx).Error().Msgf("finalize run failed, sent: %d, total: %d, err: %v", run.SentCount, run.TotalRecipients, err)
		return &FinalizationError{RunID: run.ID, Err: err}
	}

	if !inserted {
		log.Ctx(ctx).Warn().Msgf("run already recorded in ledger")
	}

	if r.notifier != nil {
		if err := r.notifier.RunFinalized(ctx, run); err != nil {
			log.Ctx(ctx).Error().Msgf("notify run finalized failed: %v", err)
		}
	}

	return nil
}
