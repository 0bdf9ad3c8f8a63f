package send_campaign

import (
	"codemailer/dispatch"
	"codemailer/entity"
	"codemailer/pkg/recipientfile"
	"codemailer/pkg/service"
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog/log"
	"os"
	"time"
)

var (
	ErrFileRequired = errors.New("recipient file is required")
)

const progressInterval = 2 * time.Second

// Starter begins a run and returns once its preconditions hold.
type Starter interface {
	Start(ctx context.Context, req *dispatch.StartRequest) (*dispatch.Run, error)
}

type Params struct {
	File             string
	UserID           uint64
	TemplateID       uint64
	ConcurrencyLimit int
	SharedWith       []string
}

// SendCampaign sends a template to every recipient of a local json, xlsx or
// csv file and waits for the run to be finalized.
type SendCampaign struct {
	starter Starter
	params  Params

	recipients []entity.Recipient
	result     *entity.DispatchRun
}

func New(starter Starter, params Params) service.Job {
	return &SendCampaign{
		starter: starter,
		params:  params,
	}
}

func (j *SendCampaign) Init(ctx context.Context) error {
	if j.params.File == "" {
		return ErrFileRequired
	}

	b, err := os.ReadFile(j.params.File)
	if err != nil {
		return err
	}

	j.recipients, err = recipientfile.Parse(j.params.File, b)
	if err != nil {
		return fmt.Errorf("parse %s: %w", j.params.File, err)
	}

	if !recipientfile.HasEmailColumn(j.recipients) {
		log.Ctx(ctx).Warn().Msgf("no email column found in %s, every row will be skipped", j.params.File)
	}

	log.Ctx(ctx).Info().Msgf("loaded %d recipients from %s", len(j.recipients), j.params.File)

	return nil
}

func (j *SendCampaign) Run(ctx context.Context) error {
	run, err := j.starter.Start(ctx, &dispatch.StartRequest{
		UserID:           j.params.UserID,
		TemplateID:       j.params.TemplateID,
		Recipients:       j.recipients,
		ConcurrencyLimit: j.params.ConcurrencyLimit,
		SharedWith:       j.params.SharedWith,
	})
	if err != nil {
		return err
	}

	log.Ctx(ctx).Info().Msgf("run %s started", run.ID())

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-run.Done():
			j.result = run.Snapshot()
			log.Ctx(ctx).Info().Msgf("run %s completed, sent: %d, errors: %d, total: %d",
				run.ID(), j.result.SentCount, j.result.ErrorCount, j.result.TotalRecipients)
			if j.result.FinalizeError != "" {
				return fmt.Errorf("run %s not recorded: %s", run.ID(), j.result.FinalizeError)
			}
			return nil
		case <-ctx.Done():
			// stop at the next chunk boundary and let the run finalize
			run.Cancel()
			<-run.Done()
			j.result = run.Snapshot()
			return ctx.Err()
		case <-ticker.C:
			snapshot := run.Snapshot()
			log.Ctx(ctx).Info().Msgf("progress: %.0f%%, sent: %d, errors: %d",
				snapshot.ProgressPercent, snapshot.SentCount, snapshot.ErrorCount)
		}
	}
}

func (j *SendCampaign) CleanUp(_ context.Context) error {
	return nil
}
