package consume_dispatch_requests

import (
	"codemailer/dispatch"
	"codemailer/pkg/mq"
	"codemailer/pkg/service"
	"context"
	"github.com/rs/zerolog/log"
	"sync"
)

type Starter interface {
	Start(ctx context.Context, req *dispatch.StartRequest) (*dispatch.Run, error)
}

// ConsumeDispatchRequests starts a run for every DispatchRequest message on
// the consumer topic until the context is cancelled.
type ConsumeDispatchRequests struct {
	starter Starter
	cfg     mq.ConsumerConfig

	consumer *mq.Consumer
	runs     sync.WaitGroup
}

func New(starter Starter, cfg mq.ConsumerConfig) service.Job {
	return &ConsumeDispatchRequests{
		starter: starter,
		cfg:     cfg,
	}
}

func (j *ConsumeDispatchRequests) Init(ctx context.Context) error {
	mq.RegisterHandler(mq.PayloadDispatchRequest, j.handle)

	consumer, err := mq.NewConsumer(ctx, j.cfg)
	if err != nil {
		return err
	}
	j.consumer = consumer

	return nil
}

func (j *ConsumeDispatchRequests) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// CleanUp stops consuming and waits for the started runs to be finalized.
func (j *ConsumeDispatchRequests) CleanUp(ctx context.Context) error {
	var err error
	if j.consumer != nil {
		err = j.consumer.Close()
	}

	log.Ctx(ctx).Info().Msg("waiting for active runs")
	j.runs.Wait()

	return err
}

func (j *ConsumeDispatchRequests) handle(ctx context.Context, msg *mq.Message) error {
	body := new(mq.DispatchRequest)
	if err := msg.ParseBody(body); err != nil {
		return err
	}

	run, err := j.starter.Start(ctx, ToStartRequest(body))
	if err != nil {
		// preconditions do not change on redelivery, so the message is dropped
		log.Ctx(ctx).Error().Msgf("start run failed: %v, user_id: %d, template_id: %d",
			err, body.GetUserID(), body.GetTemplateID())
		return err
	}

	log.Ctx(ctx).Info().Msgf("run %s started, total: %d", run.ID(), len(body.Recipients))

	j.runs.Add(1)
	go func() {
		defer j.runs.Done()
		<-run.Done()
	}()

	return nil
}

func ToStartRequest(body *mq.DispatchRequest) *dispatch.StartRequest {
	return &dispatch.StartRequest{
		UserID:           body.GetUserID(),
		TemplateID:       body.GetTemplateID(),
		Recipients:       body.Recipients,
		ConcurrencyLimit: body.GetConcurrencyLimit(),
		SharedWith:       body.SharedWith,
	}
}
