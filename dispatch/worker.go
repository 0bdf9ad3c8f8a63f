package dispatch

import (
	"codemailer/dep"
	"codemailer/entity"
	"codemailer/pkg/goutil"
	"codemailer/pkg/metrics"
	"context"
	"errors"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"time"
)

var errSendTimeout = errors.New("send timed out")

type SendRequest struct {
	Row        int
	UserID     uint64
	RunID      string
	Credential *dep.Credential
	Message    *dep.Message
	SharedWith []string
}

// Worker delivers a single message. It returns an outcome and never touches
// the counters of the run.
type Worker struct {
	transport     dep.MailTransport
	sentLog       SentLog
	timeout       time.Duration
	maxAttempts   int
	retryInterval time.Duration
}

func NewWorker(opts Options, transport dep.MailTransport, sentLog SentLog) *Worker {
	return &Worker{
		transport:     transport,
		sentLog:       sentLog,
		timeout:       opts.SendTimeout,
		maxAttempts:   opts.MaxSendAttempts,
		retryInterval: opts.RetryInitialInterval,
	}
}

func (w *Worker) Send(ctx context.Context, req *SendRequest) entity.Outcome {
	outcome := entity.Outcome{
		Row:   req.Row,
		Email: req.Message.To,
	}

	var err error
	if w.maxAttempts <= 1 {
		err = w.attempt(ctx, req)
	} else {
		b := backoff.WithContext(
			backoff.WithMaxRetries(newBackOff(w.retryInterval), uint64(w.maxAttempts-1)), ctx)
		err = backoff.Retry(func() error {
			return w.attempt(ctx, req)
		}, b)
	}

	if err != nil {
		outcome.Status = entity.OutcomeFailed
		outcome.Reason = err.Error()
		if errors.Is(err, errSendTimeout) {
			outcome.Reason = entity.ReasonTimeout
		}

		metrics.IncSend(outcome.Status.String())
		log.Ctx(ctx).Error().Msgf("send to %s failed, row: %d, err: %v", req.Message.To, req.Row, err)

		return outcome
	}

	outcome.Status = entity.OutcomeSent
	metrics.IncSend(outcome.Status.String())

	w.record(ctx, req)

	return outcome
}

func (w *Worker) attempt(ctx context.Context, req *SendRequest) error {
	sendCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	var (
		start = time.Now()
		errCh = make(chan error, 1)
	)
	go func() {
		errCh <- w.transport.Send(sendCtx, req.Credential, req.Message)
	}()

	var err error
	select {
	case err = <-errCh:
	case <-sendCtx.Done():
		err = sendCtx.Err()
	}

	metrics.ObserveSend(w.transport.Name(), time.Since(start))

	if err != nil && errors.Is(sendCtx.Err(), context.DeadlineExceeded) {
		return errSendTimeout
	}

	return err
}

// record keeps a copy of a delivered message. Failing to do so does not fail
// the send.
func (w *Worker) record(ctx context.Context, req *SendRequest) {
	if w.sentLog == nil {
		return
	}

	sentEmail := &entity.SentEmail{
		UserID:     goutil.Uint64(req.UserID),
		RunID:      goutil.String(req.RunID),
		To:         goutil.String(req.Message.To),
		Subject:    goutil.String(req.Message.Subject),
		Html:       goutil.String(req.Message.Html),
		SharedWith: goutil.NonEmptyStrs(req.SharedWith),
		SentAt:     goutil.Uint64(uint64(time.Now().Unix())),
	}

	if err := w.sentLog.Create(ctx, sentEmail); err != nil {
		log.Ctx(ctx).Error().Msgf("record sent email failed, to: %s, err: %v", req.Message.To, err)
	}
}
