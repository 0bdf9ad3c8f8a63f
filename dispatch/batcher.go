package dispatch

import (
	"codemailer/dep"
	"codemailer/entity"
	"codemailer/pkg/errutil"
	"codemailer/pkg/goutil"
	"codemailer/pkg/metrics"
	"codemailer/pkg/placeholder"
	"codemailer/repo"
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"sync"
	"time"
)

var (
	errUserIDRequired     = errutil.ValidationError(errors.New("user_id is required"))
	errTemplateIDRequired = errutil.ValidationError(errors.New("template_id is required"))
	errRecipientsRequired = errutil.ValidationError(errors.New("recipients are required"))
	errInvalidLimit       = errutil.ValidationError(errors.New("concurrency_limit must not be negative"))
)

type StartRequest struct {
	UserID           uint64
	TemplateID       uint64
	Recipients       []entity.Recipient
	ConcurrencyLimit int
	SharedWith       []string
}

func (req *StartRequest) validate() error {
	switch {
	case req.UserID == 0:
		return errUserIDRequired
	case req.TemplateID == 0:
		return errTemplateIDRequired
	case req.Recipients == nil:
		return errRecipientsRequired
	case req.ConcurrencyLimit < 0:
		return errInvalidLimit
	}
	return nil
}

// Run is one execution of a template against a recipient list.
type Run struct {
	id         string
	userID     uint64
	template   *entity.Template
	recipients []entity.Recipient
	credential *dep.Credential
	limit      int
	sharedWith []string

	progress *Progress

	cancelOnce sync.Once
	cancelCh   chan struct{}
	done       chan struct{}
}

func (r *Run) ID() string {
	return r.id
}

func (r *Run) UserID() uint64 {
	return r.userID
}

func (r *Run) Snapshot() *entity.DispatchRun {
	return r.progress.Snapshot()
}

// Done is closed once the run is finalized.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Cancel stops the run before its next chunk. Chunks already sending are
// left to settle.
func (r *Run) Cancel() bool {
	select {
	case <-r.done:
		return false
	default:
	}

	r.cancelOnce.Do(func() {
		close(r.cancelCh)
	})

	return true
}

func (r *Run) cancelled() bool {
	select {
	case <-r.cancelCh:
		return true
	default:
		return false
	}
}

type Engine struct {
	opts        Options
	templates   TemplateStore
	credentials CredentialStore
	decrypter   Decrypter
	resolver    dep.AttachmentResolver
	worker      *Worker
	recorder    *Recorder
	registry    *RunRegistry
}

func NewEngine(opts Options, templates TemplateStore, credentials CredentialStore, decrypter Decrypter,
	resolver dep.AttachmentResolver, worker *Worker, recorder *Recorder, registry *RunRegistry) *Engine {
	return &Engine{
		opts:        opts,
		templates:   templates,
		credentials: credentials,
		decrypter:   decrypter,
		resolver:    resolver,
		worker:      worker,
		recorder:    recorder,
		registry:    registry,
	}
}

// Start checks the preconditions of a run and sends it in the background.
// Nothing is sent or recorded when an error is returned.
func (e *Engine) Start(ctx context.Context, req *StartRequest) (*Run, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	tmpl, err := e.templates.Get(ctx, req.UserID, req.TemplateID)
	if err != nil {
		if errors.Is(err, repo.ErrTemplateNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("get template: %w", err)
	}

	user, err := e.credentials.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	if !user.HasAppPassword() {
		return nil, ErrCredentialNotFound
	}

	plain, err := e.decrypter.Decrypt(user.GetAppPassword())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("decrypt app password failed, user_id: %d, err: %v", req.UserID, err)
		return nil, errutil.PreconditionError(err)
	}

	limit := req.ConcurrencyLimit
	if limit == 0 {
		limit = e.opts.ConcurrencyLimit
	}

	recipients := make([]entity.Recipient, len(req.Recipients))
	for i, r := range req.Recipients {
		recipients[i] = r.Clone()
	}

	run := &Run{
		id:         uuid.New().String(),
		userID:     req.UserID,
		template:   tmpl,
		recipients: recipients,
		credential: &dep.Credential{
			Username: user.GetEmail(),
			Secret:   plain,
		},
		limit:      limit,
		sharedWith: req.SharedWith,
		cancelCh:   make(chan struct{}),
		done:       make(chan struct{}),
	}
	run.progress = newProgress(entity.DispatchRun{
		ID:              run.id,
		UserID:          req.UserID,
		TemplateID:      tmpl.GetID(),
		TemplateName:    tmpl.GetName(),
		TotalRecipients: len(recipients),
		StartTime:       uint64(time.Now().Unix()),
	})

	e.registry.add(run)

	runCtx := log.Ctx(ctx).With().Str("run_id", run.id).Logger().WithContext(context.WithoutCancel(ctx))
	go e.run(runCtx, run)

	return run, nil
}

func (e *Engine) Get(runID string) (*Run, error) {
	run, ok := e.registry.Get(runID)
	if !ok {
		return nil, ErrRunNotFound
	}
	return run, nil
}

func (e *Engine) Cancel(runID string) (*Run, error) {
	run, err := e.Get(runID)
	if err != nil {
		return nil, err
	}
	if !run.Cancel() {
		return nil, ErrRunCompleted
	}
	return run, nil
}

// Shutdown cancels every active run at its next chunk boundary and waits for
// them to be finalized, or for ctx to end.
func (e *Engine) Shutdown(ctx context.Context) error {
	runs := e.registry.Active()
	if len(runs) > 0 {
		log.Ctx(ctx).Info().Msgf("shutting down engine, active runs: %d", len(runs))
	}

	for _, run := range runs {
		run.Cancel()
	}

	for _, run := range runs {
		select {
		case <-run.Done():
		case <-ctx.Done():
			return fmt.Errorf("wait for run %s: %w", run.ID(), ctx.Err())
		}
	}

	return nil
}

func (e *Engine) run(ctx context.Context, run *Run) {
	defer close(run.done)
	defer e.registry.expire(run)

	metrics.RunStarted()
	run.progress.start()

	var (
		total     = len(run.recipients)
		chunks    = Chunk(run.recipients, run.limit)
		cancelled bool
	)

	log.Ctx(ctx).Info().Msgf("run started, template_id: %d, recipients: %d, chunks: %d", run.template.GetID(), total, len(chunks))

	var (
		attachments []*dep.MailAttachment
		attErr      error
	)
	if total > 0 {
		attachments, attErr = e.resolveAttachments(ctx, run.template)
	}

	for i, chunk := range chunks {
		if run.cancelled() {
			cancelled = true
			unsent := cancelledOutcomes(i*run.limit, run.recipients[i*run.limit:])
			run.progress.Apply(unsent, ProgressFraction(i, run.limit, total))
			log.Ctx(ctx).Info().Msgf("run cancelled before chunk %d, unsent: %d", i+1, len(unsent))
			break
		}

		outcomes := e.sendChunk(ctx, run, i*run.limit, chunk, attachments, attErr)
		run.progress.Apply(outcomes, ProgressFraction(i+1, run.limit, total))

		if i < len(chunks)-1 && e.opts.InterBatchDelay > 0 {
			select {
			case <-time.After(e.opts.InterBatchDelay):
			case <-run.cancelCh:
			}
		}
	}

	final := run.progress.Snapshot()
	final.State = entity.RunStateCompleted
	final.Cancelled = cancelled
	final.EndTime = uint64(time.Now().Unix())

	finalizeErr := e.recorder.Finalize(ctx, final)
	run.progress.complete(cancelled, finalizeErr)

	snapshot := run.progress.Snapshot()

	status := "completed"
	switch {
	case finalizeErr != nil:
		status = "finalize_failed"
	case cancelled:
		status = "cancelled"
	}
	metrics.RunDone(status)

	log.Ctx(ctx).Info().Msgf("run %s, sent: %d, failed: %d, total: %d", status, snapshot.SentCount, snapshot.ErrorCount, snapshot.TotalRecipients)
}

// resolveAttachments fetches the template attachments once for the whole
// run. In strict mode the first failure is returned and every recipient
// fails with it; otherwise unavailable attachments are left out.
func (e *Engine) resolveAttachments(ctx context.Context, tmpl *entity.Template) ([]*dep.MailAttachment, error) {
	if len(tmpl.GetAttachments()) == 0 {
		return nil, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.opts.FetchTimeout)
	defer cancel()

	attachments := make([]*dep.MailAttachment, 0, len(tmpl.GetAttachments()))
	for _, att := range tmpl.GetAttachments() {
		a, err := e.resolver.Resolve(fetchCtx, att)
		if err != nil {
			metrics.IncAttachmentFailure()
			log.Ctx(ctx).Warn().Msgf("resolve attachment %s failed: %v", att.FileName(), err)

			if e.opts.StrictAttachments {
				return nil, err
			}
			continue
		}
		attachments = append(attachments, a)
	}

	return attachments, nil
}

func (e *Engine) sendChunk(ctx context.Context, run *Run, offset int, chunk []entity.Recipient,
	attachments []*dep.MailAttachment, attErr error) []entity.Outcome {
	var (
		g        = new(errgroup.Group)
		outcomes = make([]entity.Outcome, len(chunk))
	)

	for i, recipient := range chunk {
		i, recipient := i, recipient
		g.Go(func() error {
			outcomes[i] = e.sendOne(ctx, run, offset+i+1, recipient, attachments, attErr)
			return nil
		})
	}

	_ = g.Wait()

	return outcomes
}

func (e *Engine) sendOne(ctx context.Context, run *Run, row int, recipient entity.Recipient,
	attachments []*dep.MailAttachment, attErr error) entity.Outcome {
	email, ok := recipient.Email()
	if !ok {
		metrics.IncSend(entity.OutcomeSkipped.String())
		log.Ctx(ctx).Warn().Msgf("skipped row %d: no email found", row)
		return entity.Outcome{
			Row:    row,
			Status: entity.OutcomeSkipped,
			Reason: entity.ReasonNoEmail,
		}
	}

	if attErr != nil {
		metrics.IncSend(entity.OutcomeFailed.String())
		return entity.Outcome{
			Row:    row,
			Email:  email,
			Status: entity.OutcomeFailed,
			Reason: entity.ReasonAttachment,
		}
	}

	subject, body := placeholder.RenderTemplate(run.template, recipient)

	return e.worker.Send(ctx, &SendRequest{
		Row:        row,
		UserID:     run.userID,
		RunID:      run.id,
		Credential: run.credential,
		Message: &dep.Message{
			From:        run.credential.Username,
			To:          email,
			Subject:     subject,
			Html:        placeholder.ToHTML(body),
			Attachments: attachments,
			Tags:        []string{run.id},
		},
		SharedWith: run.sharedWith,
	})
}

// cancelledOutcomes marks every recipient from offset on as failed so the
// sent and error counts still add up to the list size.
func cancelledOutcomes(offset int, rest []entity.Recipient) []entity.Outcome {
	outcomes := make([]entity.Outcome, len(rest))
	for i, recipient := range rest {
		email, _ := recipient.Email()
		outcomes[i] = entity.Outcome{
			Row:    offset + i + 1,
			Email:  email,
			Status: entity.OutcomeFailed,
			Reason: entity.ReasonCancelled,
		}
	}
	return outcomes
}

// Chunk splits recipients into consecutive groups of at most n, keeping the
// input order.
func Chunk(recipients []entity.Recipient, n int) [][]entity.Recipient {
	if n <= 0 {
		n = 1
	}

	chunks := make([][]entity.Recipient, 0, (len(recipients)+n-1)/n)
	for start := 0; start < len(recipients); start += n {
		end := goutil.MinInt(start+n, len(recipients))
		chunks = append(chunks, recipients[start:end])
	}

	return chunks
}

// ProgressFraction is the share of the list covered after chunk i (1-based).
func ProgressFraction(i, limit, total int) float64 {
	if total <= 0 {
		return 1
	}

	f := float64(i*limit) / float64(total)
	if f > 1 {
		return 1
	}
	return f
}
