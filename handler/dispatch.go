package handler

import (
	"codemailer/dispatch"
	"codemailer/entity"
	"codemailer/pkg/errutil"
	"codemailer/pkg/placeholder"
	"codemailer/repo"
	"context"
	"errors"
	"github.com/rs/zerolog/log"
)

const (
	DefaultLogLimit = 100
)

var (
	ErrRunNotOwned = errors.New("run does not belong to user")
)

// Dispatcher starts and observes runs, exposing point-in-time snapshots.
type Dispatcher interface {
	Start(ctx context.Context, req *dispatch.StartRequest) (*entity.DispatchRun, error)
	Get(runID string) (*entity.DispatchRun, error)
	Cancel(runID string) (*entity.DispatchRun, error)
}

type engineDispatcher struct {
	engine *dispatch.Engine
}

func NewEngineDispatcher(engine *dispatch.Engine) Dispatcher {
	return &engineDispatcher{engine: engine}
}

func (d *engineDispatcher) Start(ctx context.Context, req *dispatch.StartRequest) (*entity.DispatchRun, error) {
	run, err := d.engine.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	return run.Snapshot(), nil
}

func (d *engineDispatcher) Get(runID string) (*entity.DispatchRun, error) {
	run, err := d.engine.Get(runID)
	if err != nil {
		return nil, err
	}
	return run.Snapshot(), nil
}

func (d *engineDispatcher) Cancel(runID string) (*entity.DispatchRun, error) {
	run, err := d.engine.Cancel(runID)
	if err != nil {
		return nil, err
	}
	return run.Snapshot(), nil
}

type DispatchHandler interface {
	PreviewDispatch(ctx context.Context, req *PreviewDispatchRequest, res *PreviewDispatchResponse) error
	CreateDispatch(ctx context.Context, req *CreateDispatchRequest, res *CreateDispatchResponse) error
	GetDispatchRun(ctx context.Context, req *GetDispatchRunRequest, res *GetDispatchRunResponse) error
	CancelDispatchRun(ctx context.Context, req *CancelDispatchRunRequest, res *CancelDispatchRunResponse) error
}

type dispatchHandler struct {
	templateRepo repo.TemplateRepo
	dispatcher   Dispatcher
}

func NewDispatchHandler(templateRepo repo.TemplateRepo, dispatcher Dispatcher) DispatchHandler {
	return &dispatchHandler{
		templateRepo: templateRepo,
		dispatcher:   dispatcher,
	}
}

type PreviewDispatchRequest struct {
	ContextInfo

	TemplateID *uint64            `json:"template_id,omitempty" validate:"required,gt=0"`
	Recipients []entity.Recipient `json:"recipients,omitempty"`
}

func (req *PreviewDispatchRequest) GetTemplateID() uint64 {
	if req != nil && req.TemplateID != nil {
		return *req.TemplateID
	}
	return 0
}

type PreviewDispatchResponse struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Html    string `json:"html"`
}

// PreviewDispatch renders the template for the first recipient, or returns the
// raw template when there are none.
func (h *dispatchHandler) PreviewDispatch(ctx context.Context, req *PreviewDispatchRequest, res *PreviewDispatchResponse) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	tmpl, err := h.templateRepo.Get(ctx, req.GetUserID(), req.GetTemplateID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get template failed: %v, template_id: %d", err, req.GetTemplateID())
		return err
	}

	if len(req.Recipients) == 0 {
		res.Subject = tmpl.GetSubject()
		res.Html = placeholder.ToHTML(tmpl.GetBody())
		return nil
	}

	first := req.Recipients[0]
	subject, body := placeholder.RenderTemplate(tmpl, first)

	res.To, _ = first.Email()
	res.Subject = subject
	res.Html = placeholder.ToHTML(body)

	return nil
}

type CreateDispatchRequest struct {
	ContextInfo

	TemplateID       *uint64            `json:"template_id,omitempty" validate:"required,gt=0"`
	Recipients       []entity.Recipient `json:"recipients" validate:"required"`
	ConcurrencyLimit *int               `json:"concurrency_limit,omitempty" validate:"omitempty,min=1,max=50"`
	SharedWith       []string           `json:"shared_with,omitempty" validate:"omitempty,dive,omitempty,email"`
}

func (req *CreateDispatchRequest) GetTemplateID() uint64 {
	if req != nil && req.TemplateID != nil {
		return *req.TemplateID
	}
	return 0
}

func (req *CreateDispatchRequest) GetConcurrencyLimit() int {
	if req != nil && req.ConcurrencyLimit != nil {
		return *req.ConcurrencyLimit
	}
	return 0
}

func (req *CreateDispatchRequest) ToStartRequest() *dispatch.StartRequest {
	return &dispatch.StartRequest{
		UserID:           req.GetUserID(),
		TemplateID:       req.GetTemplateID(),
		Recipients:       req.Recipients,
		ConcurrencyLimit: req.GetConcurrencyLimit(),
		SharedWith:       req.SharedWith,
	}
}

type CreateDispatchResponse struct {
	Run *entity.DispatchRun `json:"run,omitempty"`
}

func (h *dispatchHandler) CreateDispatch(ctx context.Context, req *CreateDispatchRequest, res *CreateDispatchResponse) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	run, err := h.dispatcher.Start(ctx, req.ToStartRequest())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("start dispatch failed: %v, template_id: %d", err, req.GetTemplateID())
		return err
	}

	log.Ctx(ctx).Info().Msgf("dispatch run started, run_id: %s, total: %d", run.ID, run.TotalRecipients)

	res.Run = run

	return nil
}

type GetDispatchRunRequest struct {
	ContextInfo

	RunID    *string `json:"run_id,omitempty" schema:"run_id,omitempty" validate:"required,uuid"`
	LogLimit *int    `json:"log_limit,omitempty" schema:"log_limit,omitempty" validate:"omitempty,min=0"`
}

func (req *GetDispatchRunRequest) GetRunID() string {
	if req != nil && req.RunID != nil {
		return *req.RunID
	}
	return ""
}

func (req *GetDispatchRunRequest) GetLogLimit() int {
	if req != nil && req.LogLimit != nil {
		return *req.LogLimit
	}
	return DefaultLogLimit
}

type GetDispatchRunResponse struct {
	Run *entity.DispatchRun `json:"run,omitempty"`
}

func (h *dispatchHandler) GetDispatchRun(ctx context.Context, req *GetDispatchRunRequest, res *GetDispatchRunResponse) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	run, err := h.ownedRun(req.GetUserID(), req.GetRunID())
	if err != nil {
		return err
	}

	// most recent entries first
	if limit := req.GetLogLimit(); len(run.RecentLog) > limit {
		run.RecentLog = run.RecentLog[:limit]
	}

	res.Run = run

	return nil
}

type CancelDispatchRunRequest struct {
	ContextInfo

	RunID *string `json:"run_id,omitempty" validate:"required,uuid"`
}

func (req *CancelDispatchRunRequest) GetRunID() string {
	if req != nil && req.RunID != nil {
		return *req.RunID
	}
	return ""
}

type CancelDispatchRunResponse struct {
	Run *entity.DispatchRun `json:"run,omitempty"`
}

func (h *dispatchHandler) CancelDispatchRun(ctx context.Context, req *CancelDispatchRunRequest, res *CancelDispatchRunResponse) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	if _, err := h.ownedRun(req.GetUserID(), req.GetRunID()); err != nil {
		return err
	}

	run, err := h.dispatcher.Cancel(req.GetRunID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("cancel dispatch run failed: %v, run_id: %s", err, req.GetRunID())
		return err
	}

	res.Run = run

	return nil
}

func (h *dispatchHandler) ownedRun(userID uint64, runID string) (*entity.DispatchRun, error) {
	run, err := h.dispatcher.Get(runID)
	if err != nil {
		return nil, err
	}
	if run.UserID != userID {
		// do not reveal runs of other users
		return nil, errutil.NotFoundError(ErrRunNotOwned)
	}
	return run, nil
}
