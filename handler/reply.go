package handler

import (
	"codemailer/entity"
	"codemailer/pkg/errutil"
	"codemailer/pkg/goutil"
	"codemailer/repo"
	"context"
	"errors"
	"github.com/rs/zerolog/log"
	"strings"
	"time"
)

var (
	ErrReplyContactRequired = errors.New("hr_name or company_name is required")
)

type ReplyHandler interface {
	AddReplies(ctx context.Context, req *AddRepliesRequest, res *AddRepliesResponse) error
	GetReplies(ctx context.Context, req *GetRepliesRequest, res *GetRepliesResponse) error
	DeleteReply(ctx context.Context, req *DeleteReplyRequest, res *DeleteReplyResponse) error
}

type replyHandler struct {
	replyRepo repo.ReplyRepo
}

func NewReplyHandler(replyRepo repo.ReplyRepo) ReplyHandler {
	return &replyHandler{
		replyRepo: replyRepo,
	}
}

type ReplyInput struct {
	HRName      *string `json:"hr_name,omitempty" validate:"omitempty,max=120"`
	CompanyName *string `json:"company_name,omitempty" validate:"omitempty,max=120"`
	Status      *string `json:"status,omitempty" validate:"required,oneof=Positive Negative Neutral"`
	Content     *string `json:"content,omitempty"`
}

func (r *ReplyInput) GetHRName() string {
	if r != nil && r.HRName != nil {
		return *r.HRName
	}
	return ""
}

func (r *ReplyInput) GetCompanyName() string {
	if r != nil && r.CompanyName != nil {
		return *r.CompanyName
	}
	return ""
}

type AddRepliesRequest struct {
	ContextInfo

	// Date the replies came in, as a unix timestamp. Defaults to now.
	Date    *uint64       `json:"date,omitempty"`
	Replies []*ReplyInput `json:"replies,omitempty" validate:"required,min=1,max=100,dive,required"`
}

func (req *AddRepliesRequest) validate() error {
	if err := validateRequest(req); err != nil {
		return err
	}

	for _, r := range req.Replies {
		if strings.TrimSpace(r.GetHRName()) == "" && strings.TrimSpace(r.GetCompanyName()) == "" {
			return errutil.ValidationError(ErrReplyContactRequired)
		}
	}

	return nil
}

func (req *AddRepliesRequest) ToReplies() []*entity.Reply {
	now := uint64(time.Now().Unix())

	date := now
	if req.Date != nil && *req.Date > 0 {
		date = *req.Date
	}

	replies := make([]*entity.Reply, len(req.Replies))
	for i, r := range req.Replies {
		status := entity.ReplyStatus(*r.Status)
		replies[i] = &entity.Reply{
			UserID:      goutil.Uint64(req.GetUserID()),
			HRName:      r.HRName,
			CompanyName: r.CompanyName,
			Status:      &status,
			Content:     r.Content,
			Date:        goutil.Uint64(date),
			CreateTime:  goutil.Uint64(now),
		}
	}

	return replies
}

type AddRepliesResponse struct {
	Replies []*entity.Reply `json:"replies"`
}

func (h *replyHandler) AddReplies(ctx context.Context, req *AddRepliesRequest, res *AddRepliesResponse) error {
	if err := req.validate(); err != nil {
		return err
	}

	replies := req.ToReplies()
	if err := h.replyRepo.CreateMany(ctx, req.GetUserID(), replies); err != nil {
		log.Ctx(ctx).Error().Msgf("add replies failed: %v, count: %d", err, len(replies))
		return err
	}

	res.Replies = replies

	return nil
}

type GetRepliesRequest struct {
	ContextInfo

	Status     *string            `json:"status,omitempty" validate:"omitempty,oneof=Positive Negative Neutral"`
	Pagination *entity.Pagination `json:"pagination,omitempty"`
}

type GetRepliesResponse struct {
	Replies    []*entity.Reply    `json:"replies"`
	Pagination *entity.Pagination `json:"pagination,omitempty"`
}

func (h *replyHandler) GetReplies(ctx context.Context, req *GetRepliesRequest, res *GetRepliesResponse) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	if req.Pagination == nil {
		req.Pagination = new(entity.Pagination)
	}
	if req.Pagination.Limit == nil || req.Pagination.GetLimit() > DefaultMaxLimit {
		req.Pagination.Limit = goutil.Uint32(DefaultMaxLimit)
	}

	replies, pagination, err := h.replyRepo.GetMany(ctx, &repo.ReplyFilter{
		UserID:     goutil.Uint64(req.GetUserID()),
		Status:     req.Status,
		Pagination: req.Pagination,
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get replies failed: %v", err)
		return err
	}

	if replies == nil {
		replies = make([]*entity.Reply, 0)
	}
	res.Replies = replies
	res.Pagination = pagination

	return nil
}

type DeleteReplyRequest struct {
	ContextInfo

	ReplyID *uint64 `json:"reply_id,omitempty" validate:"required,gt=0"`
}

func (req *DeleteReplyRequest) GetReplyID() uint64 {
	if req != nil && req.ReplyID != nil {
		return *req.ReplyID
	}
	return 0
}

type DeleteReplyResponse struct{}

// DeleteReply removes the entry only. The reply counter keeps counting it.
func (h *replyHandler) DeleteReply(ctx context.Context, req *DeleteReplyRequest, _ *DeleteReplyResponse) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	if err := h.replyRepo.Delete(ctx, req.GetUserID(), req.GetReplyID()); err != nil {
		log.Ctx(ctx).Error().Msgf("delete reply failed: %v, reply_id: %d", err, req.GetReplyID())
		return err
	}

	return nil
}
