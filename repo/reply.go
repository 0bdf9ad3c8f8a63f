package repo

import (
	"codemailer/entity"
	"codemailer/pkg/errutil"
	"codemailer/pkg/goutil"
	"context"
	"errors"
	"gorm.io/gorm"
)

var (
	ErrReplyNotFound = errutil.NotFoundError(errors.New("reply not found"))
)

type Reply struct {
	ID          *uint64
	UserID      *uint64 `gorm:"index"`
	HRName      *string `gorm:"column:hr_name"`
	CompanyName *string
	Status      *string
	Content     *string
	Date        *uint64
	CreateTime  *uint64
}

func (m *Reply) TableName() string {
	return "reply_tab"
}

type ReplyFilter struct {
	UserID     *uint64
	Status     *string
	Pagination *entity.Pagination
}

type ReplyRepo interface {
	// CreateMany logs replies for one user and adds their number to the
	// user's reply counter in the same transaction.
	CreateMany(ctx context.Context, userID uint64, replies []*entity.Reply) error
	// GetMany lists replies by most recent date first.
	GetMany(ctx context.Context, f *ReplyFilter) ([]*entity.Reply, *entity.Pagination, error)
	Delete(ctx context.Context, userID, replyID uint64) error
}

type replyRepo struct {
	baseRepo BaseRepo
}

func NewReplyRepo(_ context.Context, baseRepo BaseRepo) ReplyRepo {
	return &replyRepo{baseRepo: baseRepo}
}

func (r *replyRepo) CreateMany(ctx context.Context, userID uint64, replies []*entity.Reply) error {
	if len(replies) == 0 {
		return nil
	}

	ms := make([]*Reply, len(replies))
	for i, reply := range replies {
		ms[i] = ToReplyModel(reply)
		ms[i].UserID = goutil.Uint64(userID)
	}

	n := uint64(len(ms))

	if err := r.baseRepo.RunTx(ctx, func(ctx context.Context) error {
		if err := r.baseRepo.Create(ctx, &ms); err != nil {
			return err
		}

		return r.baseRepo.Upsert(ctx, &Stats{
			UserID:  goutil.Uint64(userID),
			Sent:    goutil.Uint64(0),
			Replies: goutil.Uint64(n),
		}, []string{"user_id"}, map[string]interface{}{
			"replies": gorm.Expr("replies + ?", n),
		})
	}); err != nil {
		return err
	}

	for i, m := range ms {
		replies[i].ID = m.ID
		replies[i].UserID = m.UserID
	}

	return nil
}

func (r *replyRepo) GetMany(ctx context.Context, f *ReplyFilter) ([]*entity.Reply, *entity.Pagination, error) {
	res, pagination, err := r.baseRepo.GetMany(ctx, new(Reply), &Filter{
		Conditions: []*Condition{
			{Field: "user_id", Op: OpEq, Value: f.UserID, NextLogicalOp: And},
			{Field: "status", Op: OpEq, Value: f.Status},
		},
		Pagination: f.Pagination,
		Order:      "date DESC, id DESC",
	})
	if err != nil {
		return nil, nil, err
	}

	replies := make([]*entity.Reply, len(res))
	for i, m := range res {
		replies[i] = ToReply(m.(*Reply))
	}

	return replies, pagination, nil
}

func (r *replyRepo) Delete(ctx context.Context, userID, replyID uint64) error {
	f := &Filter{
		Conditions: []*Condition{
			{Field: "id", Op: OpEq, Value: replyID, NextLogicalOp: And},
			{Field: "user_id", Op: OpEq, Value: userID},
		},
	}

	return r.baseRepo.RunTx(ctx, func(ctx context.Context) error {
		if err := r.baseRepo.Get(ctx, new(Reply), f); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReplyNotFound
			}
			return err
		}
		return r.baseRepo.Delete(ctx, new(Reply), f)
	})
}

func ToReplyModel(reply *entity.Reply) *Reply {
	var status *string
	if reply.Status != nil {
		status = goutil.String(string(reply.GetStatus()))
	}

	return &Reply{
		ID:          reply.ID,
		UserID:      reply.UserID,
		HRName:      reply.HRName,
		CompanyName: reply.CompanyName,
		Status:      status,
		Content:     reply.Content,
		Date:        reply.Date,
		CreateTime:  reply.CreateTime,
	}
}

func ToReply(m *Reply) *entity.Reply {
	var status *entity.ReplyStatus
	if m.Status != nil {
		s := entity.ReplyStatus(*m.Status)
		status = &s
	}

	return &entity.Reply{
		ID:          m.ID,
		UserID:      m.UserID,
		HRName:      m.HRName,
		CompanyName: m.CompanyName,
		Status:      status,
		Content:     m.Content,
		Date:        m.Date,
		CreateTime:  m.CreateTime,
	}
}
