package repo

import (
	"codemailer/entity"
	"codemailer/pkg/goutil"
	"context"
	"errors"
	"gorm.io/gorm"
)

type Stats struct {
	UserID  *uint64 `gorm:"primaryKey;autoIncrement:false"`
	Sent    *uint64
	Replies *uint64
}

func (m *Stats) TableName() string {
	return "stats_tab"
}

type StatsRepo interface {
	// Get returns zero counters for a user with no recorded runs.
	Get(ctx context.Context, userID uint64) (*entity.Stats, error)
}

type statsRepo struct {
	baseRepo BaseRepo
}

func NewStatsRepo(_ context.Context, baseRepo BaseRepo) StatsRepo {
	return &statsRepo{baseRepo: baseRepo}
}

func (r *statsRepo) Get(ctx context.Context, userID uint64) (*entity.Stats, error) {
	stats := new(Stats)
	if err := r.baseRepo.Get(ctx, stats, &Filter{
		Conditions: []*Condition{
			{Field: "user_id", Op: OpEq, Value: userID},
		},
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &entity.Stats{
				UserID:  goutil.Uint64(userID),
				Sent:    goutil.Uint64(0),
				Replies: goutil.Uint64(0),
			}, nil
		}
		return nil, err
	}

	return &entity.Stats{
		UserID:  stats.UserID,
		Sent:    stats.Sent,
		Replies: stats.Replies,
	}, nil
}
