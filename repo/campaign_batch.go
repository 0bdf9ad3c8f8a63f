package repo

import (
	"codemailer/entity"
	"codemailer/pkg/goutil"
	"context"
	"gorm.io/gorm"
)

type CampaignBatch struct {
	ID              *uint64
	RunID           *string `gorm:"size:36;uniqueIndex"`
	UserID          *uint64
	TemplateID      *uint64
	TemplateName    *string
	TotalRecipients *uint64
	SentCount       *uint64
	Timestamp       *uint64
}

func (m *CampaignBatch) TableName() string {
	return "campaign_batch_tab"
}

type CampaignBatchRepo interface {
	// RecordBatch appends the ledger entry of a run and adds its sent count to
	// the user's cumulative stats. Recording the same run id twice is a no-op.
	RecordBatch(ctx context.Context, batch *entity.CampaignBatch) (bool, error)
	// GetMany lists a user's ledger entries by ascending timestamp.
	GetMany(ctx context.Context, userID uint64) ([]*entity.CampaignBatch, error)
}

type campaignBatchRepo struct {
	baseRepo BaseRepo
}

func NewCampaignBatchRepo(_ context.Context, baseRepo BaseRepo) CampaignBatchRepo {
	return &campaignBatchRepo{baseRepo: baseRepo}
}

func (r *campaignBatchRepo) RecordBatch(ctx context.Context, batch *entity.CampaignBatch) (bool, error) {
	var inserted bool
	if err := r.baseRepo.RunTx(ctx, func(ctx context.Context) error {
		var err error
		inserted, err = r.baseRepo.CreateIfAbsent(ctx, ToCampaignBatchModel(batch))
		if err != nil {
			return err
		}

		if !inserted || batch.GetSentCount() == 0 {
			return nil
		}

		sent := batch.GetSentCount()

		return r.baseRepo.Upsert(ctx, &Stats{
			UserID:  batch.UserID,
			Sent:    goutil.Uint64(sent),
			Replies: goutil.Uint64(0),
		}, []string{"user_id"}, map[string]interface{}{
			"sent": gorm.Expr("sent + ?", sent),
		})
	}); err != nil {
		return false, err
	}

	return inserted, nil
}

func (r *campaignBatchRepo) GetMany(ctx context.Context, userID uint64) ([]*entity.CampaignBatch, error) {
	res, _, err := r.baseRepo.GetMany(ctx, new(CampaignBatch), &Filter{
		Conditions: []*Condition{
			{Field: "user_id", Op: OpEq, Value: userID},
		},
		Order: "timestamp ASC, id ASC",
	})
	if err != nil {
		return nil, err
	}

	batches := make([]*entity.CampaignBatch, len(res))
	for i, m := range res {
		batches[i] = ToCampaignBatch(m.(*CampaignBatch))
	}

	return batches, nil
}

func ToCampaignBatchModel(batch *entity.CampaignBatch) *CampaignBatch {
	return &CampaignBatch{
		ID:              batch.ID,
		RunID:           batch.RunID,
		UserID:          batch.UserID,
		TemplateID:      batch.TemplateID,
		TemplateName:    batch.TemplateName,
		TotalRecipients: batch.TotalRecipients,
		SentCount:       batch.SentCount,
		Timestamp:       batch.Timestamp,
	}
}

func ToCampaignBatch(m *CampaignBatch) *entity.CampaignBatch {
	return &entity.CampaignBatch{
		ID:              m.ID,
		RunID:           m.RunID,
		UserID:          m.UserID,
		TemplateID:      m.TemplateID,
		TemplateName:    m.TemplateName,
		TotalRecipients: m.TotalRecipients,
		SentCount:       m.SentCount,
		Timestamp:       m.Timestamp,
	}
}
