package handler

import (
	"codemailer/entity"
	"codemailer/repo"
	"context"
	"github.com/rs/zerolog/log"
)

type LedgerHandler interface {
	GetCampaignBatches(ctx context.Context, req *GetCampaignBatchesRequest, res *GetCampaignBatchesResponse) error
	GetStats(ctx context.Context, req *GetStatsRequest, res *GetStatsResponse) error
}

type ledgerHandler struct {
	campaignBatchRepo repo.CampaignBatchRepo
	statsRepo         repo.StatsRepo
}

func NewLedgerHandler(campaignBatchRepo repo.CampaignBatchRepo, statsRepo repo.StatsRepo) LedgerHandler {
	return &ledgerHandler{
		campaignBatchRepo: campaignBatchRepo,
		statsRepo:         statsRepo,
	}
}

type GetCampaignBatchesRequest struct {
	ContextInfo
}

type GetCampaignBatchesResponse struct {
	CampaignBatches []*entity.CampaignBatch `json:"campaign_batches"`
}

func (h *ledgerHandler) GetCampaignBatches(ctx context.Context, req *GetCampaignBatchesRequest, res *GetCampaignBatchesResponse) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	batches, err := h.campaignBatchRepo.GetMany(ctx, req.GetUserID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get campaign batches failed: %v", err)
		return err
	}

	if batches == nil {
		batches = make([]*entity.CampaignBatch, 0)
	}
	res.CampaignBatches = batches

	return nil
}

type GetStatsRequest struct {
	ContextInfo
}

type GetStatsResponse struct {
	Stats *entity.Stats `json:"stats,omitempty"`
}

func (h *ledgerHandler) GetStats(ctx context.Context, req *GetStatsRequest, res *GetStatsResponse) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	stats, err := h.statsRepo.Get(ctx, req.GetUserID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get stats failed: %v", err)
		return err
	}

	res.Stats = stats

	return nil
}
