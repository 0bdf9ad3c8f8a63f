package handler

import (
	"codemailer/entity"
	"codemailer/repo"
	"context"
	"github.com/rs/zerolog/log"
	"strings"
)

// Sealer encrypts a credential before it is stored.
type Sealer interface {
	Seal(plainText string) (string, error)
}

type UserHandler interface {
	SetAppPassword(ctx context.Context, req *SetAppPasswordRequest, res *SetAppPasswordResponse) error
}

type userHandler struct {
	userRepo repo.UserRepo
	sealer   Sealer
}

func NewUserHandler(userRepo repo.UserRepo, sealer Sealer) UserHandler {
	return &userHandler{
		userRepo: userRepo,
		sealer:   sealer,
	}
}

type SetAppPasswordRequest struct {
	Email       *string `json:"email,omitempty" validate:"required,email"`
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,max=120"`
	AppPassword *string `json:"app_password,omitempty" validate:"required,min=1"`
}

func (req *SetAppPasswordRequest) GetEmail() string {
	if req != nil && req.Email != nil {
		return strings.ToLower(strings.TrimSpace(*req.Email))
	}
	return ""
}

func (req *SetAppPasswordRequest) GetDisplayName() string {
	if req != nil && req.DisplayName != nil {
		return *req.DisplayName
	}
	return ""
}

// GetAppPassword drops the spaces Gmail shows between the 4-letter groups.
func (req *SetAppPasswordRequest) GetAppPassword() string {
	if req != nil && req.AppPassword != nil {
		return strings.ReplaceAll(*req.AppPassword, " ", "")
	}
	return ""
}

type SetAppPasswordResponse struct {
	UserID *uint64 `json:"user_id,omitempty"`
}

func (h *userHandler) SetAppPassword(ctx context.Context, req *SetAppPasswordRequest, res *SetAppPasswordResponse) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	sealed, err := h.sealer.Seal(req.GetAppPassword())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("seal app password failed: %v", err)
		return err
	}

	userID, err := h.userRepo.SetAppPassword(ctx, entity.NewUser(req.GetEmail(), req.GetDisplayName(), sealed))
	if err != nil {
		log.Ctx(ctx).Error().Msgf("set app password failed: %v", err)
		return err
	}

	res.UserID = &userID

	return nil
}
