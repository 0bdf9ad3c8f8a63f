package repo

import (
	"codemailer/entity"
	"codemailer/pkg/errutil"
	"context"
	"errors"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errutil.NotFoundError(errors.New("user not found"))
)

type User struct {
	ID          *uint64
	Email       *string
	DisplayName *string
	AppPassword *string
	CreateTime  *uint64
	UpdateTime  *uint64
}

func (m *User) TableName() string {
	return "user_tab"
}

func (m *User) GetID() uint64 {
	if m != nil && m.ID != nil {
		return *m.ID
	}
	return 0
}

type UserRepo interface {
	GetByID(ctx context.Context, userID uint64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// SetAppPassword stores the sealed credential of the user owning the
	// email, creating the user on first use.
	SetAppPassword(ctx context.Context, user *entity.User) (uint64, error)
}

type userRepo struct {
	baseRepo BaseRepo
}

func NewUserRepo(_ context.Context, baseRepo BaseRepo) UserRepo {
	return &userRepo{baseRepo: baseRepo}
}

func (r *userRepo) GetByID(ctx context.Context, userID uint64) (*entity.User, error) {
	return r.get(ctx, []*Condition{
		{
			Field: "id",
			Value: userID,
			Op:    OpEq,
		},
	})
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.get(ctx, []*Condition{
		{
			Field: "email",
			Value: email,
			Op:    OpEq,
		},
	})
}

func (r *userRepo) get(ctx context.Context, conditions []*Condition) (*entity.User, error) {
	user := new(User)

	if err := r.baseRepo.Get(ctx, user, &Filter{
		Conditions: conditions,
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return ToUser(user), nil
}

func (r *userRepo) SetAppPassword(ctx context.Context, user *entity.User) (uint64, error) {
	var userID uint64
	if err := r.baseRepo.RunTx(ctx, func(ctx context.Context) error {
		existing, err := r.GetByEmail(ctx, user.GetEmail())
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			return err
		}

		if existing == nil {
			userModel := ToUserModel(user)
			if err := r.baseRepo.Create(ctx, userModel); err != nil {
				return err
			}
			userID = userModel.GetID()
			return nil
		}

		userID = existing.GetID()

		return r.baseRepo.Update(ctx, &User{
			ID:          existing.ID,
			DisplayName: user.DisplayName,
			AppPassword: user.AppPassword,
			UpdateTime:  user.UpdateTime,
		})
	}); err != nil {
		return 0, err
	}

	return userID, nil
}

func ToUser(user *User) *entity.User {
	return &entity.User{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		AppPassword: user.AppPassword,
		CreateTime:  user.CreateTime,
		UpdateTime:  user.UpdateTime,
	}
}

func ToUserModel(user *entity.User) *User {
	return &User{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		AppPassword: user.AppPassword,
		CreateTime:  user.CreateTime,
		UpdateTime:  user.UpdateTime,
	}
}
