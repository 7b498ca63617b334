package repository

import (
	"context"

	"kioskpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccountRepository interface {
	// Create returns ErrDuplicateEmail when the email is already registered.
	Create(ctx context.Context, a *model.Account) error
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	List(ctx context.Context) ([]model.Account, error)
	// Delete reports false when no account had that id.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type accountRepo struct{ db *gorm.DB }

func NewAccountRepository(db *gorm.DB) AccountRepository { return &accountRepo{db: db} }

func (r *accountRepo) Create(ctx context.Context, a *model.Account) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.Email = model.NormalizeEmail(a.Email)
	err := r.db.WithContext(ctx).Create(a).Error
	if isUniqueViolation(err, "idx_accounts_email") {
		return ErrDuplicateEmail
	}
	return err
}

func (r *accountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	var a model.Account
	err := r.db.WithContext(ctx).Where("email = ?", model.NormalizeEmail(email)).First(&a).Error
	return &a, err
}

func (r *accountRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var a model.Account
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	return &a, err
}

func (r *accountRepo) List(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&accounts).Error
	return accounts, err
}

func (r *accountRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Account{})
	return res.RowsAffected > 0, res.Error
}
