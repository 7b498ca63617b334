package service

import (
	"context"
	"errors"
	"time"

	"kioskpos/internal/auth"
	"kioskpos/internal/dto"
	"kioskpos/internal/model"
	"kioskpos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type AccountService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.AccountResponse, error)
	List(ctx context.Context) ([]dto.AccountResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type accountService struct {
	repo   repository.AccountRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenService
	ttl    time.Duration
}

func NewAccountService(repo repository.AccountRepository, hasher *auth.PasswordHasher, tokens *auth.TokenService, ttl time.Duration) AccountService {
	return &accountService{repo: repo, hasher: hasher, tokens: tokens, ttl: ttl}
}

func (s *accountService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	account, err := s.repo.FindByEmail(ctx, req.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// same cost as a wrong password so timing does not reveal the email
		s.hasher.Burn(req.Password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.hasher.Verify(req.Password, account.PasswordHash)
	if err != nil {
		log.Error().Err(err).Str("account_id", account.ID.String()).Msg("stored password digest is unreadable")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(account.ID.String(), account.Role, s.ttl)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{Token: token, Account: toAccountResponse(account)}, nil
}

func (s *accountService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AccountResponse, error) {
	role := model.RoleFrontdesk
	if req.Role != "" {
		r, ok := model.ParseRole(req.Role)
		if !ok {
			return nil, fieldError("role", "Rôle invalide")
		}
		role = r
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	account := &model.Account{
		Email:        model.NormalizeEmail(req.Email),
		Username:     req.Username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	log.Info().Str("account_id", account.ID.String()).Str("role", string(role)).Msg("account registered")

	resp := toAccountResponse(account)
	return &resp, nil
}

func (s *accountService) List(ctx context.Context) ([]dto.AccountResponse, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.AccountResponse, len(accounts))
	for i := range accounts {
		resp[i] = toAccountResponse(&accounts[i])
	}
	return resp, nil
}

func (s *accountService) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	log.Info().Str("account_id", id.String()).Msg("account deleted")
	return nil
}

func toAccountResponse(a *model.Account) dto.AccountResponse {
	return dto.AccountResponse{
		ID:        a.ID.String(),
		Email:     a.Email,
		Username:  a.Username,
		Role:      string(a.Role),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
