package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corefin/accounting_core_app/internal/apperrors"
	"github.com/corefin/accounting_core_app/internal/core/domain"
	portsrepo "github.com/corefin/accounting_core_app/internal/core/ports/repositories"
	portssvc "github.com/corefin/accounting_core_app/internal/core/ports/services"
	"github.com/corefin/accounting_core_app/internal/dto"
	"github.com/corefin/accounting_core_app/internal/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// accountService provides business logic for the chart of accounts.
type accountService struct {
	accountRepo  portsrepo.AccountRepositoryFacade
	currencyRepo portsrepo.CurrencyRepositoryFacade
}

// NewAccountService creates a new account service.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, currencyRepo portsrepo.CurrencyRepositoryFacade) portssvc.AccountSvcFacade {
	return &accountService{
		accountRepo:  accountRepo,
		currencyRepo: currencyRepo,
	}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount persists a new chart-of-accounts entry.
func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	// Validate currency exists before tying an account to it.
	if _, err := s.currencyRepo.FindCurrencyByCode(ctx, req.CurrencyCode); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: currency code '%s' not found", apperrors.ErrValidation, req.CurrencyCode)
		}
		return nil, fmt.Errorf("failed to validate currency '%s': %w", req.CurrencyCode, err)
	}

	// A posting purpose maps to exactly one active account.
	if req.Purpose != nil {
		existing, err := s.accountRepo.FindAccountByPurpose(ctx, *req.Purpose)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to check purpose mapping: %w", err)
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: purpose %s is already mapped to account %s", apperrors.ErrDuplicate, *req.Purpose, existing.AccountID)
		}
	}

	now := time.Now()
	account := domain.Account{
		AccountID:    uuid.NewString(),
		Name:         req.Name,
		AccountType:  req.AccountType,
		CurrencyCode: req.CurrencyCode,
		Purpose:      req.Purpose,
		Description:  req.Description,
		IsActive:     true,
		Balance:      decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	logger.Info("Account created successfully", slog.String("account_id", account.AccountID), slog.String("account_type", string(account.AccountType)))
	return &account, nil
}

// GetAccountByID retrieves a specific account by its ID.
func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account by ID %s: %w", accountID, err)
	}
	return account, nil
}

// GetAccountByPurpose retrieves the active account designated for a posting purpose.
func (s *accountService) GetAccountByPurpose(ctx context.Context, purpose domain.AccountPurpose) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByPurpose(ctx, purpose)
	if err != nil {
		return nil, fmt.Errorf("failed to find account for purpose %s: %w", purpose, err)
	}
	return account, nil
}

// ListAccounts retrieves all accounts.
func (s *accountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if accounts == nil {
		return []domain.Account{}, nil
	}
	return accounts, nil
}

// DeactivateAccount marks an account as inactive. Inactive accounts keep their
// history but reject new postings.
func (s *accountService) DeactivateAccount(ctx context.Context, accountID string, requestingUserID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to find account %s for deactivation: %w", accountID, err)
	}
	if !account.IsActive {
		return nil // Already inactive, nothing to do
	}

	now := time.Now()
	account.IsActive = false
	account.LastUpdatedAt = now
	account.LastUpdatedBy = requestingUserID

	if err := s.accountRepo.SaveAccount(ctx, *account); err != nil {
		logger.Error("Failed to deactivate account", slog.String("account_id", accountID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to deactivate account %s: %w", accountID, err)
	}

	logger.Info("Account deactivated", slog.String("account_id", accountID))
	return nil
}
