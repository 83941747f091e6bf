package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/corefin/accounting_core_app/internal/apperrors"
	"github.com/corefin/accounting_core_app/internal/core/domain"
	portsrepo "github.com/corefin/accounting_core_app/internal/core/ports/repositories"
	"github.com/corefin/accounting_core_app/internal/models"
	"github.com/corefin/accounting_core_app/internal/utils/mapping"
	"github.com/corefin/accounting_core_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxPaymentRepository struct {
	BaseRepository
}

// newPgxPaymentRepository creates a new repository for payment data.
func newPgxPaymentRepository(pool *pgxpool.Pool) portsrepo.PaymentRepositoryFacade {
	return &PgxPaymentRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.PaymentRepositoryFacade = (*PgxPaymentRepository)(nil)

const paymentColumns = `payment_id, kind, party_ref, currency_code, payment_date, amount, memo, status,
		invoice_currency, exchange_rate, journal_entry_id,
		created_at, created_by, last_updated_at, last_updated_by`

func scanPaymentRow(row pgx.Row) (models.Payment, error) {
	var m models.Payment
	err := row.Scan(
		&m.PaymentID,
		&m.Kind,
		&m.PartyRef,
		&m.CurrencyCode,
		&m.PaymentDate,
		&m.Amount,
		&m.Memo,
		&m.Status,
		&m.InvoiceCurrency,
		&m.ExchangeRate,
		&m.JournalEntryID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SavePaymentInTx persists a payment header and its allocation rows inside the
// caller's transaction, so creation shares the transaction with the allocation
// validation lock region.
func (r *PgxPaymentRepository) SavePaymentInTx(ctx context.Context, tx pgx.Tx, payment domain.Payment, allocations []domain.PaymentAllocation) error {
	modelPayment := mapping.ToModelPayment(payment)

	query := `
		INSERT INTO payments (
			payment_id, kind, party_ref, currency_code, payment_date, amount, memo, status,
			invoice_currency, exchange_rate, journal_entry_id,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := tx.Exec(ctx, query,
		modelPayment.PaymentID,
		modelPayment.Kind,
		modelPayment.PartyRef,
		modelPayment.CurrencyCode,
		modelPayment.PaymentDate,
		modelPayment.Amount,
		modelPayment.Memo,
		modelPayment.Status,
		modelPayment.InvoiceCurrency,
		modelPayment.ExchangeRate,
		modelPayment.JournalEntryID,
		modelPayment.CreatedAt,
		modelPayment.CreatedBy,
		modelPayment.LastUpdatedAt,
		modelPayment.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: payment %s", apperrors.ErrDuplicate, modelPayment.PaymentID)
		}
		return fmt.Errorf("failed to insert payment %s: %w", modelPayment.PaymentID, err)
	}

	if len(allocations) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	allocQuery := `
		INSERT INTO payment_allocations (allocation_id, payment_id, invoice_id, amount, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	for _, a := range allocations {
		modelAlloc := mapping.ToModelPaymentAllocation(a)
		batch.Queue(allocQuery,
			modelAlloc.AllocationID,
			modelAlloc.PaymentID,
			modelAlloc.InvoiceID,
			modelAlloc.Amount,
			modelAlloc.CreatedAt,
			modelAlloc.CreatedBy,
			modelAlloc.LastUpdatedAt,
			modelAlloc.LastUpdatedBy,
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to execute allocation batch for payment %s: %w", modelPayment.PaymentID, err)
	}
	return nil
}

// MarkPostedInTx records the posting outcome on the payment header.
func (r *PgxPaymentRepository) MarkPostedInTx(ctx context.Context, tx pgx.Tx, paymentID string, journalEntryID string, invoiceCurrency *string, exchangeRate *decimal.Decimal, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE payments
		SET status = 'POSTED', journal_entry_id = $2, invoice_currency = $3, exchange_rate = $4,
		    last_updated_at = $5, last_updated_by = $6
		WHERE payment_id = $1 AND status = 'DRAFT';
	`
	ct, err := tx.Exec(ctx, query, paymentID, journalEntryID, invoiceCurrency, exchangeRate, updatedAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to mark payment %s posted: %w", paymentID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: payment %s not in DRAFT status", apperrors.ErrConflict, paymentID)
	}
	return nil
}

// FindPaymentByID retrieves a payment header by its ID.
func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE payment_id = $1;
	`
	m, err := scanPaymentRow(r.Pool.QueryRow(ctx, query, paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payment by ID %s: %w", paymentID, err)
	}

	domainPayment := mapping.ToDomainPayment(m)
	return &domainPayment, nil
}

// FindAllocationsByPaymentID retrieves all allocation rows for a payment.
func (r *PgxPaymentRepository) FindAllocationsByPaymentID(ctx context.Context, paymentID string) ([]domain.PaymentAllocation, error) {
	query := `
		SELECT allocation_id, payment_id, invoice_id, amount, created_at, created_by, last_updated_at, last_updated_by
		FROM payment_allocations
		WHERE payment_id = $1
		ORDER BY invoice_id;
	`
	rows, err := r.Pool.Query(ctx, query, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations for payment %s: %w", paymentID, err)
	}
	defer rows.Close()

	modelAllocs := make([]models.PaymentAllocation, 0)
	for rows.Next() {
		var m models.PaymentAllocation
		scanErr := rows.Scan(
			&m.AllocationID,
			&m.PaymentID,
			&m.InvoiceID,
			&m.Amount,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan allocation row for payment %s: %w", paymentID, scanErr)
		}
		modelAllocs = append(modelAllocs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocation rows for payment %s: %w", paymentID, err)
	}

	return mapping.ToDomainPaymentAllocationSlice(modelAllocs), nil
}

// ListPayments retrieves a token-paginated list of payments, newest first.
func (r *PgxPaymentRepository) ListPayments(ctx context.Context, limit int, nextToken *string) ([]domain.Payment, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `
		SELECT ` + paymentColumns + `
		FROM payments
	`
	filterClause := `WHERE TRUE`
	orderByClause := `ORDER BY payment_date DESC, created_at DESC`

	args := []interface{}{}
	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		filterClause += ` AND (payment_date, created_at) < ($1, $2)`
		args = append(args, lastDate, lastCreatedAt)
	}

	query := baseQuery + " " + filterClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query payments", err)
	}
	defer rows.Close()

	modelPayments := make([]models.Payment, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanPaymentRow(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan payment row", scanErr)
		}
		modelPayments = append(modelPayments, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating payment rows", err)
	}

	var nextTokenVal *string
	results := modelPayments
	if len(modelPayments) > limit {
		lastPayment := modelPayments[limit-1]
		newToken := pagination.EncodeToken(lastPayment.PaymentDate, lastPayment.CreatedAt)
		nextTokenVal = &newToken
		results = modelPayments[:limit]
	}

	domainPayments := make([]domain.Payment, len(results))
	for i, m := range results {
		domainPayments[i] = mapping.ToDomainPayment(m)
	}

	return domainPayments, nextTokenVal, nil
}
