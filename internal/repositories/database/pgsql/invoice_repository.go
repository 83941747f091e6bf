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

type PgxInvoiceRepository struct {
	BaseRepository
}

// newPgxInvoiceRepository creates a new repository for invoice data.
func newPgxInvoiceRepository(pool *pgxpool.Pool) portsrepo.InvoiceRepositoryFacade {
	return &PgxInvoiceRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.InvoiceRepositoryFacade = (*PgxInvoiceRepository)(nil)

const invoiceColumns = `invoice_id, kind, party_ref, country, currency_code, issue_date, due_date, memo,
		approval_status, posting_status, payment_status, cancel_status,
		posted_at, paid_at, cancelled_at, exchange_rate, base_currency_total, journal_entry_id,
		created_at, created_by, last_updated_at, last_updated_by`

func scanInvoiceRow(row pgx.Row) (models.Invoice, error) {
	var m models.Invoice
	err := row.Scan(
		&m.InvoiceID,
		&m.Kind,
		&m.PartyRef,
		&m.Country,
		&m.CurrencyCode,
		&m.IssueDate,
		&m.DueDate,
		&m.Memo,
		&m.ApprovalStatus,
		&m.PostingStatus,
		&m.PaymentStatus,
		&m.CancelStatus,
		&m.PostedAt,
		&m.PaidAt,
		&m.CancelledAt,
		&m.ExchangeRate,
		&m.BaseCurrencyTotal,
		&m.JournalEntryID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func (r *PgxInvoiceRepository) insertLinesInTx(ctx context.Context, tx pgx.Tx, lines []models.InvoiceLine) error {
	if len(lines) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO invoice_lines (line_id, invoice_id, description, quantity, unit_price, tax_category, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	for _, l := range lines {
		batch.Queue(lineQuery,
			l.LineID,
			l.InvoiceID,
			l.Description,
			l.Quantity,
			l.UnitPrice,
			l.TaxCategory,
			l.CreatedAt,
			l.CreatedBy,
			l.LastUpdatedAt,
			l.LastUpdatedBy,
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to execute invoice line batch: %w", err)
	}
	return nil
}

// SaveInvoice inserts an invoice header with its lines in one transaction.
func (r *PgxInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice, lines []domain.InvoiceLine) error {
	modelInv := mapping.ToModelInvoice(invoice)

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		INSERT INTO invoices (
			invoice_id, kind, party_ref, country, currency_code, issue_date, due_date, memo,
			approval_status, posting_status, payment_status, cancel_status,
			posted_at, paid_at, cancelled_at, exchange_rate, base_currency_total, journal_entry_id,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22);
	`
	_, err = tx.Exec(ctx, query,
		modelInv.InvoiceID,
		modelInv.Kind,
		modelInv.PartyRef,
		modelInv.Country,
		modelInv.CurrencyCode,
		modelInv.IssueDate,
		modelInv.DueDate,
		modelInv.Memo,
		modelInv.ApprovalStatus,
		modelInv.PostingStatus,
		modelInv.PaymentStatus,
		modelInv.CancelStatus,
		modelInv.PostedAt,
		modelInv.PaidAt,
		modelInv.CancelledAt,
		modelInv.ExchangeRate,
		modelInv.BaseCurrencyTotal,
		modelInv.JournalEntryID,
		modelInv.CreatedAt,
		modelInv.CreatedBy,
		modelInv.LastUpdatedAt,
		modelInv.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: invoice %s", apperrors.ErrDuplicate, modelInv.InvoiceID)
		}
		return fmt.Errorf("failed to insert invoice %s: %w", modelInv.InvoiceID, err)
	}

	modelLines := make([]models.InvoiceLine, len(lines))
	for i, l := range lines {
		modelLines[i] = mapping.ToModelInvoiceLine(l)
	}
	if err := r.insertLinesInTx(ctx, tx, modelLines); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

// UpdateInvoice replaces the header fields and lines of an editable invoice.
// Lines are replaced wholesale; the service guards state legality.
func (r *PgxInvoiceRepository) UpdateInvoice(ctx context.Context, invoice domain.Invoice, lines []domain.InvoiceLine) error {
	modelInv := mapping.ToModelInvoice(invoice)

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		UPDATE invoices
		SET kind = $2, party_ref = $3, country = $4, currency_code = $5, issue_date = $6, due_date = $7, memo = $8,
		    approval_status = $9, last_updated_at = $10, last_updated_by = $11
		WHERE invoice_id = $1;
	`
	ct, err := tx.Exec(ctx, query,
		modelInv.InvoiceID,
		modelInv.Kind,
		modelInv.PartyRef,
		modelInv.Country,
		modelInv.CurrencyCode,
		modelInv.IssueDate,
		modelInv.DueDate,
		modelInv.Memo,
		modelInv.ApprovalStatus,
		modelInv.LastUpdatedAt,
		modelInv.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice %s: %w", modelInv.InvoiceID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("invoice " + modelInv.InvoiceID + " not found for update")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM invoice_lines WHERE invoice_id = $1;`, modelInv.InvoiceID); err != nil {
		return fmt.Errorf("failed to delete lines for invoice %s: %w", modelInv.InvoiceID, err)
	}

	modelLines := make([]models.InvoiceLine, len(lines))
	for i, l := range lines {
		modelLines[i] = mapping.ToModelInvoiceLine(l)
	}
	if err := r.insertLinesInTx(ctx, tx, modelLines); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

// DeleteInvoice removes a draft invoice and its lines.
func (r *PgxInvoiceRepository) DeleteInvoice(ctx context.Context, invoiceID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if _, err := tx.Exec(ctx, `DELETE FROM invoice_lines WHERE invoice_id = $1;`, invoiceID); err != nil {
		return fmt.Errorf("failed to delete lines for invoice %s: %w", invoiceID, err)
	}

	ct, err := tx.Exec(ctx, `DELETE FROM invoices WHERE invoice_id = $1;`, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to delete invoice %s: %w", invoiceID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("invoice " + invoiceID + " not found for delete")
	}

	return r.Commit(ctx, tx)
}

// FindInvoiceByID retrieves an invoice header by its ID.
func (r *PgxInvoiceRepository) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE invoice_id = $1;
	`
	m, err := scanInvoiceRow(r.Pool.QueryRow(ctx, query, invoiceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find invoice by ID %s: %w", invoiceID, err)
	}

	domainInv := mapping.ToDomainInvoice(m)
	return &domainInv, nil
}

// FindLinesByInvoiceID retrieves all lines for an invoice.
func (r *PgxInvoiceRepository) FindLinesByInvoiceID(ctx context.Context, invoiceID string) ([]domain.InvoiceLine, error) {
	query := `
		SELECT line_id, invoice_id, description, quantity, unit_price, tax_category, created_at, created_by, last_updated_at, last_updated_by
		FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY line_id;
	`
	rows, err := r.Pool.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for invoice %s: %w", invoiceID, err)
	}
	defer rows.Close()

	modelLines := make([]models.InvoiceLine, 0)
	for rows.Next() {
		var m models.InvoiceLine
		scanErr := rows.Scan(
			&m.LineID,
			&m.InvoiceID,
			&m.Description,
			&m.Quantity,
			&m.UnitPrice,
			&m.TaxCategory,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan line row for invoice %s: %w", invoiceID, scanErr)
		}
		modelLines = append(modelLines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line rows for invoice %s: %w", invoiceID, err)
	}

	return mapping.ToDomainInvoiceLineSlice(modelLines), nil
}

// ListInvoices retrieves a token-paginated list of invoices, newest issue date
// first.
func (r *PgxInvoiceRepository) ListInvoices(ctx context.Context, limit int, nextToken *string) ([]domain.Invoice, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `
		SELECT ` + invoiceColumns + `
		FROM invoices
	`
	filterClause := `WHERE TRUE`
	orderByClause := `ORDER BY issue_date DESC, created_at DESC`

	args := []interface{}{}
	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		filterClause += ` AND (issue_date, created_at) < ($1, $2)`
		args = append(args, lastDate, lastCreatedAt)
	}

	query := baseQuery + " " + filterClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query invoices", err)
	}
	defer rows.Close()

	modelInvoices := make([]models.Invoice, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanInvoiceRow(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan invoice row", scanErr)
		}
		modelInvoices = append(modelInvoices, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating invoice rows", err)
	}

	var nextTokenVal *string
	results := modelInvoices
	if len(modelInvoices) > limit {
		lastInv := modelInvoices[limit-1]
		newToken := pagination.EncodeToken(lastInv.IssueDate, lastInv.CreatedAt)
		nextTokenVal = &newToken
		results = modelInvoices[:limit]
	}

	domainInvoices := make([]domain.Invoice, len(results))
	for i, m := range results {
		domainInvoices[i] = mapping.ToDomainInvoice(m)
	}

	return domainInvoices, nextTokenVal, nil
}

// SumAllocations returns the total amount allocated against an invoice.
func (r *PgxInvoiceRepository) SumAllocations(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	return r.sumAllocations(ctx, r.Pool, invoiceID)
}

// SumAllocationsInTx totals allocations inside the locking transaction.
func (r *PgxInvoiceRepository) SumAllocationsInTx(ctx context.Context, tx pgx.Tx, invoiceID string) (decimal.Decimal, error) {
	return r.sumAllocations(ctx, tx, invoiceID)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *PgxInvoiceRepository) sumAllocations(ctx context.Context, q rowQuerier, invoiceID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM payment_allocations
		WHERE invoice_id = $1;
	`
	var total decimal.Decimal
	if err := q.QueryRow(ctx, query, invoiceID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum allocations for invoice %s: %w", invoiceID, err)
	}
	return total, nil
}

// FindInvoiceForUpdate loads an invoice header under a row lock. NOWAIT turns
// lock contention into an immediate, retryable conflict error instead of a
// blocked allocation.
func (r *PgxInvoiceRepository) FindInvoiceForUpdate(ctx context.Context, tx pgx.Tx, invoiceID string) (*domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE invoice_id = $1
		FOR UPDATE NOWAIT;
	`
	m, err := scanInvoiceRow(tx.QueryRow(ctx, query, invoiceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "55P03" {
			return nil, &apperrors.ConcurrentAllocationConflictError{InvoiceID: invoiceID}
		}
		return nil, fmt.Errorf("failed to lock invoice %s: %w", invoiceID, err)
	}

	domainInv := mapping.ToDomainInvoice(m)
	return &domainInv, nil
}

// UpdateApprovalStatus records an approval workflow transition.
func (r *PgxInvoiceRepository) UpdateApprovalStatus(ctx context.Context, invoiceID string, status domain.ApprovalStatus, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE invoices
		SET approval_status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE invoice_id = $1;
	`
	ct, err := r.Pool.Exec(ctx, query, invoiceID, string(status), updatedAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to update approval status for invoice %s: %w", invoiceID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("invoice " + invoiceID + " not found for approval update")
	}
	return nil
}

// UpdateCancellation marks an invoice cancelled.
func (r *PgxInvoiceRepository) UpdateCancellation(ctx context.Context, invoiceID string, cancelledAt time.Time, updatedBy string) error {
	query := `
		UPDATE invoices
		SET cancel_status = 'CANCELLED', cancelled_at = $2, last_updated_at = $2, last_updated_by = $3
		WHERE invoice_id = $1;
	`
	ct, err := r.Pool.Exec(ctx, query, invoiceID, cancelledAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to cancel invoice %s: %w", invoiceID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("invoice " + invoiceID + " not found for cancellation")
	}
	return nil
}

// UpdateCancellationInTx marks an invoice cancelled inside the caller's
// transaction.
func (r *PgxInvoiceRepository) UpdateCancellationInTx(ctx context.Context, tx pgx.Tx, invoiceID string, cancelledAt time.Time, updatedBy string) error {
	query := `
		UPDATE invoices
		SET cancel_status = 'CANCELLED', cancelled_at = $2, last_updated_at = $2, last_updated_by = $3
		WHERE invoice_id = $1;
	`
	ct, err := tx.Exec(ctx, query, invoiceID, cancelledAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to cancel invoice %s: %w", invoiceID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("invoice " + invoiceID + " not found for cancellation")
	}
	return nil
}

// MarkPostedInTx locks in the posting-time exchange rate, base total and
// journal entry link. These columns are write-once.
func (r *PgxInvoiceRepository) MarkPostedInTx(ctx context.Context, tx pgx.Tx, invoiceID string, exchangeRate, baseCurrencyTotal decimal.Decimal, journalEntryID string, postedAt time.Time, updatedBy string) error {
	query := `
		UPDATE invoices
		SET posting_status = 'POSTED', exchange_rate = $2, base_currency_total = $3, journal_entry_id = $4,
		    posted_at = $5, last_updated_at = $5, last_updated_by = $6
		WHERE invoice_id = $1 AND posting_status = 'DRAFT';
	`
	ct, err := tx.Exec(ctx, query, invoiceID, exchangeRate, baseCurrencyTotal, journalEntryID, postedAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to mark invoice %s posted: %w", invoiceID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: invoice %s not in DRAFT posting status", apperrors.ErrConflict, invoiceID)
	}
	return nil
}

// MarkReversedInTx flips the posting status of a posted invoice to REVERSED.
func (r *PgxInvoiceRepository) MarkReversedInTx(ctx context.Context, tx pgx.Tx, invoiceID string, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE invoices
		SET posting_status = 'REVERSED', last_updated_at = $2, last_updated_by = $3
		WHERE invoice_id = $1 AND posting_status = 'POSTED';
	`
	ct, err := tx.Exec(ctx, query, invoiceID, updatedAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to mark invoice %s reversed: %w", invoiceID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: invoice %s not in POSTED posting status", apperrors.ErrConflict, invoiceID)
	}
	return nil
}

// UpdatePaymentStatusInTx records the derived payment status. paid_at is set
// when the invoice closes and cleared if an allocation reopens it.
func (r *PgxInvoiceRepository) UpdatePaymentStatusInTx(ctx context.Context, tx pgx.Tx, invoiceID string, status domain.PaymentStatus, paidAt *time.Time, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE invoices
		SET payment_status = $2, paid_at = $3, last_updated_at = $4, last_updated_by = $5
		WHERE invoice_id = $1;
	`
	ct, err := tx.Exec(ctx, query, invoiceID, string(status), paidAt, updatedAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to update payment status for invoice %s: %w", invoiceID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("invoice " + invoiceID + " not found for payment status update")
	}
	return nil
}
