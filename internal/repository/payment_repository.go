package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/installment-engine/internal/domain"
)

const recordColumns = `id, loan_id, installment_number, payment_date, principal_paid, interest_paid,
	penalty_paid, cumulative_amount, excess_amount, payment_count, status, created_at, updated_at`

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) FindRecord(ctx context.Context, loanID string, installmentNumber int) (*domain.PaymentRecord, error) {
	query := r.db.Rebind(`
		SELECT ` + recordColumns + `
		FROM payment_records
		WHERE loan_id = ? AND installment_number = ?
	`)

	var record domain.PaymentRecord
	err := r.db.GetContext(ctx, &record, query, loanID, installmentNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *paymentRepository) Query(ctx context.Context, loanID string) ([]domain.PaymentRecord, error) {
	query := r.db.Rebind(`
		SELECT ` + recordColumns + `
		FROM payment_records
		WHERE loan_id = ?
		ORDER BY installment_number
	`)

	records := []domain.PaymentRecord{}
	if err := r.db.SelectContext(ctx, &records, query, loanID); err != nil {
		return nil, err
	}

	return records, nil
}
