package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/installment-engine/internal/domain"
)

const loanColumns = `id, client_id, amount, interest_rate, installments, method, start_date, end_date,
	total_amount, status, paid_installments, remaining_amount, version, created_at, updated_at`

const installmentColumns = `loan_id, number, due_date, principal_amount, interest_amount, total_amount,
	remaining_balance, status, payment_date, paid_amount, remaining_amount`

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES (:id, :client_id, :amount, :interest_rate, :installments, :method, :start_date, :end_date,
			:total_amount, :status, :paid_installments, :remaining_amount, :version, :created_at, :updated_at)
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.NamedExecContext(ctx, query, loan); err != nil {
		return err
	}

	if err = upsertInstallments(ctx, tx, loan); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *loanRepository) GetByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	query := r.db.Rebind(`SELECT ` + loanColumns + ` FROM loans WHERE id = ?`)

	var loan domain.Loan
	if err := r.db.GetContext(ctx, &loan, query, loanID); err != nil {
		return nil, err
	}

	planQuery := r.db.Rebind(`SELECT ` + installmentColumns + ` FROM installments WHERE loan_id = ? ORDER BY number`)
	if err := r.db.SelectContext(ctx, &loan.InstallmentPlan, planQuery, loanID); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) ListByClient(ctx context.Context, clientID string) ([]domain.Loan, error) {
	return r.list(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE client_id = ? ORDER BY created_at, id`,
		`SELECT `+installmentColumns+` FROM installments
			WHERE loan_id IN (SELECT id FROM loans WHERE client_id = ?) ORDER BY loan_id, number`,
		clientID,
	)
}

func (r *loanRepository) ListAll(ctx context.Context) ([]domain.Loan, error) {
	return r.list(ctx,
		`SELECT `+loanColumns+` FROM loans ORDER BY created_at, id`,
		`SELECT `+installmentColumns+` FROM installments ORDER BY loan_id, number`,
	)
}

func (r *loanRepository) ListActive(ctx context.Context) ([]domain.Loan, error) {
	return r.list(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE status = ? ORDER BY created_at, id`,
		`SELECT `+installmentColumns+` FROM installments
			WHERE loan_id IN (SELECT id FROM loans WHERE status = ?) ORDER BY loan_id, number`,
		domain.LoanStatusActive,
	)
}

// list runs a loan query and an installment query with the same args and
// attaches each plan to its loan.
func (r *loanRepository) list(ctx context.Context, loanQuery, planQuery string, args ...interface{}) ([]domain.Loan, error) {
	var loans []domain.Loan
	if err := r.db.SelectContext(ctx, &loans, r.db.Rebind(loanQuery), args...); err != nil {
		return nil, err
	}
	if len(loans) == 0 {
		return loans, nil
	}

	var plan []domain.Installment
	if err := r.db.SelectContext(ctx, &plan, r.db.Rebind(planQuery), args...); err != nil {
		return nil, err
	}

	index := make(map[string]int, len(loans))
	for i := range loans {
		index[loans[i].ID] = i
	}
	for _, inst := range plan {
		if i, ok := index[inst.LoanID]; ok {
			loans[i].InstallmentPlan = append(loans[i].InstallmentPlan, inst)
		}
	}

	return loans, nil
}

func (r *loanRepository) SavePlan(ctx context.Context, loan *domain.Loan) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err = updateLoan(ctx, tx, loan); err != nil {
		return err
	}
	if err = upsertInstallments(ctx, tx, loan); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	loan.Version++
	return nil
}

func (r *loanRepository) CommitPayment(ctx context.Context, loan *domain.Loan, record *domain.PaymentRecord) error {
	recordQuery := `
		INSERT INTO payment_records (id, loan_id, installment_number, payment_date, principal_paid, interest_paid,
			penalty_paid, cumulative_amount, excess_amount, payment_count, status, created_at, updated_at)
		VALUES (:id, :loan_id, :installment_number, :payment_date, :principal_paid, :interest_paid,
			:penalty_paid, :cumulative_amount, :excess_amount, :payment_count, :status, :created_at, :updated_at)
		ON CONFLICT (loan_id, installment_number) DO UPDATE SET
			payment_date = excluded.payment_date,
			principal_paid = excluded.principal_paid,
			interest_paid = excluded.interest_paid,
			penalty_paid = excluded.penalty_paid,
			cumulative_amount = excluded.cumulative_amount,
			excess_amount = excluded.excess_amount,
			payment_count = excluded.payment_count,
			status = excluded.status,
			updated_at = excluded.updated_at
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err = updateLoan(ctx, tx, loan); err != nil {
		return err
	}
	if err = upsertInstallments(ctx, tx, loan); err != nil {
		return err
	}
	if _, err = tx.NamedExecContext(ctx, recordQuery, record); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	loan.Version++
	return nil
}

// updateLoan writes the loan row if its stored version still equals loan.Version
func updateLoan(ctx context.Context, tx *sqlx.Tx, loan *domain.Loan) error {
	query := tx.Rebind(`
		UPDATE loans
		SET end_date = ?, total_amount = ?, status = ?, paid_installments = ?, remaining_amount = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`)

	result, err := tx.ExecContext(ctx, query,
		loan.EndDate,
		loan.TotalAmount,
		loan.Status,
		loan.PaidInstallments,
		loan.RemainingAmount,
		loan.UpdatedAt,
		loan.ID,
		loan.Version,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists int
		err = tx.GetContext(ctx, &exists, tx.Rebind(`SELECT COUNT(*) FROM loans WHERE id = ?`), loan.ID)
		if err != nil {
			return err
		}
		if exists == 0 {
			return sql.ErrNoRows
		}
		return ErrVersionConflict
	}

	return nil
}

func upsertInstallments(ctx context.Context, tx *sqlx.Tx, loan *domain.Loan) error {
	query := `
		INSERT INTO installments (` + installmentColumns + `)
		VALUES (:loan_id, :number, :due_date, :principal_amount, :interest_amount, :total_amount,
			:remaining_balance, :status, :payment_date, :paid_amount, :remaining_amount)
		ON CONFLICT (loan_id, number) DO UPDATE SET
			due_date = excluded.due_date,
			principal_amount = excluded.principal_amount,
			interest_amount = excluded.interest_amount,
			total_amount = excluded.total_amount,
			remaining_balance = excluded.remaining_balance,
			status = excluded.status,
			payment_date = excluded.payment_date,
			paid_amount = excluded.paid_amount,
			remaining_amount = excluded.remaining_amount
	`

	for _, inst := range loan.InstallmentPlan {
		inst.LoanID = loan.ID
		if _, err := tx.NamedExecContext(ctx, query, inst); err != nil {
			return err
		}
	}

	return nil
}
