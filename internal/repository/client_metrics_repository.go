package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/installment-engine/internal/domain"
)

type clientMetricsRepository struct {
	db *sqlx.DB
}

func NewClientMetricsRepository(db *sqlx.DB) ClientMetricsRepository {
	return &clientMetricsRepository{db: db}
}

func (r *clientMetricsRepository) Save(ctx context.Context, metrics *domain.ClientMetrics) error {
	query := `
		INSERT INTO client_metrics (client_id, total_loans, active_loans, completed_loans, defaulted_loans,
			total_borrowed, total_paid, on_time_payments, late_payments, average_payment_delay, updated_at)
		VALUES (:client_id, :total_loans, :active_loans, :completed_loans, :defaulted_loans,
			:total_borrowed, :total_paid, :on_time_payments, :late_payments, :average_payment_delay, :updated_at)
		ON CONFLICT (client_id) DO UPDATE SET
			total_loans = excluded.total_loans,
			active_loans = excluded.active_loans,
			completed_loans = excluded.completed_loans,
			defaulted_loans = excluded.defaulted_loans,
			total_borrowed = excluded.total_borrowed,
			total_paid = excluded.total_paid,
			on_time_payments = excluded.on_time_payments,
			late_payments = excluded.late_payments,
			average_payment_delay = excluded.average_payment_delay,
			updated_at = excluded.updated_at
	`

	_, err := r.db.NamedExecContext(ctx, query, metrics)
	return err
}

func (r *clientMetricsRepository) GetByClientID(ctx context.Context, clientID string) (*domain.ClientMetrics, error) {
	query := r.db.Rebind(`
		SELECT client_id, total_loans, active_loans, completed_loans, defaulted_loans, total_borrowed,
			total_paid, on_time_payments, late_payments, average_payment_delay, updated_at
		FROM client_metrics
		WHERE client_id = ?
	`)

	var metrics domain.ClientMetrics
	if err := r.db.GetContext(ctx, &metrics, query, clientID); err != nil {
		return nil, err
	}

	return &metrics, nil
}
