package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/plms/lab-api/internal/model"
	"github.com/plms/lab-api/internal/repository"
)

type analyticsRepository struct {
	db *sqlx.DB
}

func NewAnalyticsRepository(db *sqlx.DB) repository.AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) CountPatients(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM patients`); err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return count, nil
}

func (r *analyticsRepository) CountOrders(ctx context.Context, since *time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM orders`
	var args []interface{}
	if since != nil {
		query += ` WHERE created_at >= $1`
		args = append(args, *since)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

func (r *analyticsRepository) CountOrdersByStatus(ctx context.Context, status model.OrderStatus) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM orders WHERE status = $1`, status); err != nil {
		return 0, fmt.Errorf("failed to count orders by status: %w", err)
	}
	return count, nil
}

func (r *analyticsRepository) Revenue(ctx context.Context, since *time.Time) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(total_amount), 0) FROM orders`
	var args []interface{}
	if since != nil {
		query += ` WHERE created_at >= $1`
		args = append(args, *since)
	}

	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return total, nil
}

func (r *analyticsRepository) DailyOrderCounts(ctx context.Context, days int) ([]model.DailyOrderCount, error) {
	query := `
		SELECT to_char(d.day, 'YYYY-MM-DD') AS date, COUNT(o.id) AS orders
		FROM generate_series(CURRENT_DATE - ($1 - 1) * INTERVAL '1 day', CURRENT_DATE, '1 day') AS d(day)
		LEFT JOIN orders o ON o.created_at >= d.day AND o.created_at < d.day + INTERVAL '1 day'
		GROUP BY d.day
		ORDER BY d.day ASC
	`
	var rows []struct {
		Date   string `db:"date"`
		Orders int    `db:"orders"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, days); err != nil {
		return nil, fmt.Errorf("failed to count daily orders: %w", err)
	}

	out := make([]model.DailyOrderCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.DailyOrderCount{Date: row.Date, Orders: row.Orders})
	}
	return out, nil
}

func (r *analyticsRepository) TopTests(ctx context.Context, limit int) ([]model.TopTest, error) {
	query := `
		SELECT t.name, t.code, COUNT(ot.id) AS count
		FROM order_tests ot
		JOIN tests t ON t.id = ot.test_id
		GROUP BY t.id, t.name, t.code
		ORDER BY count DESC
		LIMIT $1
	`
	var tests []model.TopTest
	if err := r.db.SelectContext(ctx, &tests, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get top tests: %w", err)
	}
	return tests, nil
}

func (r *analyticsRepository) RevenueByDay(ctx context.Context, since time.Time) ([]model.RevenuePoint, error) {
	query := `
		SELECT to_char(created_at::date, 'YYYY-MM-DD') AS date, SUM(total_amount) AS revenue
		FROM orders
		WHERE created_at >= $1 AND status = $2
		GROUP BY created_at::date
		ORDER BY created_at::date ASC
	`
	var points []model.RevenuePoint
	if err := r.db.SelectContext(ctx, &points, query, since, model.StatusVerified); err != nil {
		return nil, fmt.Errorf("failed to get revenue by day: %w", err)
	}
	return points, nil
}
