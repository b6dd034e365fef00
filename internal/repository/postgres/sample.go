package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/plms/lab-api/internal/model"
	"github.com/plms/lab-api/internal/repository"
)

type sampleRepository struct {
	db *sqlx.DB
}

func NewSampleRepository(db *sqlx.DB) repository.SampleRepository {
	return &sampleRepository{db: db}
}

func (r *sampleRepository) Get(ctx context.Context, id uuid.UUID) (*model.Sample, error) {
	query := `
		SELECT s.*, o.order_number
		FROM samples s
		JOIN orders o ON o.id = s.order_id
		WHERE s.id = $1
	`
	var sample model.Sample
	err := r.db.GetContext(ctx, &sample, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sample: %w", err)
	}

	if err := r.attachPatients(ctx, []*model.Sample{&sample}); err != nil {
		return nil, err
	}
	return &sample, nil
}

func (r *sampleRepository) List(ctx context.Context, params *model.SampleListParams) ([]*model.Sample, int, error) {
	var conds []string
	var args []interface{}

	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		p := fmt.Sprintf("$%d", len(args))
		conds = append(conds, fmt.Sprintf("(s.barcode ILIKE %[1]s OR o.order_number ILIKE %[1]s)", p))
	}
	if params.Status != "" && params.Status != "all" {
		args = append(args, params.Status)
		conds = append(conds, fmt.Sprintf("s.status = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	base := ` FROM samples s JOIN orders o ON o.id = s.order_id` + where

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*)`+base, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count samples: %w", err)
	}

	args = append(args, params.Limit, params.Offset())
	query := fmt.Sprintf(`SELECT s.*, o.order_number%s ORDER BY s.created_at DESC LIMIT $%d OFFSET $%d`,
		base, len(args)-1, len(args))

	var samples []*model.Sample
	if err := r.db.SelectContext(ctx, &samples, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list samples: %w", err)
	}

	if err := r.attachPatients(ctx, samples); err != nil {
		return nil, 0, err
	}
	return samples, total, nil
}

func (r *sampleRepository) UpdateStatus(ctx context.Context, sample *model.Sample) error {
	query := `
		UPDATE samples
		SET status = $1, collected_at = $2, collected_by = $3, notes = $4
		WHERE id = $5
	`
	res, err := r.db.ExecContext(ctx, query,
		sample.Status,
		sample.CollectedAt,
		sample.CollectedBy,
		sample.Notes,
		sample.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update sample: %w", err)
	}
	return checkAffected(res)
}

func (r *sampleRepository) attachPatients(ctx context.Context, samples []*model.Sample) error {
	if len(samples) == 0 {
		return nil
	}
	orderIDs := make([]uuid.UUID, 0, len(samples))
	for _, s := range samples {
		orderIDs = append(orderIDs, s.OrderID)
	}

	query, args, err := sqlx.In(`
		SELECT o.id AS order_id, p.id, p.patient_code, p.first_name, p.last_name, p.phone
		FROM orders o JOIN patients p ON p.id = o.patient_id
		WHERE o.id IN (?)`, orderIDs)
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	var rows []struct {
		OrderID uuid.UUID `db:"order_id"`
		model.PatientSummary
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to get sample patients: %w", err)
	}

	byOrder := make(map[uuid.UUID]*model.PatientSummary, len(rows))
	for i := range rows {
		byOrder[rows[i].OrderID] = &rows[i].PatientSummary
	}
	for _, s := range samples {
		s.Patient = byOrder[s.OrderID]
	}
	return nil
}
