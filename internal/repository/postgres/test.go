package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/plms/lab-api/internal/model"
	"github.com/plms/lab-api/internal/repository"
)

type testRepository struct {
	db *sqlx.DB
}

func NewTestRepository(db *sqlx.DB) repository.TestRepository {
	return &testRepository{db: db}
}

func (r *testRepository) Create(ctx context.Context, test *model.Test) error {
	query := `
		INSERT INTO tests (id, name, code, category, price, sample_type, container_type, normal_range, unit, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	test.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		test.ID,
		test.Name,
		test.Code,
		test.Category,
		test.Price,
		test.SampleType,
		test.ContainerType,
		test.NormalRange,
		test.Unit,
		test.IsActive,
		test.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create test: %w", err)
	}
	return nil
}

func (r *testRepository) Get(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	var test model.Test
	err := r.db.GetContext(ctx, &test, `SELECT * FROM tests WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	return &test, nil
}

func (r *testRepository) GetByCode(ctx context.Context, code string, excludeID *uuid.UUID) (*model.Test, error) {
	query := `SELECT * FROM tests WHERE code = $1`
	args := []interface{}{code}
	if excludeID != nil {
		query += ` AND id <> $2`
		args = append(args, *excludeID)
	}

	var test model.Test
	err := r.db.GetContext(ctx, &test, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get test by code: %w", err)
	}
	return &test, nil
}

func (r *testRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Test, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM tests WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	query = r.db.Rebind(query)

	var tests []*model.Test
	if err := r.db.SelectContext(ctx, &tests, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get tests: %w", err)
	}
	return tests, nil
}

func (r *testRepository) Update(ctx context.Context, test *model.Test) error {
	query := `
		UPDATE tests
		SET name = $1, code = $2, category = $3, price = $4, sample_type = $5, container_type = $6, normal_range = $7, unit = $8, is_active = $9
		WHERE id = $10
	`
	res, err := r.db.ExecContext(ctx, query,
		test.Name,
		test.Code,
		test.Category,
		test.Price,
		test.SampleType,
		test.ContainerType,
		test.NormalRange,
		test.Unit,
		test.IsActive,
		test.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update test: %w", err)
	}
	return checkAffected(res)
}

func (r *testRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete test: %w", err)
	}
	return checkAffected(res)
}

func (r *testRepository) List(ctx context.Context, params *model.TestListParams) ([]*model.Test, int, error) {
	var conds []string
	var args []interface{}

	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		p := fmt.Sprintf("$%d", len(args))
		conds = append(conds, fmt.Sprintf("(name ILIKE %[1]s OR code ILIKE %[1]s OR category ILIKE %[1]s)", p))
	}
	if params.Category != "" && params.Category != "all" {
		args = append(args, params.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if params.Active != "" && params.Active != "all" {
		args = append(args, params.Active == "true")
		conds = append(conds, fmt.Sprintf("is_active = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM tests`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count tests: %w", err)
	}

	args = append(args, params.Limit, params.Offset())
	query := fmt.Sprintf(`SELECT * FROM tests%s ORDER BY name ASC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	var tests []*model.Test
	if err := r.db.SelectContext(ctx, &tests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list tests: %w", err)
	}
	return tests, total, nil
}

func (r *testRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.SelectContext(ctx, &categories,
		`SELECT DISTINCT category FROM tests WHERE is_active = true ORDER BY category ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *testRepository) InUse(ctx context.Context, id uuid.UUID) (bool, error) {
	var inUse bool
	err := r.db.GetContext(ctx, &inUse,
		`SELECT EXISTS (SELECT 1 FROM order_tests WHERE test_id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("failed to check test usage: %w", err)
	}
	return inUse, nil
}
