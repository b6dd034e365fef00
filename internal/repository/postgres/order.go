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

type orderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

// Create inserts the order, its line items and its samples in a single
// transaction. The order number and sample barcodes come from database
// sequences, so concurrent creations can never collide.
func (r *orderRepository) Create(ctx context.Context, order *model.Order, lineItems []*model.OrderTest, samples []*model.Sample) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.GetContext(ctx, &seq, `SELECT nextval('order_number_seq')`); err != nil {
		return fmt.Errorf("failed to allocate order number: %w", err)
	}
	order.OrderNumber = model.FormatOrderNumber(seq)
	order.CreatedAt = time.Now()

	query := `
		INSERT INTO orders (id, order_number, patient_id, referring_doctor_id, status, created_by, total_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.ExecContext(ctx, query,
		order.ID,
		order.OrderNumber,
		order.PatientID,
		order.ReferringDoctorID,
		order.Status,
		order.CreatedBy,
		order.TotalAmount,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range lineItems {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_tests (id, order_id, test_id) VALUES ($1, $2, $3)`,
			item.ID, item.OrderID, item.TestID,
		)
		if err != nil {
			return fmt.Errorf("failed to create order line item: %w", err)
		}
	}

	for _, sample := range samples {
		var barcodeSeq int64
		if err := tx.GetContext(ctx, &barcodeSeq, `SELECT nextval('sample_barcode_seq')`); err != nil {
			return fmt.Errorf("failed to allocate sample barcode: %w", err)
		}
		sample.Barcode = model.FormatSampleBarcode(barcodeSeq)
		sample.CreatedAt = order.CreatedAt

		_, err = tx.ExecContext(ctx,
			`INSERT INTO samples (id, barcode, order_id, sample_type, container_type, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			sample.ID, sample.Barcode, sample.OrderID, sample.SampleType, sample.ContainerType, sample.Status, sample.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	return nil
}

func (r *orderRepository) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := r.db.GetContext(ctx, &order, `SELECT * FROM orders WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := r.hydrate(ctx, []*model.Order{&order}); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, params *model.OrderListParams) ([]*model.Order, int, error) {
	var conds []string
	var args []interface{}

	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		p := fmt.Sprintf("$%d", len(args))
		conds = append(conds, fmt.Sprintf(
			`(o.order_number ILIKE %[1]s OR EXISTS (
				SELECT 1 FROM patients p WHERE p.id = o.patient_id
				AND (p.first_name ILIKE %[1]s OR p.last_name ILIKE %[1]s OR p.patient_code ILIKE %[1]s)))`, p))
	}
	if params.Status != "" && params.Status != "all" {
		args = append(args, params.Status)
		conds = append(conds, fmt.Sprintf("o.status = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM orders o`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	args = append(args, params.Limit, params.Offset())
	query := fmt.Sprintf(`SELECT o.* FROM orders o%s ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	var orders []*model.Order
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	if err := r.hydrate(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.SelectContext(ctx, &orders,
		`SELECT * FROM orders WHERE patient_id = $1 ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patient orders: %w", err)
	}

	if err := r.hydrate(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus writes the status and its side-effect columns. A move to
// SAMPLE_PROCESSING also marks the order's pending samples collected, in
// the same transaction.
func (r *orderRepository) UpdateStatus(ctx context.Context, order *model.Order) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE orders
		SET status = $1, sample_collected_at = $2, sample_collected_by = $3, report_ready_at = $4, verified_by = $5
		WHERE id = $6
	`
	res, err := tx.ExecContext(ctx, query,
		order.Status,
		order.SampleCollectedAt,
		order.SampleCollectedBy,
		order.ReportReadyAt,
		order.VerifiedBy,
		order.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return err
	}

	if order.Status == model.StatusSampleProcessing {
		_, err = tx.ExecContext(ctx,
			`UPDATE samples SET status = $1, collected_at = $2, collected_by = $3
			 WHERE order_id = $4 AND status = $5`,
			model.SampleCollected,
			order.SampleCollectedAt,
			order.SampleCollectedBy,
			order.ID,
			model.SamplePending,
		)
		if err != nil {
			return fmt.Errorf("failed to mark samples collected: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit status update: %w", err)
	}
	return nil
}

func (r *orderRepository) UpdateResults(ctx context.Context, orderID uuid.UUID, entries []model.TestResultEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, entry := range entries {
		testID, err := uuid.Parse(entry.TestID)
		if err != nil {
			return fmt.Errorf("invalid test id %q: %w", entry.TestID, err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE order_tests SET result = $1, notes = $2 WHERE order_id = $3 AND test_id = $4`,
			entry.Result, entry.Notes, orderID, testID,
		)
		if err != nil {
			return fmt.Errorf("failed to update test result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit results: %w", err)
	}
	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return checkAffected(res)
}

// hydrate attaches patients, line items, referring doctors and actor
// names to the given orders with batch queries.
func (r *orderRepository) hydrate(ctx context.Context, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	orderIDs := make([]uuid.UUID, 0, len(orders))
	patientIDs := make([]uuid.UUID, 0, len(orders))
	userIDs := make([]uuid.UUID, 0, len(orders)*3)
	doctorIDs := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
		patientIDs = append(patientIDs, o.PatientID)
		userIDs = append(userIDs, o.CreatedBy)
		if o.SampleCollectedBy != nil {
			userIDs = append(userIDs, *o.SampleCollectedBy)
		}
		if o.VerifiedBy != nil {
			userIDs = append(userIDs, *o.VerifiedBy)
		}
		if o.ReferringDoctorID != nil {
			doctorIDs = append(doctorIDs, *o.ReferringDoctorID)
		}
	}

	patients, err := r.patientSummaries(ctx, patientIDs)
	if err != nil {
		return err
	}
	items, err := r.lineItems(ctx, orderIDs)
	if err != nil {
		return err
	}
	users, err := r.userNames(ctx, userIDs)
	if err != nil {
		return err
	}
	doctors, err := r.doctorSummaries(ctx, doctorIDs)
	if err != nil {
		return err
	}

	for _, o := range orders {
		o.Patient = patients[o.PatientID]
		o.OrderTests = items[o.ID]
		o.Creator = users[o.CreatedBy]
		if o.SampleCollectedBy != nil {
			o.SampleCollector = users[*o.SampleCollectedBy]
		}
		if o.VerifiedBy != nil {
			o.Verifier = users[*o.VerifiedBy]
		}
		if o.ReferringDoctorID != nil {
			o.ReferringDoctor = doctors[*o.ReferringDoctorID]
		}
	}
	return nil
}

func (r *orderRepository) patientSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.PatientSummary, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		`SELECT id, patient_code, first_name, last_name, phone FROM patients WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	var rows []*model.PatientSummary
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get patients: %w", err)
	}
	out := make(map[uuid.UUID]*model.PatientSummary, len(rows))
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

func (r *orderRepository) lineItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]*model.OrderTest, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM order_tests WHERE order_id IN (?)`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	var items []*model.OrderTest
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get order line items: %w", err)
	}

	testIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		testIDs = append(testIDs, item.TestID)
	}
	tests := make(map[uuid.UUID]*model.Test)
	if len(testIDs) > 0 {
		query, args, err = sqlx.In(`SELECT * FROM tests WHERE id IN (?)`, testIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to build query: %w", err)
		}
		var rows []*model.Test
		if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("failed to get tests: %w", err)
		}
		for _, t := range rows {
			tests[t.ID] = t
		}
	}

	out := make(map[uuid.UUID][]*model.OrderTest)
	for _, item := range items {
		item.Test = tests[item.TestID]
		out[item.OrderID] = append(out[item.OrderID], item)
	}
	return out, nil
}

func (r *orderRepository) userNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.UserName, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, first_name, last_name FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	var rows []struct {
		ID        uuid.UUID `db:"id"`
		FirstName string    `db:"first_name"`
		LastName  string    `db:"last_name"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	out := make(map[uuid.UUID]*model.UserName, len(rows))
	for _, row := range rows {
		out[row.ID] = &model.UserName{FirstName: row.FirstName, LastName: row.LastName}
	}
	return out, nil
}

func (r *orderRepository) doctorSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.DoctorSummary, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, name, specialization FROM doctors WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	var rows []*model.DoctorSummary
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get doctors: %w", err)
	}
	out := make(map[uuid.UUID]*model.DoctorSummary, len(rows))
	for _, d := range rows {
		out[d.ID] = d
	}
	return out, nil
}
