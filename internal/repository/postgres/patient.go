package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/plms/lab-api/internal/model"
	"github.com/plms/lab-api/internal/repository"
)

type patientRepository struct {
	db *sqlx.DB
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{db: db}
}

// Create assigns the patient code from patient_code_seq and inserts the
// row in one transaction. nextval is atomic, so concurrent registrations
// can never produce duplicate codes.
func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.GetContext(ctx, &seq, `SELECT nextval('patient_code_seq')`); err != nil {
		return fmt.Errorf("failed to allocate patient code: %w", err)
	}
	patient.PatientCode = model.FormatPatientCode(seq)
	patient.CreatedAt = time.Now()

	query := `
		INSERT INTO patients (id, patient_code, first_name, last_name, date_of_birth, phone, email, address, referring_doctor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.ExecContext(ctx, query,
		patient.ID,
		patient.PatientCode,
		patient.FirstName,
		patient.LastName,
		patient.DateOfBirth,
		patient.Phone,
		patient.Email,
		patient.Address,
		patient.ReferringDoctorID,
		patient.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT * FROM patients WHERE id = $1`
	var patient model.Patient
	err := r.db.GetContext(ctx, &patient, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	if patient.ReferringDoctorID != nil {
		doctor, err := r.doctorSummary(ctx, *patient.ReferringDoctorID)
		if err != nil {
			return nil, err
		}
		patient.ReferringDoctor = doctor
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET first_name = $1, last_name = $2, date_of_birth = $3, phone = $4, email = $5, address = $6, referring_doctor_id = $7
		WHERE id = $8
	`
	res, err := r.db.ExecContext(ctx, query,
		patient.FirstName,
		patient.LastName,
		patient.DateOfBirth,
		patient.Phone,
		patient.Email,
		patient.Address,
		patient.ReferringDoctorID,
		patient.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	return checkAffected(res)
}

func (r *patientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	return checkAffected(res)
}

func (r *patientRepository) List(ctx context.Context, params *model.ListParams) ([]*model.Patient, int, error) {
	where := ""
	var args []interface{}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where = ` WHERE first_name ILIKE $1 OR last_name ILIKE $1 OR patient_code ILIKE $1 OR phone ILIKE $1 OR email ILIKE $1`
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM patients`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count patients: %w", err)
	}

	args = append(args, params.Limit, params.Offset())
	query := fmt.Sprintf(`SELECT * FROM patients%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, total, nil
}

func (r *patientRepository) doctorSummary(ctx context.Context, id uuid.UUID) (*model.DoctorSummary, error) {
	var doctor model.DoctorSummary
	err := r.db.GetContext(ctx, &doctor, `SELECT id, name, specialization FROM doctors WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get referring doctor: %w", err)
	}
	return &doctor, nil
}
