package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool used by PostgresStore. pgxmock satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is the relational Store.
type PostgresStore struct {
	db DB
}

// NewPostgresStore wraps a pgx pool.
func NewPostgresStore(db DB) *PostgresStore {
	if db == nil {
		panic("store: pgx pool required")
	}
	return &PostgresStore{db: db}
}

var _ Store = (*PostgresStore)(nil)

const staffColumns = `s.id, s.name, s.role, s.specialty, s.bio, s.image_url, s.working_hours, s.is_active`

func (p *PostgresStore) ListStaff(ctx context.Context) ([]Staff, error) {
	rows, err := p.db.Query(ctx, `SELECT `+staffColumns+` FROM staff s WHERE s.is_active ORDER BY s.id`)
	if err != nil {
		return nil, fmt.Errorf("store: list staff: %w", err)
	}
	return collectStaff(rows)
}

func (p *PostgresStore) GetStaff(ctx context.Context, id int64) (*Staff, error) {
	row := p.db.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff s WHERE s.id = $1`, id)
	staff, err := scanStaff(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("store: get staff: %w", err)
	}
	return staff, nil
}

func (p *PostgresStore) CreateStaff(ctx context.Context, staff *Staff) error {
	if staff == nil || strings.TrimSpace(staff.Name) == "" {
		return fmt.Errorf("store: staff name required")
	}
	if err := staff.WorkingHours.Validate(); err != nil {
		return err
	}
	hours, err := json.Marshal(staff.WorkingHours)
	if err != nil {
		return fmt.Errorf("store: encode working hours: %w", err)
	}
	query := `
		INSERT INTO staff (name, role, specialty, bio, image_url, working_hours, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	if err := p.db.QueryRow(ctx, query,
		staff.Name, staff.Role, staff.Specialty, staff.Bio, staff.ImageURL, hours, staff.Active,
	).Scan(&staff.ID); err != nil {
		return fmt.Errorf("store: insert staff: %w", err)
	}
	return nil
}

func (p *PostgresStore) AssignService(ctx context.Context, staffID, serviceID int64) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO staff_services (staff_id, service_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, staffID, serviceID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("store: assign service: %w", ErrNotFound)
		}
		return fmt.Errorf("store: assign service: %w", err)
	}
	return nil
}

func (p *PostgresStore) StaffForService(ctx context.Context, serviceID int64) ([]Staff, error) {
	rows, err := p.db.Query(ctx, `
		SELECT `+staffColumns+`
		FROM staff s
		JOIN staff_services ss ON ss.staff_id = s.id
		WHERE ss.service_id = $1 AND s.is_active
		ORDER BY s.id
	`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("store: staff for service: %w", err)
	}
	return collectStaff(rows)
}

func (p *PostgresStore) ServicesForStaff(ctx context.Context, staffID int64) ([]Service, error) {
	rows, err := p.db.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services sv
		JOIN staff_services ss ON ss.service_id = sv.id
		WHERE ss.staff_id = $1 AND sv.is_active
		ORDER BY sv.id
	`, staffID)
	if err != nil {
		return nil, fmt.Errorf("store: services for staff: %w", err)
	}
	return collectServices(rows)
}

func (p *PostgresStore) CanPerform(ctx context.Context, staffID, serviceID int64) (bool, error) {
	var ok bool
	err := p.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM staff_services WHERE staff_id = $1 AND service_id = $2)`,
		staffID, serviceID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("store: check capability: %w", err)
	}
	return ok, nil
}

const serviceColumns = `sv.id, sv.name, sv.name_localized, sv.description, sv.duration_minutes, sv.price, sv.category, sv.is_active`

func (p *PostgresStore) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := p.db.Query(ctx, `SELECT `+serviceColumns+` FROM services sv WHERE sv.is_active ORDER BY sv.id`)
	if err != nil {
		return nil, fmt.Errorf("store: list services: %w", err)
	}
	return collectServices(rows)
}

func (p *PostgresStore) GetService(ctx context.Context, id int64) (*Service, error) {
	row := p.db.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services sv WHERE sv.id = $1`, id)
	svc, err := scanService(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("store: get service: %w", err)
	}
	return svc, nil
}

func (p *PostgresStore) CreateService(ctx context.Context, svc *Service) error {
	if err := svc.Validate(); err != nil {
		return err
	}
	query := `
		INSERT INTO services (name, name_localized, description, duration_minutes, price, category, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	if err := p.db.QueryRow(ctx, query,
		svc.Name, svc.LocalizedName, svc.Description, svc.DurationMinutes, svc.Price, string(svc.Category), svc.Active,
	).Scan(&svc.ID); err != nil {
		return fmt.Errorf("store: insert service: %w", err)
	}
	return nil
}

const appointmentSelect = `
	SELECT a.id, a.patient_name, a.patient_email, a.patient_phone,
		COALESCE(a.service_id, 0), a.service_name, COALESCE(a.staff_id, 0),
		a.starts_at, a.status, a.notes, a.created_at, a.updated_at,
		COALESCE(sv.duration_minutes, 0)
	FROM appointments a
	LEFT JOIN services sv ON sv.id = a.service_id
`

func (p *PostgresStore) CreateAppointment(ctx context.Context, appt *Appointment) error {
	if err := appt.Validate(); err != nil {
		return err
	}
	if appt.Status == "" {
		appt.Status = StatusPending
	}
	appt.PatientEmail = NormalizeEmail(appt.PatientEmail)
	query := `
		INSERT INTO appointments (patient_name, patient_email, patient_phone, service_id, service_name, staff_id, starts_at, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	if err := p.db.QueryRow(ctx, query,
		appt.PatientName,
		appt.PatientEmail,
		appt.PatientPhone,
		nullableID(appt.ServiceID),
		appt.ServiceName,
		nullableID(appt.StaffID),
		appt.StartsAt,
		string(appt.Status),
		appt.Notes,
	).Scan(&appt.ID, &appt.CreatedAt, &appt.UpdatedAt); err != nil {
		return fmt.Errorf("store: insert appointment: %w", err)
	}
	return nil
}

func (p *PostgresStore) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	appt, err := scanAppointment(p.db.QueryRow(ctx, appointmentSelect+` WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("store: get appointment: %w", err)
	}
	return appt, nil
}

func (p *PostgresStore) UpdateAppointmentStatus(ctx context.Context, id int64, status Status) (*Appointment, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("store: unknown status %q", status)
	}
	tag, err := p.db.Exec(ctx,
		`UPDATE appointments SET status = $2, updated_at = now() WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("store: update appointment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAppointmentNotFound
	}
	return p.GetAppointment(ctx, id)
}

func (p *PostgresStore) ListOccupying(ctx context.Context, staffID int64, from, to time.Time) ([]Appointment, error) {
	rows, err := p.db.Query(ctx, appointmentSelect+`
		WHERE a.staff_id = $1 AND a.starts_at >= $2 AND a.starts_at < $3
			AND a.status IN ('PENDING', 'APPROVED')
		ORDER BY a.starts_at, a.id
	`, staffID, from, to)
	if err != nil {
		return nil, fmt.Errorf("store: list occupying appointments: %w", err)
	}
	return collectAppointments(rows)
}

func (p *PostgresStore) ListAppointmentsByEmail(ctx context.Context, email string) ([]Appointment, error) {
	rows, err := p.db.Query(ctx, appointmentSelect+` WHERE a.patient_email = $1 ORDER BY a.starts_at, a.id`, NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("store: list appointments by email: %w", err)
	}
	return collectAppointments(rows)
}

func (p *PostgresStore) ListAppointmentsByStatus(ctx context.Context, status Status) ([]Appointment, error) {
	rows, err := p.db.Query(ctx, appointmentSelect+` WHERE a.status = $1 ORDER BY a.starts_at, a.id`, string(status))
	if err != nil {
		return nil, fmt.Errorf("store: list appointments by status: %w", err)
	}
	return collectAppointments(rows)
}

func (p *PostgresStore) TouchPatient(ctx context.Context, email string) (bool, error) {
	var created bool
	err := p.db.QueryRow(ctx, `
		INSERT INTO patient_preferences (email) VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET last_interaction = now(), updated_at = now()
		RETURNING (xmax = 0)
	`, NormalizeEmail(email)).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("store: touch patient: %w", err)
	}
	return created, nil
}

func (p *PostgresStore) GetPatient(ctx context.Context, email string) (*Patient, error) {
	row := p.db.QueryRow(ctx, `
		SELECT email, name, phone, preferences, interests, converted, last_interaction, created_at
		FROM patient_preferences WHERE email = $1
	`, NormalizeEmail(email))
	var (
		pt          Patient
		prefs, ints []byte
	)
	if err := row.Scan(&pt.Email, &pt.Name, &pt.Phone, &prefs, &ints, &pt.Converted, &pt.LastInteraction, &pt.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("store: get patient: %w", err)
	}
	if err := decodeList(prefs, &pt.Preferences); err != nil {
		return nil, err
	}
	if err := decodeList(ints, &pt.Interests); err != nil {
		return nil, err
	}
	return &pt, nil
}

func (p *PostgresStore) UpsertPatient(ctx context.Context, email string, upd PatientUpdate) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO patient_preferences (email, name, phone) VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), patient_preferences.name),
			phone = COALESCE(NULLIF(EXCLUDED.phone, ''), patient_preferences.phone),
			last_interaction = now(),
			updated_at = now()
	`, NormalizeEmail(email), strings.TrimSpace(upd.Name), strings.TrimSpace(upd.Phone))
	if err != nil {
		return fmt.Errorf("store: upsert patient: %w", err)
	}
	return nil
}

func (p *PostgresStore) AppendPreference(ctx context.Context, email, preference string) (int, error) {
	var total int
	err := p.db.QueryRow(ctx, `
		INSERT INTO patient_preferences (email, preferences) VALUES ($1, jsonb_build_array($2::text))
		ON CONFLICT (email) DO UPDATE SET
			preferences = patient_preferences.preferences || jsonb_build_array($2::text),
			last_interaction = now(),
			updated_at = now()
		RETURNING jsonb_array_length(preferences)
	`, NormalizeEmail(email), preference).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("store: append preference: %w", err)
	}
	return total, nil
}

func (p *PostgresStore) AddInterest(ctx context.Context, email, interest string) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO patient_preferences (email, interests) VALUES ($1, jsonb_build_array($2::text))
		ON CONFLICT (email) DO UPDATE SET
			interests = CASE
				WHEN patient_preferences.interests @> jsonb_build_array($2::text) THEN patient_preferences.interests
				ELSE patient_preferences.interests || jsonb_build_array($2::text)
			END,
			last_interaction = now(),
			updated_at = now()
	`, NormalizeEmail(email), interest)
	if err != nil {
		return fmt.Errorf("store: add interest: %w", err)
	}
	return nil
}

func (p *PostgresStore) MarkConverted(ctx context.Context, email string) error {
	tag, err := p.db.Exec(ctx,
		`UPDATE patient_preferences SET converted = TRUE, updated_at = now() WHERE email = $1`,
		NormalizeEmail(email),
	)
	if err != nil {
		return fmt.Errorf("store: mark converted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (p *PostgresStore) ListPatientsForReengagement(ctx context.Context, idleSince time.Time) ([]Patient, error) {
	rows, err := p.db.Query(ctx, `
		SELECT email, name, phone, converted, last_interaction, created_at
		FROM patient_preferences
		WHERE NOT converted AND last_interaction < $1
		ORDER BY last_interaction
	`, idleSince)
	if err != nil {
		return nil, fmt.Errorf("store: list reengagement patients: %w", err)
	}
	defer rows.Close()
	var out []Patient
	for rows.Next() {
		var pt Patient
		if err := rows.Scan(&pt.Email, &pt.Name, &pt.Phone, &pt.Converted, &pt.LastInteraction, &pt.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan patient: %w", err)
		}
		out = append(out, pt)
	}
	return out, rows.Err()
}

func scanStaff(row pgx.Row) (*Staff, error) {
	var (
		s     Staff
		hours []byte
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Role, &s.Specialty, &s.Bio, &s.ImageURL, &hours, &s.Active); err != nil {
		return nil, err
	}
	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &s.WorkingHours); err != nil {
			return nil, fmt.Errorf("store: decode working hours for staff %d: %w", s.ID, err)
		}
	}
	return &s, nil
}

func collectStaff(rows pgx.Rows) ([]Staff, error) {
	defer rows.Close()
	var out []Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan staff: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func scanService(row pgx.Row) (*Service, error) {
	var (
		svc      Service
		category string
	)
	if err := row.Scan(&svc.ID, &svc.Name, &svc.LocalizedName, &svc.Description, &svc.DurationMinutes, &svc.Price, &category, &svc.Active); err != nil {
		return nil, err
	}
	svc.Category = Category(category)
	return &svc, nil
}

func collectServices(rows pgx.Rows) ([]Service, error) {
	defer rows.Close()
	var out []Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan service: %w", err)
		}
		out = append(out, *svc)
	}
	return out, rows.Err()
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a      Appointment
		status string
	)
	if err := row.Scan(
		&a.ID,
		&a.PatientName,
		&a.PatientEmail,
		&a.PatientPhone,
		&a.ServiceID,
		&a.ServiceName,
		&a.StaffID,
		&a.StartsAt,
		&status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.DurationMinutes,
	); err != nil {
		return nil, err
	}
	a.Status = Status(status)
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()
	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan appointment: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func decodeList(raw []byte, dst *[]string) error {
	*dst = []string{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("store: decode list: %w", err)
	}
	return nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
