package store

import (
	"context"
	"fmt"

	"clinic-api/internal/model"
)

const userCols = `id, name, email, password_hash, role, phone, doctor_profile, patient_profile, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Phone,
		&u.Doctor, &u.Patient, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, phone, doctor_profile, patient_profile)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 RETURNING created_at, updated_at`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Phone, u.Doctor, u.Patient,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if uniqueViolation(err, "users_email_key") {
		return ErrDuplicateEmail
	}
	return err
}

// UserByEmail looks an account up by email and role. Login matches on
// both so the same address could not be confused across roles.
func (s *Store) UserByEmail(ctx context.Context, email, role string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE email = $1 AND role = $2`, email, role))
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

// DoctorByID returns the account only when it exists and carries the
// doctor role.
func (s *Store) DoctorByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1 AND role = 'doctor'`, id))
}

func (s *Store) PatientByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1 AND role = 'patient'`, id))
}

// UpdateProfile persists the mutable account fields. Role and email are
// deliberately not part of the statement.
func (s *Store) UpdateProfile(ctx context.Context, u *model.User) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users
		 SET name=$1, phone=$2, doctor_profile=$3, patient_profile=$4, updated_at=NOW()
		 WHERE id=$5`,
		u.Name, u.Phone, u.Doctor, u.Patient, u.ID,
	)
	return err
}

func (s *Store) ListDoctors(ctx context.Context) ([]*model.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userCols+` FROM users WHERE role = 'doctor' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SearchPatients filters the patient directory by case-insensitive
// substring over name, email and phone, newest accounts first.
func (s *Store) SearchPatients(ctx context.Context, search string, limit, offset int) ([]*model.User, int, error) {
	where := `role = 'patient'`
	args := []any{}
	if search != "" {
		where += ` AND (name ILIKE $1 OR email ILIKE $1 OR phone ILIKE $1)`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		userCols, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}
