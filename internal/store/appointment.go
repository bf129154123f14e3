package store

import (
	"context"
	"fmt"
	"time"

	"clinic-api/internal/model"
)

const apptCols = `a.id, a.patient_id, a.doctor_id, a.date, a.time, a.reason, a.symptoms,
	a.status, a.notes, a.prescription, a.follow_up_date, a.rescheduled_from, a.rescheduled_to,
	a.created_at, a.updated_at,
	d.name, COALESCE(d.doctor_profile->>'specialization', ''),
	p.name, COALESCE((p.patient_profile->>'age')::int, 0), COALESCE(p.patient_profile->>'gender', '')`

const apptJoins = ` FROM appointments a
	JOIN users d ON d.id = a.doctor_id
	JOIN users p ON p.id = a.patient_id`

func scanAppointment(row interface{ Scan(...any) error }) (*model.Appointment, error) {
	a := &model.Appointment{}
	var (
		docName, docSpec   string
		patName, patGender string
		patAge             int
	)
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Time, &a.Reason, &a.Symptoms,
		&a.Status, &a.Notes, &a.Prescription, &a.FollowUpDate, &a.RescheduledFrom, &a.RescheduledTo,
		&a.CreatedAt, &a.UpdatedAt,
		&docName, &docSpec, &patName, &patAge, &patGender)
	if err != nil {
		return nil, notFound(err)
	}
	a.Doctor = &model.UserSummary{ID: a.DoctorID, Name: docName, Specialization: docSpec}
	a.Patient = &model.UserSummary{ID: a.PatientID, Name: patName, Age: patAge, Gender: patGender}
	return a, nil
}

// SlotTaken reports whether an active appointment already occupies the
// (doctor, date, time) slot. excludeID skips the appointment being
// rescheduled.
func (s *Store) SlotTaken(ctx context.Context, doctorID string, date time.Time, timeSlot, excludeID string) (bool, error) {
	q := `SELECT EXISTS(
		SELECT 1 FROM appointments
		WHERE doctor_id = $1
		  AND date = $2
		  AND time = $3
		  AND status IN ('pending', 'accepted')`
	args := []any{doctorID, date, timeSlot}

	if excludeID != "" {
		q += ` AND id != $4`
		args = append(args, excludeID)
	}
	q += `)`

	var exists bool
	err := s.pool.QueryRow(ctx, q, args...).Scan(&exists)
	return exists, err
}

func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO appointments (id, patient_id, doctor_id, date, time, reason, symptoms, status)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.Time, a.Reason, a.Symptoms, a.Status,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if uniqueViolation(err, "appointments_active_slot") {
		// partial unique index caught a race the precheck missed
		return ErrSlotTaken
	}
	return err
}

func (s *Store) AppointmentByID(ctx context.Context, id string) (*model.Appointment, error) {
	return scanAppointment(s.pool.QueryRow(ctx,
		`SELECT `+apptCols+apptJoins+` WHERE a.id = $1`, id))
}

// ListAppointments scopes to exactly one of doctorID/patientID (the
// caller's own side) with an optional status filter.
func (s *Store) ListAppointments(ctx context.Context, doctorID, patientID, status string, limit, offset int) ([]*model.Appointment, int, error) {
	where := `a.doctor_id = $1`
	owner := doctorID
	if doctorID == "" {
		where = `a.patient_id = $1`
		owner = patientID
	}
	args := []any{owner}
	if status != "" {
		where += ` AND a.status = $2`
		args = append(args, status)
	}

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments a WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY a.date DESC, a.time DESC LIMIT $%d OFFSET $%d`,
		apptCols, apptJoins, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// UpdateAppointment persists the doctor-editable fields. Reviving a
// terminal appointment moves the row back under the active-slot index,
// which rejects it when the slot has been taken since.
func (s *Store) UpdateAppointment(ctx context.Context, a *model.Appointment) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE appointments
		 SET status=$1, notes=$2, prescription=$3, follow_up_date=$4, updated_at=NOW()
		 WHERE id=$5`,
		a.Status, a.Notes, a.Prescription, a.FollowUpDate, a.ID,
	)
	if uniqueViolation(err, "appointments_active_slot") {
		return ErrSlotTaken
	}
	return err
}

// Reschedule cancels the original and inserts the replacement in one
// transaction, linking the two records. Cancelling first takes the
// original out of the active-slot index, so rescheduling into the same
// slot works; a replacement racing into a slot someone else occupies
// still hits the index and rolls the whole thing back.
func (s *Store) Reschedule(ctx context.Context, orig *model.Appointment, repl *model.Appointment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE appointments SET status='cancelled', updated_at=NOW() WHERE id=$1`, orig.ID)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO appointments (id, patient_id, doctor_id, date, time, reason, symptoms, status, rescheduled_from)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 RETURNING created_at, updated_at`,
		repl.ID, repl.PatientID, repl.DoctorID, repl.Date, repl.Time, repl.Reason, repl.Symptoms,
		repl.Status, orig.ID,
	).Scan(&repl.CreatedAt, &repl.UpdatedAt)
	if uniqueViolation(err, "appointments_active_slot") {
		return ErrSlotTaken
	}
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE appointments SET rescheduled_to=$1 WHERE id=$2`,
		repl.ID, orig.ID,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CancelAppointment is a soft delete; the record stays for history.
func (s *Store) CancelAppointment(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE appointments SET status='cancelled', updated_at=NOW() WHERE id=$1`, id)
	return err
}
