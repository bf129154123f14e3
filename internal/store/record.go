package store

import (
	"context"

	"clinic-api/internal/model"
)

const recordCols = `r.id, r.patient_id, r.doctor_id, r.appointment_id, r.vitals, r.diagnosis,
	r.symptoms, r.prescription, r.treatment, r.follow_up, r.allergies, r.medical_history,
	r.remedy, r.formula, r.notes, r.created_at, r.updated_at,
	COALESCE(d.name, ''), COALESCE(d.doctor_profile->>'specialization', ''),
	p.name, COALESCE((p.patient_profile->>'age')::int, 0), COALESCE(p.patient_profile->>'gender', '')`

const recordJoins = ` FROM medical_records r
	LEFT JOIN users d ON d.id = r.doctor_id
	JOIN users p ON p.id = r.patient_id`

func scanRecord(row interface{ Scan(...any) error }) (*model.MedicalRecord, error) {
	r := &model.MedicalRecord{}
	var (
		docName, docSpec   string
		patName, patGender string
		patAge             int
	)
	err := row.Scan(&r.ID, &r.PatientID, &r.DoctorID, &r.AppointmentID, &r.Vitals, &r.Diagnosis,
		&r.Symptoms, &r.Prescription, &r.Treatment, &r.FollowUp, &r.Allergies, &r.MedicalHistory,
		&r.Remedy, &r.Formula, &r.Notes, &r.CreatedAt, &r.UpdatedAt,
		&docName, &docSpec, &patName, &patAge, &patGender)
	if err != nil {
		return nil, notFound(err)
	}
	if r.DoctorID != nil {
		r.Doctor = &model.UserSummary{ID: *r.DoctorID, Name: docName, Specialization: docSpec}
	}
	r.Patient = &model.UserSummary{ID: r.PatientID, Name: patName, Age: patAge, Gender: patGender}
	return r, nil
}

func (s *Store) CreateMedicalRecord(ctx context.Context, r *model.MedicalRecord) error {
	return s.pool.QueryRow(ctx,
		`INSERT INTO medical_records (id, patient_id, doctor_id, appointment_id, vitals, diagnosis,
			symptoms, prescription, treatment, follow_up, allergies, medical_history,
			remedy, formula, notes)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		 RETURNING created_at, updated_at`,
		r.ID, r.PatientID, r.DoctorID, r.AppointmentID, r.Vitals, r.Diagnosis,
		r.Symptoms, r.Prescription, r.Treatment, r.FollowUp, r.Allergies, r.MedicalHistory,
		r.Remedy, r.Formula, r.Notes,
	).Scan(&r.CreatedAt, &r.UpdatedAt)
}

func (s *Store) MedicalRecordByID(ctx context.Context, id string) (*model.MedicalRecord, error) {
	return scanRecord(s.pool.QueryRow(ctx,
		`SELECT `+recordCols+recordJoins+` WHERE r.id = $1`, id))
}

func (s *Store) ListPatientRecords(ctx context.Context, patientID string, limit, offset int) ([]*model.MedicalRecord, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM medical_records WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+recordCols+recordJoins+`
		 WHERE r.patient_id = $1
		 ORDER BY r.created_at DESC
		 LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.MedicalRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// LatestRecordByPatient returns the most recently created record, the
// target of vitals updates.
func (s *Store) LatestRecordByPatient(ctx context.Context, patientID string) (*model.MedicalRecord, error) {
	return scanRecord(s.pool.QueryRow(ctx,
		`SELECT `+recordCols+recordJoins+`
		 WHERE r.patient_id = $1
		 ORDER BY r.created_at DESC
		 LIMIT 1`, patientID))
}

func (s *Store) UpdateMedicalRecord(ctx context.Context, r *model.MedicalRecord) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE medical_records
		 SET vitals=$1, diagnosis=$2, symptoms=$3, prescription=$4, treatment=$5, follow_up=$6,
		     allergies=$7, medical_history=$8, remedy=$9, formula=$10, notes=$11, updated_at=NOW()
		 WHERE id=$12`,
		r.Vitals, r.Diagnosis, r.Symptoms, r.Prescription, r.Treatment, r.FollowUp,
		r.Allergies, r.MedicalHistory, r.Remedy, r.Formula, r.Notes, r.ID,
	)
	return err
}

func (s *Store) DeleteMedicalRecord(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM medical_records WHERE id = $1`, id)
	return err
}

// VitalsHistory returns the newest records that carry at least one
// vital measurement.
func (s *Store) VitalsHistory(ctx context.Context, patientID string, limit int) ([]*model.MedicalRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+recordCols+recordJoins+`
		 WHERE r.patient_id = $1 AND r.vitals != '{}'::jsonb
		 ORDER BY r.created_at DESC
		 LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.MedicalRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
