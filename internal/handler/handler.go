package handler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"clinic-api/internal/model"
)

// Store is what handlers need from persistence. *store.Store satisfies
// it; tests plug in an in-memory implementation.
type Store interface {
	UserStore
	AppointmentStore
	RecordStore
}

type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByEmail(ctx context.Context, email, role string) (*model.User, error)
	UserByID(ctx context.Context, id string) (*model.User, error)
	DoctorByID(ctx context.Context, id string) (*model.User, error)
	PatientByID(ctx context.Context, id string) (*model.User, error)
	UpdateProfile(ctx context.Context, u *model.User) error
	ListDoctors(ctx context.Context) ([]*model.User, error)
	SearchPatients(ctx context.Context, search string, limit, offset int) ([]*model.User, int, error)
}

type AppointmentStore interface {
	SlotTaken(ctx context.Context, doctorID string, date time.Time, timeSlot, excludeID string) (bool, error)
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	AppointmentByID(ctx context.Context, id string) (*model.Appointment, error)
	ListAppointments(ctx context.Context, doctorID, patientID, status string, limit, offset int) ([]*model.Appointment, int, error)
	UpdateAppointment(ctx context.Context, a *model.Appointment) error
	Reschedule(ctx context.Context, orig, repl *model.Appointment) error
	CancelAppointment(ctx context.Context, id string) error
}

type RecordStore interface {
	CreateMedicalRecord(ctx context.Context, r *model.MedicalRecord) error
	MedicalRecordByID(ctx context.Context, id string) (*model.MedicalRecord, error)
	ListPatientRecords(ctx context.Context, patientID string, limit, offset int) ([]*model.MedicalRecord, int, error)
	LatestRecordByPatient(ctx context.Context, patientID string) (*model.MedicalRecord, error)
	UpdateMedicalRecord(ctx context.Context, r *model.MedicalRecord) error
	DeleteMedicalRecord(ctx context.Context, id string) error
	VitalsHistory(ctx context.Context, patientID string, limit int) ([]*model.MedicalRecord, error)
}

type Handler struct {
	store  Store
	secret string
	log    zerolog.Logger
}

func New(st Store, secret string, log zerolog.Logger) *Handler {
	return &Handler{store: st, secret: secret, log: log}
}
