package model

import "time"

const (
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

// Appointment statuses. Pending and accepted count toward slot conflicts.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

var ValidStatuses = map[string]bool{
	StatusPending: true, StatusAccepted: true, StatusRejected: true,
	StatusCompleted: true, StatusCancelled: true,
}

var ValidGenders = map[string]bool{"male": true, "female": true, "other": true}

type EmergencyContact struct {
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

type DoctorProfile struct {
	Specialization string `json:"specialization"`
	LicenseNumber  string `json:"licenseNumber"`
	Experience     int    `json:"experience"`
}

type PatientProfile struct {
	Age              int               `json:"age"`
	Gender           string            `json:"gender"`
	Address          string            `json:"address"`
	EmergencyContact *EmergencyContact `json:"emergencyContact,omitempty"`
}

// User is an account record. Exactly one of Doctor or Patient is set,
// matching Role; the role never changes after creation.
type User struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	Role         string          `json:"role"`
	Phone        string          `json:"phone"`
	Doctor       *DoctorProfile  `json:"doctor,omitempty"`
	Patient      *PatientProfile `json:"patient,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// UserSummary is the populated reference attached to appointments and
// medical records: name + specialization for doctors, name + age/gender
// for patients.
type UserSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization,omitempty"`
	Age            int    `json:"age,omitempty"`
	Gender         string `json:"gender,omitempty"`
}

type Appointment struct {
	ID              string       `json:"id"`
	PatientID       string       `json:"patientId"`
	DoctorID        string       `json:"doctorId"`
	Date            time.Time    `json:"date"`
	Time            string       `json:"time"`
	Reason          string       `json:"reason"`
	Symptoms        string       `json:"symptoms,omitempty"`
	Status          string       `json:"status"`
	Notes           string       `json:"notes,omitempty"`
	Prescription    string       `json:"prescription,omitempty"`
	FollowUpDate    *time.Time   `json:"followUpDate,omitempty"`
	RescheduledFrom *string      `json:"rescheduledFrom,omitempty"`
	RescheduledTo   *string      `json:"rescheduledTo,omitempty"`
	Doctor          *UserSummary `json:"doctor,omitempty"`
	Patient         *UserSummary `json:"patient,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// Active reports whether the appointment occupies its slot.
func (a *Appointment) Active() bool {
	return a.Status == StatusPending || a.Status == StatusAccepted
}

type Medication struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage,omitempty"`
	Frequency    string `json:"frequency,omitempty"`
	Duration     string `json:"duration,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

type Prescription struct {
	Medications []Medication `json:"medications,omitempty"`
	Notes       string       `json:"notes,omitempty"`
}

type FollowUp struct {
	Required bool       `json:"required"`
	Date     *time.Time `json:"date,omitempty"`
	Notes    string     `json:"notes,omitempty"`
}

var ValidHistoryStatuses = map[string]bool{"active": true, "resolved": true, "chronic": true}

type HistoryEntry struct {
	Condition string `json:"condition"`
	Year      int    `json:"year,omitempty"`
	Status    string `json:"status,omitempty"`
}

// MedicalRecord is a clinical document. DoctorID is nil when the record
// was opened by a patient submitting vitals before any doctor was
// involved.
type MedicalRecord struct {
	ID             string         `json:"id"`
	PatientID      string         `json:"patientId"`
	DoctorID       *string        `json:"doctorId,omitempty"`
	AppointmentID  *string        `json:"appointmentId,omitempty"`
	Vitals         Vitals         `json:"vitals"`
	Diagnosis      string         `json:"diagnosis,omitempty"`
	Symptoms       []string       `json:"symptoms,omitempty"`
	Prescription   Prescription   `json:"prescription"`
	Treatment      string         `json:"treatment,omitempty"`
	FollowUp       FollowUp       `json:"followUp"`
	Allergies      []string       `json:"allergies,omitempty"`
	MedicalHistory []HistoryEntry `json:"medicalHistory,omitempty"`
	Remedy         string         `json:"remedy,omitempty"`
	Formula        string         `json:"formula,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	Doctor         *UserSummary   `json:"doctor,omitempty"`
	Patient        *UserSummary   `json:"patient,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}
