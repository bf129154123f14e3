package handler_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"clinic-api/internal/model"
	"clinic-api/internal/store"
)

// mockStore is an in-memory handler.Store. It mirrors the database's
// guarantees, including the partial unique index over active slots, so
// the concurrency tests exercise the same failure mode as Postgres.
type mockStore struct {
	mu      sync.Mutex
	seq     int
	users   map[string]*model.User
	emails  map[string]string
	appts   map[string]*model.Appointment
	records map[string]*model.MedicalRecord
}

func newMockStore() *mockStore {
	return &mockStore{
		users:   make(map[string]*model.User),
		emails:  make(map[string]string),
		appts:   make(map[string]*model.Appointment),
		records: make(map[string]*model.MedicalRecord),
	}
}

// stamp hands out strictly increasing timestamps so "latest record"
// ordering is deterministic.
func (m *mockStore) stamp() time.Time {
	m.seq++
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.seq) * time.Second)
}

// -- users --

func (m *mockStore) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.emails[u.Email]; ok {
		return store.ErrDuplicateEmail
	}
	u.CreatedAt = m.stamp()
	u.UpdatedAt = u.CreatedAt
	m.emails[u.Email] = u.ID
	m.users[u.ID] = u
	return nil
}

func (m *mockStore) UserByEmail(_ context.Context, email, role string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email && u.Role == role {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) UserByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (m *mockStore) userByRole(id, role string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.Role != role {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (m *mockStore) DoctorByID(_ context.Context, id string) (*model.User, error) {
	return m.userByRole(id, model.RoleDoctor)
}

func (m *mockStore) PatientByID(_ context.Context, id string) (*model.User, error) {
	return m.userByRole(id, model.RolePatient)
}

func (m *mockStore) UpdateProfile(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.UpdatedAt = m.stamp()
	m.users[u.ID] = u
	return nil
}

func (m *mockStore) ListDoctors(_ context.Context) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.User
	for _, u := range m.users {
		if u.Role == model.RoleDoctor {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockStore) SearchPatients(_ context.Context, search string, limit, offset int) ([]*model.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	needle := strings.ToLower(search)
	var all []*model.User
	for _, u := range m.users {
		if u.Role != model.RolePatient {
			continue
		}
		if needle == "" ||
			strings.Contains(strings.ToLower(u.Name), needle) ||
			strings.Contains(strings.ToLower(u.Email), needle) ||
			strings.Contains(strings.ToLower(u.Phone), needle) {
			all = append(all, u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// -- appointments --

func (m *mockStore) slotTakenLocked(doctorID string, date time.Time, timeSlot, excludeID string) bool {
	for _, a := range m.appts {
		if a.ID == excludeID {
			continue
		}
		if a.DoctorID == doctorID && a.Date.Equal(date) && a.Time == timeSlot && a.Active() {
			return true
		}
	}
	return false
}

func (m *mockStore) SlotTaken(_ context.Context, doctorID string, date time.Time, timeSlot, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slotTakenLocked(doctorID, date, timeSlot, excludeID), nil
}

func (m *mockStore) CreateAppointment(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.Active() && m.slotTakenLocked(a.DoctorID, a.Date, a.Time, a.ID) {
		return store.ErrSlotTaken
	}
	a.CreatedAt = m.stamp()
	a.UpdatedAt = a.CreatedAt
	m.appts[a.ID] = a
	return nil
}

func (m *mockStore) summarize(a *model.Appointment) {
	if d, ok := m.users[a.DoctorID]; ok {
		s := &model.UserSummary{ID: d.ID, Name: d.Name}
		if d.Doctor != nil {
			s.Specialization = d.Doctor.Specialization
		}
		a.Doctor = s
	}
	if p, ok := m.users[a.PatientID]; ok {
		s := &model.UserSummary{ID: p.ID, Name: p.Name}
		if p.Patient != nil {
			s.Age = p.Patient.Age
			s.Gender = p.Patient.Gender
		}
		a.Patient = s
	}
}

func (m *mockStore) AppointmentByID(_ context.Context, id string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	m.summarize(a)
	return a, nil
}

func (m *mockStore) ListAppointments(_ context.Context, doctorID, patientID, status string, limit, offset int) ([]*model.Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*model.Appointment
	for _, a := range m.appts {
		if doctorID != "" && a.DoctorID != doctorID {
			continue
		}
		if patientID != "" && a.PatientID != patientID {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		m.summarize(a)
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Date.After(all[j].Date) })
	total := len(all)
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockStore) UpdateAppointment(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.Active() && m.slotTakenLocked(a.DoctorID, a.Date, a.Time, a.ID) {
		return store.ErrSlotTaken
	}
	a.UpdatedAt = m.stamp()
	m.appts[a.ID] = a
	return nil
}

// Reschedule mirrors the SQL transaction: the original is cancelled
// before the replacement is checked against the slot, so rescheduling
// into the original's own slot succeeds.
func (m *mockStore) Reschedule(_ context.Context, orig, repl *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := orig.Status
	orig.Status = model.StatusCancelled
	if m.slotTakenLocked(repl.DoctorID, repl.Date, repl.Time, "") {
		orig.Status = prev
		return store.ErrSlotTaken
	}
	from := orig.ID
	repl.RescheduledFrom = &from
	repl.CreatedAt = m.stamp()
	repl.UpdatedAt = repl.CreatedAt
	m.appts[repl.ID] = repl

	to := repl.ID
	orig.RescheduledTo = &to
	orig.UpdatedAt = m.stamp()
	return nil
}

func (m *mockStore) CancelAppointment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return store.ErrNotFound
	}
	a.Status = model.StatusCancelled
	a.UpdatedAt = m.stamp()
	return nil
}

// -- medical records --

func (m *mockStore) CreateMedicalRecord(_ context.Context, r *model.MedicalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.CreatedAt = m.stamp()
	r.UpdatedAt = r.CreatedAt
	m.records[r.ID] = r
	return nil
}

func (m *mockStore) MedicalRecordByID(_ context.Context, id string) (*model.MedicalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return r, nil
}

func (m *mockStore) ListPatientRecords(_ context.Context, patientID string, limit, offset int) ([]*model.MedicalRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*model.MedicalRecord
	for _, r := range m.records {
		if r.PatientID == patientID {
			all = append(all, r)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockStore) LatestRecordByPatient(_ context.Context, patientID string) (*model.MedicalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.MedicalRecord
	for _, r := range m.records {
		if r.PatientID != patientID {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	return latest, nil
}

func (m *mockStore) UpdateMedicalRecord(_ context.Context, r *model.MedicalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.UpdatedAt = m.stamp()
	m.records[r.ID] = r
	return nil
}

func (m *mockStore) DeleteMedicalRecord(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *mockStore) VitalsHistory(_ context.Context, patientID string, limit int) ([]*model.MedicalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*model.MedicalRecord
	for _, r := range m.records {
		if r.PatientID == patientID && !r.Vitals.Empty() {
			all = append(all, r)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
