package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"clinic-api/internal/auth"
	"clinic-api/internal/handler"
	"clinic-api/internal/middleware"
	"clinic-api/internal/model"
	"clinic-api/internal/policy"
)

const testSecret = "test-secret"

func newTestHandler() (*handler.Handler, *mockStore) {
	st := newMockStore()
	return handler.New(st, testSecret, zerolog.Nop()), st
}

// newCtx builds an echo context carrying an optional JSON body.
func newCtx(t *testing.T, method, target string, body any) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func as(u *model.User) policy.Actor {
	return policy.Actor{ID: u.ID, Role: u.Role}
}

func setParam(c echo.Context, name, value string) {
	c.SetParamNames(name)
	c.SetParamValues(value)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return m
}

func wantHTTPError(t *testing.T, err error, code int, message string) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("want *echo.HTTPError %d, got %v", code, err)
	}
	if he.Code != code {
		t.Fatalf("status = %d, want %d (message %v)", he.Code, code, he.Message)
	}
	if message != "" && he.Message != message {
		t.Fatalf("message = %v, want %q", he.Message, message)
	}
}

// wantValidationErrors checks the {"errors":[...]} envelope written by
// failed field validation.
func wantValidationErrors(t *testing.T, rec *httptest.ResponseRecorder, err error, contains string) {
	t.Helper()
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decode(t, rec)
	list, ok := body["errors"].([]any)
	if !ok || len(list) == 0 {
		t.Fatalf("missing errors array in %q", rec.Body.String())
	}
	if contains == "" {
		return
	}
	for _, e := range list {
		if e == contains {
			return
		}
	}
	t.Fatalf("errors %v does not contain %q", list, contains)
}

func seedDoctor(t *testing.T, st *mockStore, name, email string) *model.User {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &model.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleDoctor,
		Phone:        "08030000000",
		Doctor: &model.DoctorProfile{
			Specialization: "Cardiology",
			LicenseNumber:  "MD-4411",
			Experience:     8,
		},
	}
	if err := st.CreateUser(nil, u); err != nil {
		t.Fatalf("seed doctor: %v", err)
	}
	return u
}

func seedPatient(t *testing.T, st *mockStore, name, email string) *model.User {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &model.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RolePatient,
		Phone:        "08031111111",
		Patient: &model.PatientProfile{
			Age:     34,
			Gender:  "female",
			Address: "12 Broad Street, Lagos",
		},
	}
	if err := st.CreateUser(nil, u); err != nil {
		t.Fatalf("seed patient: %v", err)
	}
	return u
}

// mustBook books a slot through the handler and returns the stored
// appointment.
func mustBook(t *testing.T, h *handler.Handler, st *mockStore, patient *model.User, doctorID, date, timeSlot string) *model.Appointment {
	t.Helper()
	c, rec := newCtx(t, "POST", "/appointments", map[string]any{
		"doctorId": doctorID,
		"date":     date,
		"time":     timeSlot,
		"reason":   "Recurring chest pain after exercise",
	})
	middleware.SetActor(c, as(patient))
	if err := h.Book(c); err != nil {
		t.Fatalf("book: %v", err)
	}
	if rec.Code != 201 {
		t.Fatalf("book status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	appt := body["appointment"].(map[string]any)
	a, err := st.AppointmentByID(nil, appt["id"].(string))
	if err != nil {
		t.Fatalf("booked appointment not stored: %v", err)
	}
	return a
}
