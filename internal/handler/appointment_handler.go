package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"clinic-api/internal/middleware"
	"clinic-api/internal/model"
	"clinic-api/internal/store"
)

type doctorInfo struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	LicenseNumber  string `json:"licenseNumber"`
	Experience     int    `json:"experience"`
}

// Doctors is the public directory used when picking whom to book.
func (h *Handler) Doctors(c echo.Context) error {
	doctors, err := h.store.ListDoctors(c.Request().Context())
	if err != nil {
		return h.internal(c, err, "list doctors")
	}
	out := make([]doctorInfo, 0, len(doctors))
	for _, d := range doctors {
		out = append(out, doctorInfo{
			ID:             d.ID,
			Name:           d.Name,
			Specialization: d.Doctor.Specialization,
			LicenseNumber:  d.Doctor.LicenseNumber,
			Experience:     d.Doctor.Experience,
		})
	}
	return c.JSON(http.StatusOK, out)
}

type bookRequest struct {
	DoctorID string `json:"doctorId"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Reason   string `json:"reason"`
	Symptoms string `json:"symptoms"`
}

// Book creates a pending appointment for the calling patient. The slot
// precheck gives the friendly error; the partial unique index behind
// CreateAppointment rejects whichever concurrent booking loses.
func (h *Handler) Book(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	var errs []string
	if req.DoctorID == "" {
		errs = append(errs, "Valid doctor ID is required")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		errs = append(errs, "Valid date is required")
	}
	if req.Time == "" {
		errs = append(errs, "Time is required")
	}
	if len(strings.TrimSpace(req.Reason)) < 10 {
		errs = append(errs, "Reason must be at least 10 characters long")
	}
	if len(errs) > 0 {
		return validationFailed(c, errs)
	}

	ctx := c.Request().Context()
	if _, err := h.store.DoctorByID(ctx, req.DoctorID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Doctor not found")
		}
		return h.internal(c, err, "doctor lookup")
	}

	taken, err := h.store.SlotTaken(ctx, req.DoctorID, date, req.Time, "")
	if err != nil {
		return h.internal(c, err, "slot check")
	}
	if taken {
		return echo.NewHTTPError(http.StatusBadRequest, "This time slot is already booked")
	}

	appt := &model.Appointment{
		ID:        uuid.New().String(),
		PatientID: middleware.Actor(c).ID,
		DoctorID:  req.DoctorID,
		Date:      date,
		Time:      req.Time,
		Reason:    strings.TrimSpace(req.Reason),
		Symptoms:  req.Symptoms,
		Status:    model.StatusPending,
	}
	if err := h.store.CreateAppointment(ctx, appt); err != nil {
		if errors.Is(err, store.ErrSlotTaken) {
			return echo.NewHTTPError(http.StatusBadRequest, "This time slot is already booked")
		}
		return h.internal(c, err, "create appointment")
	}

	appt, err = h.store.AppointmentByID(ctx, appt.ID)
	if err != nil {
		return h.internal(c, err, "reload appointment")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":     "Appointment booked successfully",
		"appointment": appt,
	})
}

// List returns the caller's own appointments: doctors see their
// schedule, patients their bookings. Never anyone else's.
func (h *Handler) List(c echo.Context) error {
	a := middleware.Actor(c)
	page, limit, offset := pageParams(c, 10)

	doctorID, patientID := "", ""
	if a.IsDoctor() {
		doctorID = a.ID
	} else {
		patientID = a.ID
	}

	appts, total, err := h.store.ListAppointments(c.Request().Context(),
		doctorID, patientID, c.QueryParam("status"), limit, offset)
	if err != nil {
		return h.internal(c, err, "list appointments")
	}
	if appts == nil {
		appts = []*model.Appointment{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"appointments": appts,
		"pagination":   newPagination(page, limit, total),
	})
}

func (h *Handler) Get(c echo.Context) error {
	appt, err := h.store.AppointmentByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Appointment not found")
		}
		return h.internal(c, err, "get appointment")
	}
	if !middleware.Actor(c).IsParty(appt.DoctorID, appt.PatientID) {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}
	return c.JSON(http.StatusOK, appt)
}

type updateStatusRequest struct {
	Status       string `json:"status"`
	Notes        string `json:"notes"`
	Prescription string `json:"prescription"`
	FollowUpDate string `json:"followUpDate"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	var errs []string
	if !model.ValidStatuses[req.Status] {
		errs = append(errs, "Valid status is required")
	}
	var followUp *time.Time
	if req.FollowUpDate != "" {
		t, err := parseDate(req.FollowUpDate)
		if err != nil {
			errs = append(errs, "Valid follow-up date is required")
		} else {
			followUp = &t
		}
	}
	if len(errs) > 0 {
		return validationFailed(c, errs)
	}

	ctx := c.Request().Context()
	appt, err := h.store.AppointmentByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Appointment not found")
		}
		return h.internal(c, err, "get appointment")
	}
	if !middleware.Actor(c).OwnsAsDoctor(appt.DoctorID) {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}

	appt.Status = req.Status
	if req.Notes != "" {
		appt.Notes = req.Notes
	}
	if req.Prescription != "" {
		appt.Prescription = req.Prescription
	}
	if followUp != nil {
		appt.FollowUpDate = followUp
	}

	if err := h.store.UpdateAppointment(ctx, appt); err != nil {
		// reviving a cancelled or rejected appointment can collide with
		// a booking that took the slot in the meantime
		if errors.Is(err, store.ErrSlotTaken) {
			return echo.NewHTTPError(http.StatusBadRequest, "This time slot is already booked")
		}
		return h.internal(c, err, "update appointment")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":     "Appointment status updated successfully",
		"appointment": appt,
	})
}

type rescheduleRequest struct {
	NewDate string `json:"newDate"`
	NewTime string `json:"newTime"`
}

// Reschedule books a fresh pending appointment in the new slot and
// cancels the original; the two stay linked through
// rescheduledFrom/rescheduledTo. Neither record is deleted.
func (h *Handler) Reschedule(c echo.Context) error {
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	var errs []string
	date, err := parseDate(req.NewDate)
	if err != nil {
		errs = append(errs, "Valid new date is required")
	}
	if req.NewTime == "" {
		errs = append(errs, "New time is required")
	}
	if len(errs) > 0 {
		return validationFailed(c, errs)
	}

	ctx := c.Request().Context()
	orig, err := h.store.AppointmentByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Appointment not found")
		}
		return h.internal(c, err, "get appointment")
	}
	if !middleware.Actor(c).IsParty(orig.DoctorID, orig.PatientID) {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}

	taken, err := h.store.SlotTaken(ctx, orig.DoctorID, date, req.NewTime, orig.ID)
	if err != nil {
		return h.internal(c, err, "slot check")
	}
	if taken {
		return echo.NewHTTPError(http.StatusBadRequest, "This time slot is already booked")
	}

	repl := &model.Appointment{
		ID:        uuid.New().String(),
		PatientID: orig.PatientID,
		DoctorID:  orig.DoctorID,
		Date:      date,
		Time:      req.NewTime,
		Reason:    orig.Reason,
		Symptoms:  orig.Symptoms,
		Status:    model.StatusPending,
	}
	if err := h.store.Reschedule(ctx, orig, repl); err != nil {
		if errors.Is(err, store.ErrSlotTaken) {
			return echo.NewHTTPError(http.StatusBadRequest, "This time slot is already booked")
		}
		return h.internal(c, err, "reschedule")
	}

	repl, err = h.store.AppointmentByID(ctx, repl.ID)
	if err != nil {
		return h.internal(c, err, "reload appointment")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":     "Appointment rescheduled successfully",
		"appointment": repl,
	})
}

func (h *Handler) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	appt, err := h.store.AppointmentByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Appointment not found")
		}
		return h.internal(c, err, "get appointment")
	}
	if !middleware.Actor(c).IsParty(appt.DoctorID, appt.PatientID) {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}
	if err := h.store.CancelAppointment(ctx, appt.ID); err != nil {
		return h.internal(c, err, "cancel appointment")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Appointment cancelled successfully"})
}
