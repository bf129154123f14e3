package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"clinic-api/internal/middleware"
	"clinic-api/internal/model"
	"clinic-api/internal/store"
)

type recordRequest struct {
	PatientID      string               `json:"patientId"`
	AppointmentID  string               `json:"appointmentId"`
	Vitals         *model.Vitals        `json:"vitals"`
	Diagnosis      *string              `json:"diagnosis"`
	Symptoms       []string             `json:"symptoms"`
	Prescription   *model.Prescription  `json:"prescription"`
	Treatment      *string              `json:"treatment"`
	FollowUp       *model.FollowUp      `json:"followUp"`
	Allergies      []string             `json:"allergies"`
	MedicalHistory []model.HistoryEntry `json:"medicalHistory"`
	Remedy         *string              `json:"remedy"`
	Formula        *string              `json:"formula"`
	Notes          *string              `json:"notes"`
}

func (r *recordRequest) validateHistory() []string {
	var errs []string
	for _, e := range r.MedicalHistory {
		if e.Status != "" && !model.ValidHistoryStatuses[e.Status] {
			errs = append(errs, "Medical history status must be active, resolved, or chronic")
			break
		}
	}
	return errs
}

// CreateRecord opens a clinical document authored by the calling
// doctor.
func (h *Handler) CreateRecord(c echo.Context) error {
	var req recordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	errs := req.validateHistory()
	if req.PatientID == "" {
		errs = append(errs, "Valid patient ID is required")
	}
	if len(errs) > 0 {
		return validationFailed(c, errs)
	}

	ctx := c.Request().Context()
	if _, err := h.store.PatientByID(ctx, req.PatientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Patient not found")
		}
		return h.internal(c, err, "patient lookup")
	}
	var apptID *string
	if req.AppointmentID != "" {
		if _, err := h.store.AppointmentByID(ctx, req.AppointmentID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "Appointment not found")
			}
			return h.internal(c, err, "appointment lookup")
		}
		apptID = &req.AppointmentID
	}

	doctorID := middleware.Actor(c).ID
	rec := &model.MedicalRecord{
		ID:            uuid.New().String(),
		PatientID:     req.PatientID,
		DoctorID:      &doctorID,
		AppointmentID: apptID,
	}
	if req.Vitals != nil {
		rec.Vitals = *req.Vitals
	}
	applyRecordFields(rec, &req)

	if err := h.store.CreateMedicalRecord(ctx, rec); err != nil {
		return h.internal(c, err, "create medical record")
	}
	rec, err := h.store.MedicalRecordByID(ctx, rec.ID)
	if err != nil {
		return h.internal(c, err, "reload medical record")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":       "Medical record created successfully",
		"medicalRecord": rec,
	})
}

// applyRecordFields copies the provided sections onto the record;
// absent sections keep whatever the record already holds.
func applyRecordFields(rec *model.MedicalRecord, req *recordRequest) {
	if req.Diagnosis != nil {
		rec.Diagnosis = *req.Diagnosis
	}
	if req.Symptoms != nil {
		rec.Symptoms = req.Symptoms
	}
	if req.Prescription != nil {
		rec.Prescription = *req.Prescription
	}
	if req.Treatment != nil {
		rec.Treatment = *req.Treatment
	}
	if req.FollowUp != nil {
		rec.FollowUp = *req.FollowUp
	}
	if req.Allergies != nil {
		rec.Allergies = req.Allergies
	}
	if req.MedicalHistory != nil {
		rec.MedicalHistory = req.MedicalHistory
	}
	if req.Remedy != nil {
		rec.Remedy = *req.Remedy
	}
	if req.Formula != nil {
		rec.Formula = *req.Formula
	}
	if req.Notes != nil {
		rec.Notes = *req.Notes
	}
}

type patientWithRecord struct {
	*model.User
	LatestMedicalRecord *model.MedicalRecord `json:"latestMedicalRecord"`
}

// Patients is the doctor-facing directory with search and each
// patient's most recent record attached. One extra lookup per patient;
// fine at clinic scale.
func (h *Handler) Patients(c echo.Context) error {
	page, limit, offset := pageParams(c, 20)
	ctx := c.Request().Context()

	patients, total, err := h.store.SearchPatients(ctx, c.QueryParam("search"), limit, offset)
	if err != nil {
		return h.internal(c, err, "search patients")
	}

	out := make([]patientWithRecord, 0, len(patients))
	for _, p := range patients {
		latest, err := h.store.LatestRecordByPatient(ctx, p.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return h.internal(c, err, "latest record lookup")
		}
		out = append(out, patientWithRecord{User: p, LatestMedicalRecord: latest})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"patients":   out,
		"pagination": newPagination(page, limit, total),
	})
}

func (h *Handler) GetRecord(c echo.Context) error {
	rec, err := h.store.MedicalRecordByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Medical record not found")
		}
		return h.internal(c, err, "get medical record")
	}
	docID := ""
	if rec.DoctorID != nil {
		docID = *rec.DoctorID
	}
	if !middleware.Actor(c).IsParty(docID, rec.PatientID) {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}
	return c.JSON(http.StatusOK, rec)
}

// UpdateRecord is restricted to the authoring doctor; another doctor
// treating the same patient still may not touch it.
func (h *Handler) UpdateRecord(c echo.Context) error {
	var req recordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if errs := req.validateHistory(); len(errs) > 0 {
		return validationFailed(c, errs)
	}

	ctx := c.Request().Context()
	rec, err := h.store.MedicalRecordByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Medical record not found")
		}
		return h.internal(c, err, "get medical record")
	}
	docID := ""
	if rec.DoctorID != nil {
		docID = *rec.DoctorID
	}
	if !middleware.Actor(c).OwnsAsDoctor(docID) {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}

	if req.Vitals != nil {
		rec.Vitals = *req.Vitals
	}
	applyRecordFields(rec, &req)

	if err := h.store.UpdateMedicalRecord(ctx, rec); err != nil {
		return h.internal(c, err, "update medical record")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":       "Medical record updated successfully",
		"medicalRecord": rec,
	})
}

func (h *Handler) DeleteRecord(c echo.Context) error {
	ctx := c.Request().Context()
	rec, err := h.store.MedicalRecordByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Medical record not found")
		}
		return h.internal(c, err, "get medical record")
	}
	docID := ""
	if rec.DoctorID != nil {
		docID = *rec.DoctorID
	}
	if !middleware.Actor(c).OwnsAsDoctor(docID) {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}
	if err := h.store.DeleteMedicalRecord(ctx, rec.ID); err != nil {
		return h.internal(c, err, "delete medical record")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Medical record deleted successfully"})
}

// PatientRecords lists one patient's documents, newest first. Patients
// may only ask for their own.
func (h *Handler) PatientRecords(c echo.Context) error {
	patientID := c.Param("patientId")
	if !middleware.Actor(c).CanTouchPatient(patientID) {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}
	page, limit, offset := pageParams(c, 10)

	recs, total, err := h.store.ListPatientRecords(c.Request().Context(), patientID, limit, offset)
	if err != nil {
		return h.internal(c, err, "list patient records")
	}
	if recs == nil {
		recs = []*model.MedicalRecord{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"medicalRecords": recs,
		"pagination":     newPagination(page, limit, total),
	})
}

// UpdateVitals writes the submitted measurements onto the patient's
// most recent record, opening a fresh record when none exists. Each
// provided vital gets its canonical unit and the current timestamp;
// vitals not submitted keep their previous reading.
func (h *Handler) UpdateVitals(c echo.Context) error {
	patientID := c.Param("patientId")
	a := middleware.Actor(c)
	if !a.CanTouchPatient(patientID) {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}

	ctx := c.Request().Context()
	if _, err := h.store.PatientByID(ctx, patientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Patient not found")
		}
		return h.internal(c, err, "patient lookup")
	}

	var update model.VitalsUpdate
	if err := c.Bind(&update); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := update.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rec, err := h.store.LatestRecordByPatient(ctx, patientID)
	created := false
	if errors.Is(err, store.ErrNotFound) {
		rec = &model.MedicalRecord{
			ID:        uuid.New().String(),
			PatientID: patientID,
		}
		if a.IsDoctor() {
			doctorID := a.ID
			rec.DoctorID = &doctorID
		}
		created = true
	} else if err != nil {
		return h.internal(c, err, "latest record lookup")
	}

	update.Apply(&rec.Vitals, time.Now())

	if created {
		err = h.store.CreateMedicalRecord(ctx, rec)
	} else {
		err = h.store.UpdateMedicalRecord(ctx, rec)
	}
	if err != nil {
		return h.internal(c, err, "save vitals")
	}

	rec, err = h.store.MedicalRecordByID(ctx, rec.ID)
	if err != nil {
		return h.internal(c, err, "reload medical record")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":       "Patient vitals updated successfully",
		"medicalRecord": rec,
	})
}

type vitalsEntry struct {
	ID        string       `json:"id"`
	Vitals    model.Vitals `json:"vitals"`
	CreatedAt time.Time    `json:"createdAt"`
}

func (h *Handler) VitalsHistory(c echo.Context) error {
	patientID := c.Param("patientId")
	if !middleware.Actor(c).CanTouchPatient(patientID) {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}

	ctx := c.Request().Context()
	if _, err := h.store.PatientByID(ctx, patientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Patient not found")
		}
		return h.internal(c, err, "patient lookup")
	}

	recs, err := h.store.VitalsHistory(ctx, patientID, 20)
	if err != nil {
		return h.internal(c, err, "vitals history")
	}
	out := make([]vitalsEntry, 0, len(recs))
	for _, r := range recs {
		out = append(out, vitalsEntry{ID: r.ID, Vitals: r.Vitals, CreatedAt: r.CreatedAt})
	}
	return c.JSON(http.StatusOK, out)
}
