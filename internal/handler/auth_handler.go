package handler

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"clinic-api/internal/auth"
	"clinic-api/internal/middleware"
	"clinic-api/internal/model"
	"clinic-api/internal/store"
)

type registerRequest struct {
	Name             string                  `json:"name"`
	Email            string                  `json:"email"`
	Password         string                  `json:"password"`
	Role             string                  `json:"role"`
	Phone            string                  `json:"phone"`
	Specialization   string                  `json:"specialization"`
	LicenseNumber    string                  `json:"licenseNumber"`
	Experience       *int                    `json:"experience"`
	Age              *int                    `json:"age"`
	Gender           string                  `json:"gender"`
	Address          string                  `json:"address"`
	EmergencyContact *model.EmergencyContact `json:"emergencyContact"`
}

func (r *registerRequest) validate() []string {
	var errs []string
	if len(strings.TrimSpace(r.Name)) < 2 {
		errs = append(errs, "Name must be at least 2 characters long")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		errs = append(errs, "Please provide a valid email")
	}
	if len(r.Password) < 6 {
		errs = append(errs, "Password must be at least 6 characters long")
	}
	if r.Role != model.RoleDoctor && r.Role != model.RolePatient {
		errs = append(errs, "Role must be either doctor or patient")
	}
	if r.Phone == "" {
		errs = append(errs, "Phone number is required")
	}
	switch r.Role {
	case model.RoleDoctor:
		if strings.TrimSpace(r.Specialization) == "" {
			errs = append(errs, "Specialization is required for doctors")
		}
		if strings.TrimSpace(r.LicenseNumber) == "" {
			errs = append(errs, "License number is required for doctors")
		}
		if r.Experience == nil || *r.Experience < 0 {
			errs = append(errs, "Experience must be a positive number")
		}
	case model.RolePatient:
		if r.Age == nil || *r.Age < 1 || *r.Age > 120 {
			errs = append(errs, "Age must be between 1 and 120")
		}
		if !model.ValidGenders[r.Gender] {
			errs = append(errs, "Gender must be male, female, or other")
		}
		if strings.TrimSpace(r.Address) == "" {
			errs = append(errs, "Address is required for patients")
		}
	}
	return errs
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if errs := req.validate(); len(errs) > 0 {
		return validationFailed(c, errs)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return h.internal(c, err, "hash password")
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         req.Role,
		Phone:        req.Phone,
	}
	switch req.Role {
	case model.RoleDoctor:
		u.Doctor = &model.DoctorProfile{
			Specialization: req.Specialization,
			LicenseNumber:  req.LicenseNumber,
			Experience:     *req.Experience,
		}
	case model.RolePatient:
		u.Patient = &model.PatientProfile{
			Age:              *req.Age,
			Gender:           req.Gender,
			Address:          req.Address,
			EmergencyContact: req.EmergencyContact,
		}
	}

	if err := h.store.CreateUser(c.Request().Context(), u); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return echo.NewHTTPError(http.StatusBadRequest, "User already exists with this email")
		}
		return h.internal(c, err, "create user")
	}

	tok, err := auth.MakeToken(u.ID, u.Role, h.secret)
	if err != nil {
		return h.internal(c, err, "make token")
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User registered successfully",
		"token":   tok,
		"user":    u,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	var errs []string
	if _, err := mail.ParseAddress(req.Email); err != nil {
		errs = append(errs, "Please provide a valid email")
	}
	if req.Password == "" {
		errs = append(errs, "Password is required")
	}
	if req.Role != model.RoleDoctor && req.Role != model.RolePatient {
		errs = append(errs, "Role must be either doctor or patient")
	}
	if len(errs) > 0 {
		return validationFailed(c, errs)
	}

	u, err := h.store.UserByEmail(c.Request().Context(), strings.ToLower(strings.TrimSpace(req.Email)), req.Role)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
		}
		return h.internal(c, err, "login lookup")
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	tok, err := auth.MakeToken(u.ID, u.Role, h.secret)
	if err != nil {
		return h.internal(c, err, "make token")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Login successful",
		"token":   tok,
		"user":    u,
	})
}

func (h *Handler) Me(c echo.Context) error {
	u, err := h.store.UserByID(c.Request().Context(), middleware.Actor(c).ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return h.internal(c, err, "get profile")
	}
	return c.JSON(http.StatusOK, u)
}

type updateProfileRequest struct {
	Name             string                  `json:"name"`
	Phone            string                  `json:"phone"`
	Specialization   string                  `json:"specialization"`
	LicenseNumber    string                  `json:"licenseNumber"`
	Experience       *int                    `json:"experience"`
	Age              *int                    `json:"age"`
	Gender           string                  `json:"gender"`
	Address          string                  `json:"address"`
	EmergencyContact *model.EmergencyContact `json:"emergencyContact"`
}

// UpdateProfile applies the provided fields; role and email never
// change, and fields for the other role are ignored outright.
func (h *Handler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	u, err := h.store.UserByID(c.Request().Context(), middleware.Actor(c).ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return h.internal(c, err, "load profile")
	}

	var errs []string
	if req.Name != "" {
		if len(strings.TrimSpace(req.Name)) < 2 {
			errs = append(errs, "Name must be at least 2 characters long")
		} else {
			u.Name = strings.TrimSpace(req.Name)
		}
	}
	if req.Phone != "" {
		u.Phone = req.Phone
	}

	switch u.Role {
	case model.RoleDoctor:
		if req.Specialization != "" {
			u.Doctor.Specialization = req.Specialization
		}
		if req.LicenseNumber != "" {
			u.Doctor.LicenseNumber = req.LicenseNumber
		}
		if req.Experience != nil {
			if *req.Experience < 0 {
				errs = append(errs, "Experience must be a positive number")
			} else {
				u.Doctor.Experience = *req.Experience
			}
		}
	case model.RolePatient:
		if req.Age != nil {
			if *req.Age < 1 || *req.Age > 120 {
				errs = append(errs, "Age must be between 1 and 120")
			} else {
				u.Patient.Age = *req.Age
			}
		}
		if req.Gender != "" {
			if !model.ValidGenders[req.Gender] {
				errs = append(errs, "Gender must be male, female, or other")
			} else {
				u.Patient.Gender = req.Gender
			}
		}
		if req.Address != "" {
			u.Patient.Address = req.Address
		}
		if req.EmergencyContact != nil {
			u.Patient.EmergencyContact = req.EmergencyContact
		}
	}
	if len(errs) > 0 {
		return validationFailed(c, errs)
	}

	if err := h.store.UpdateProfile(c.Request().Context(), u); err != nil {
		return h.internal(c, err, "update profile")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Profile updated successfully",
		"user":    u,
	})
}
