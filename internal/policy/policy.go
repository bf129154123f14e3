// Package policy holds the authorization predicates applied uniformly
// across appointments and medical records: a caller must be a party on
// a resource to see it, and doctor-authored resources are mutable only
// by their author.
package policy

import "clinic-api/internal/model"

// Actor is the authenticated caller, extracted from the bearer token.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) IsDoctor() bool  { return a.Role == model.RoleDoctor }
func (a Actor) IsPatient() bool { return a.Role == model.RolePatient }

// IsParty reports whether the actor is the doctor or the patient
// referenced by a resource. doctorID may be empty (records opened by a
// patient before any doctor was involved).
func (a Actor) IsParty(doctorID, patientID string) bool {
	return (doctorID != "" && a.ID == doctorID) || a.ID == patientID
}

// OwnsAsDoctor reports whether the actor is the authoring doctor.
// Doctor-only mutation endpoints require this, not mere party status.
func (a Actor) OwnsAsDoctor(doctorID string) bool {
	return a.IsDoctor() && doctorID != "" && a.ID == doctorID
}

// CanTouchPatient gates per-patient endpoints (vitals, record listing):
// any doctor may act on any patient, patients only on themselves.
func (a Actor) CanTouchPatient(patientID string) bool {
	if a.IsDoctor() {
		return true
	}
	return a.ID == patientID
}
