package model

import (
	"errors"
	"time"
)

type Measurement struct {
	Value float64   `json:"value"`
	Unit  string    `json:"unit"`
	Date  time.Time `json:"date"`
}

type BloodPressure struct {
	Systolic  float64   `json:"systolic"`
	Diastolic float64   `json:"diastolic"`
	Date      time.Time `json:"date"`
}

// Vitals is the timestamped measurement set on a medical record. Nil
// fields have never been recorded.
type Vitals struct {
	Weight        *Measurement   `json:"weight,omitempty"`
	Height        *Measurement   `json:"height,omitempty"`
	HeartRate     *Measurement   `json:"heartRate,omitempty"`
	BloodPressure *BloodPressure `json:"bloodPressure,omitempty"`
	Temperature   *Measurement   `json:"temperature,omitempty"`
}

// Empty reports whether no vital has ever been recorded.
func (v *Vitals) Empty() bool {
	return v.Weight == nil && v.Height == nil && v.HeartRate == nil &&
		v.BloodPressure == nil && v.Temperature == nil
}

type BloodPressureInput struct {
	Systolic  float64 `json:"systolic"`
	Diastolic float64 `json:"diastolic"`
}

// VitalsUpdate is a partial vitals submission. Nil fields are left
// untouched on the target record.
type VitalsUpdate struct {
	Weight        *float64            `json:"weight"`
	Height        *float64            `json:"height"`
	HeartRate     *float64            `json:"heartRate"`
	BloodPressure *BloodPressureInput `json:"bloodPressure"`
	Temperature   *float64            `json:"temperature"`
}

func (u *VitalsUpdate) Empty() bool {
	return u.Weight == nil && u.Height == nil && u.HeartRate == nil &&
		u.BloodPressure == nil && u.Temperature == nil
}

// Validate enforces the accepted physiological ranges. The blood
// pressure pair is checked per component so a lone out-of-range
// diastolic is caught even when systolic is fine.
func (u *VitalsUpdate) Validate() error {
	if u.Empty() {
		return errors.New("At least one vital measurement is required")
	}
	if u.Weight != nil && (*u.Weight < 0 || *u.Weight > 500) {
		return errors.New("Weight must be between 0 and 500 kg")
	}
	if u.Height != nil && (*u.Height < 0 || *u.Height > 300) {
		return errors.New("Height must be between 0 and 300 cm")
	}
	if u.HeartRate != nil && (*u.HeartRate < 30 || *u.HeartRate > 200) {
		return errors.New("Heart rate must be between 30 and 200 bpm")
	}
	if u.BloodPressure != nil {
		if u.BloodPressure.Systolic < 70 || u.BloodPressure.Systolic > 200 {
			return errors.New("Systolic pressure must be between 70 and 200")
		}
		if u.BloodPressure.Diastolic < 40 || u.BloodPressure.Diastolic > 130 {
			return errors.New("Diastolic pressure must be between 40 and 130")
		}
	}
	if u.Temperature != nil && (*u.Temperature < 35 || *u.Temperature > 42) {
		return errors.New("Temperature must be between 35 and 42 °C")
	}
	return nil
}

// Apply writes each provided vital onto v with its canonical unit and
// the given timestamp. Vitals not present in the update keep their
// previous value.
func (u *VitalsUpdate) Apply(v *Vitals, now time.Time) {
	if u.Weight != nil {
		v.Weight = &Measurement{Value: *u.Weight, Unit: "kg", Date: now}
	}
	if u.Height != nil {
		v.Height = &Measurement{Value: *u.Height, Unit: "cm", Date: now}
	}
	if u.HeartRate != nil {
		v.HeartRate = &Measurement{Value: *u.HeartRate, Unit: "bpm", Date: now}
	}
	if u.BloodPressure != nil {
		v.BloodPressure = &BloodPressure{
			Systolic:  u.BloodPressure.Systolic,
			Diastolic: u.BloodPressure.Diastolic,
			Date:      now,
		}
	}
	if u.Temperature != nil {
		v.Temperature = &Measurement{Value: *u.Temperature, Unit: "°C", Date: now}
	}
}
