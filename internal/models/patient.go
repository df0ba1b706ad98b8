package models

import "time"

// Patient defines the subject of gait sessions together with the medical
// context (prosthetics, conditions, injuries) fed into narrative generation.
type Patient struct {
	ID        uint     `json:"id" gorm:"primaryKey"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Sex       *string  `json:"sex"`
	Age       *int     `json:"age"`
	Height    *float64 `json:"height"` // centimeters
	Weight    *float64 `json:"weight"` // kilograms

	Prosthetics       []Prosthetic       `json:"prosthetics" gorm:"foreignKey:PatientID"`
	MedicalConditions []MedicalCondition `json:"medical_conditions" gorm:"foreignKey:PatientID"`
	Injuries          []Injury           `json:"injuries" gorm:"foreignKey:PatientID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Prosthetic describes one prosthetic device worn by a patient.
type Prosthetic struct {
	ID            uint     `json:"id" gorm:"primaryKey"`
	PatientID     uint     `json:"patient_id" gorm:"index"`
	Type          string   `json:"type"`
	Side          *string  `json:"side"`
	Material      *string  `json:"material"`
	Weight        *float64 `json:"weight"`         // kilograms
	UsageDuration *int     `json:"usage_duration"` // months
	SocketFit     *string  `json:"socket_fit"`
	FootType      *string  `json:"foot_type"`
	KneeType      *string  `json:"knee_type"`
	ActivityLevel *string  `json:"activity_level"`
	Adaptation    *string  `json:"adaptation"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MedicalCondition describes one diagnosed condition of a patient.
type MedicalCondition struct {
	ID              uint    `json:"id" gorm:"primaryKey"`
	PatientID       uint    `json:"patient_id" gorm:"index"`
	Name            string  `json:"name"`
	Severity        *string `json:"severity"`
	TreatmentStatus *string `json:"treatment_status"`
	Details         *string `json:"details" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Injury describes one past or current injury of a patient.
type Injury struct {
	ID            uint    `json:"id" gorm:"primaryKey"`
	PatientID     uint    `json:"patient_id" gorm:"index"`
	InjuryType    string  `json:"injury_type"`
	Side          *string `json:"side"`
	CurrentImpact *string `json:"current_impact"`
	Details       *string `json:"details" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
