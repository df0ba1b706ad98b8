package models

import "time"

// GaitMetric holds one row of the padded per-cycle duration table for a
// session. Columns are nullable because the eight duration sequences have
// independent lengths; row position is a storage alignment, not a claim that
// all columns describe the same physical gait cycle.
type GaitMetric struct {
	ID               uint `json:"id" gorm:"primaryKey"`
	GaitSessionID    uint `json:"gait_session_id" gorm:"index"`
	MeasurementIndex int  `json:"measurement_index" gorm:"index"`

	StanceTimeLeft         *float64 `json:"stance_time_left"`
	StanceTimeRight        *float64 `json:"stance_time_right"`
	SwingTimeLeft          *float64 `json:"swing_time_left"`
	SwingTimeRight         *float64 `json:"swing_time_right"`
	StepTimeLeft           *float64 `json:"step_time_left"`
	StepTimeRight          *float64 `json:"step_time_right"`
	DoubleSupportTimeLeft  *float64 `json:"double_support_time_left"`
	DoubleSupportTimeRight *float64 `json:"double_support_time_right"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
