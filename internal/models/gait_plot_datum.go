package models

import "time"

// GaitPlotDatum holds the filtered distance curve and event flags for one
// video frame. One row per input frame, FrameNumber 0-based.
type GaitPlotDatum struct {
	ID            uint `json:"id" gorm:"primaryKey"`
	GaitSessionID uint `json:"gait_session_id" gorm:"index"`
	FrameNumber   int  `json:"frame_number" gorm:"index"`

	DistLeftFiltered  *float64 `json:"dist_left_filtered"`
	DistRightFiltered *float64 `json:"dist_right_filtered"`
	IsPeakLeft        bool     `json:"is_peak_left"`
	IsPeakRight       bool     `json:"is_peak_right"`
	IsMinimaLeft      bool     `json:"is_minima_left"`
	IsMinimaRight     bool     `json:"is_minima_right"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
