package models

import (
	"time"

	"github.com/lib/pq"
)

// AnalysisStatus tracks a session through its analysis lifecycle.
type AnalysisStatus string

const (
	StatusInitial    AnalysisStatus = "Initial"
	StatusPending    AnalysisStatus = "Pending"
	StatusInProgress AnalysisStatus = "InProgress"
	StatusCompleted  AnalysisStatus = "Completed"
	StatusError      AnalysisStatus = "Error"
)

// Submittable reports whether a new analysis run may be started from s.
func (s AnalysisStatus) Submittable() bool {
	return s == StatusInitial || s == StatusError
}

// GaitSession defines one gait-analysis unit for a patient. FrameRate and
// the narrative fields stay unset until the analysis completes; a run that
// fails leaves them untouched and the status at Error.
type GaitSession struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	PatientID         uint           `json:"patient_id" gorm:"index"`
	VideoURL          string         `json:"video_url"`
	AnnotatedVideoURL *string        `json:"annotated_video_url"`
	Title             *string        `json:"title" gorm:"type:text"`
	Description       *string        `json:"description" gorm:"type:text"`
	Notes             *string        `json:"notes" gorm:"type:text"`
	SessionDate       *time.Time     `json:"session_date"`
	FrameRate         *float64       `json:"frame_rate"`
	AnalysisStatus    AnalysisStatus `json:"analysis_status" gorm:"default:'Initial';index"`

	DetailedAnalysis      *string        `json:"detailed_analysis" gorm:"type:text"`
	SummarizedAnalysis    *string        `json:"summarized_analysis" gorm:"type:text"`
	Recommendations       pq.StringArray `json:"recommendations" gorm:"type:text[]"`
	PossibleAbnormalities pq.StringArray `json:"possible_abnormalities" gorm:"type:text[]"`
	RecommendedExercises  pq.StringArray `json:"recommended_exercises" gorm:"type:text[]"`
	LongTermRisks         pq.StringArray `json:"long_term_risks" gorm:"type:text[]"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
