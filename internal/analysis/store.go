package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"gait-backend/internal/errs"
	"gait-backend/internal/models"
	"gait-backend/internal/narrative"
)

// plotBatchSize bounds the row count of one plot-data INSERT. Chunking is
// an efficiency device only; the whole write remains a single transaction.
const plotBatchSize = 1000

// RunResults carries everything a successful run persists atomically.
type RunResults struct {
	FrameRate         float64
	AnnotatedVideoURL string
	Narrative         *narrative.Analysis
	Metrics           []models.GaitMetric
	PlotData          []models.GaitPlotDatum
}

// Store is the persistence surface the orchestrator drives. Every status
// transition it performs is durable before the worker moves on.
type Store interface {
	GetSession(ctx context.Context, id uint) (*models.GaitSession, error)
	GetPatient(ctx context.Context, id uint) (*models.Patient, error)
	// SubmitPending guards and performs the Initial/Error -> Pending
	// transition; any other current status is a StateError.
	SubmitPending(ctx context.Context, id uint) (*models.GaitSession, error)
	SetStatus(ctx context.Context, id uint, status models.AnalysisStatus) error
	// SaveResults replaces prior metric/plot rows and completes the
	// session in one transaction.
	SaveResults(ctx context.Context, id uint, res *RunResults) error
	// MarkStaleErrored moves InProgress sessions untouched since the
	// cutoff to Error, returning how many were swept.
	MarkStaleErrored(ctx context.Context, cutoff time.Time) (int64, error)
}

// GormStore is the Postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetSession(ctx context.Context, id uint) (*models.GaitSession, error) {
	var session models.GaitSession
	if err := s.db.WithContext(ctx).First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &errs.NotFoundError{Entity: "gait session", ID: id}
		}
		return nil, err
	}
	return &session, nil
}

func (s *GormStore) GetPatient(ctx context.Context, id uint) (*models.Patient, error) {
	var patient models.Patient
	err := s.db.WithContext(ctx).
		Preload("Prosthetics").
		Preload("MedicalConditions").
		Preload("Injuries").
		First(&patient, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &errs.NotFoundError{Entity: "patient", ID: id}
		}
		return nil, err
	}
	return &patient, nil
}

func (s *GormStore) SubmitPending(ctx context.Context, id uint) (*models.GaitSession, error) {
	var session models.GaitSession
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&session, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &errs.NotFoundError{Entity: "gait session", ID: id}
			}
			return err
		}
		if !session.AnalysisStatus.Submittable() {
			return &errs.StateError{Status: string(session.AnalysisStatus)}
		}
		session.AnalysisStatus = models.StatusPending
		return tx.Model(&models.GaitSession{}).
			Where("id = ?", id).
			Update("analysis_status", models.StatusPending).Error
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *GormStore) SetStatus(ctx context.Context, id uint, status models.AnalysisStatus) error {
	res := s.db.WithContext(ctx).Model(&models.GaitSession{}).
		Where("id = ?", id).
		Update("analysis_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &errs.NotFoundError{Entity: "gait session", ID: id}
	}
	return nil
}

func (s *GormStore) SaveResults(ctx context.Context, id uint, res *RunResults) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"frame_rate":             res.FrameRate,
			"annotated_video_url":    res.AnnotatedVideoURL,
			"detailed_analysis":      res.Narrative.DetailedAnalysis,
			"summarized_analysis":    res.Narrative.Summary,
			"recommendations":        pq.StringArray(res.Narrative.Recommendations),
			"possible_abnormalities": pq.StringArray(res.Narrative.PossibleAbnormalities),
			"recommended_exercises":  pq.StringArray(res.Narrative.RecommendedExercises),
			"long_term_risks":        pq.StringArray(res.Narrative.LongTermRisks),
			"analysis_status":        models.StatusCompleted,
		}
		if err := tx.Model(&models.GaitSession{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}

		// Re-analysis replaces prior rows as a unit.
		if err := tx.Where("gait_session_id = ?", id).Delete(&models.GaitMetric{}).Error; err != nil {
			return err
		}
		if err := tx.Where("gait_session_id = ?", id).Delete(&models.GaitPlotDatum{}).Error; err != nil {
			return err
		}

		metrics := make([]models.GaitMetric, len(res.Metrics))
		copy(metrics, res.Metrics)
		for i := range metrics {
			metrics[i].GaitSessionID = id
		}
		if err := tx.Create(&metrics).Error; err != nil {
			return err
		}

		plot := make([]models.GaitPlotDatum, len(res.PlotData))
		copy(plot, res.PlotData)
		for i := range plot {
			plot[i].GaitSessionID = id
		}
		return tx.CreateInBatches(&plot, plotBatchSize).Error
	})
}

func (s *GormStore) MarkStaleErrored(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.GaitSession{}).
		Where("analysis_status = ? AND updated_at < ?", models.StatusInProgress, cutoff).
		Update("analysis_status", models.StatusError)
	return res.RowsAffected, res.Error
}
