package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gait-backend/internal/errs"
	"gait-backend/internal/gait"
	"gait-backend/internal/models"
)

// --- Structs for Request Binding ---

type CreateSessionRequest struct {
	PatientID   uint       `json:"patient_id" binding:"required"`
	VideoURL    string     `json:"video_url" binding:"required,url"`
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Notes       *string    `json:"notes"`
	SessionDate *time.Time `json:"session_date"`
}

type UpdateSessionRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Notes       *string    `json:"notes"`
	SessionDate *time.Time `json:"session_date"`
}

// Submitter starts a background analysis run for a session.
type Submitter interface {
	Submit(ctx context.Context, sessionID uint) (*models.GaitSession, error)
}

// SessionHandler serves the gait-session endpoints.
type SessionHandler struct {
	DB     *gorm.DB
	Runner Submitter
	Log    *zap.Logger
}

func NewSessionHandler(db *gorm.DB, runner Submitter, log *zap.Logger) *SessionHandler {
	return &SessionHandler{DB: db, Runner: runner, Log: log}
}

// --- Handler Functions ---

func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var patient models.Patient
	if err := h.DB.First(&patient, req.PatientID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "Patient not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error", "details": err.Error()})
		return
	}

	session := models.GaitSession{
		PatientID:      req.PatientID,
		VideoURL:       req.VideoURL,
		Title:          req.Title,
		Description:    req.Description,
		Notes:          req.Notes,
		SessionDate:    req.SessionDate,
		AnalysisStatus: models.StatusInitial,
	}
	if err := h.DB.Create(&session).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create session", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) GetSessionByID(c *gin.Context) {
	id, ok := parseID(c, "session_id")
	if !ok {
		return
	}

	var session models.GaitSession
	if err := h.DB.First(&session, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) UpdateSessionByID(c *gin.Context) {
	id, ok := parseID(c, "session_id")
	if !ok {
		return
	}

	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var session models.GaitSession
	if err := h.DB.First(&session, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error", "details": err.Error()})
		return
	}

	if req.Title != nil {
		session.Title = req.Title
	}
	if req.Description != nil {
		session.Description = req.Description
	}
	if req.Notes != nil {
		session.Notes = req.Notes
	}
	if req.SessionDate != nil {
		session.SessionDate = req.SessionDate
	}

	if err := h.DB.Save(&session).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update session", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) DeleteSessionByID(c *gin.Context) {
	id, ok := parseID(c, "session_id")
	if !ok {
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("gait_session_id = ?", id).Delete(&models.GaitMetric{}).Error; err != nil {
			return err
		}
		if err := tx.Where("gait_session_id = ?", id).Delete(&models.GaitPlotDatum{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.GaitSession{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete session", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted successfully"})
}

func (h *SessionHandler) GetSessionsWithPage(c *gin.Context) {
	pageStr := c.DefaultQuery("page", "1")
	pageSizeStr := c.DefaultQuery("page_size", "10")
	sortBy := c.DefaultQuery("sort_by", "id")
	sortOrder := strings.ToLower(c.DefaultQuery("sort_order", "asc"))
	patientIDStr := c.Query("patient_id")
	statusFilter := c.Query("analysis_status")
	search := c.Query("search")

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(pageSizeStr)
	if err != nil || pageSize < 1 {
		pageSize = 10
	}

	query := h.DB.Model(&models.GaitSession{})

	if patientIDStr != "" {
		patientID, err := strconv.ParseUint(patientIDStr, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid patient_id format for filtering"})
			return
		}
		query = query.Where("patient_id = ?", uint(patientID))
	}
	if statusFilter != "" {
		query = query.Where("analysis_status = ?", statusFilter)
	}
	if search != "" {
		query = query.Where("title ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error counting sessions", "details": err.Error()})
		return
	}

	// Allow-listed sort fields; anything else falls back to id.
	allowedSortFields := map[string]string{
		"id":              "id",
		"patient_id":      "patient_id",
		"title":           "title",
		"session_date":    "session_date",
		"analysis_status": "analysis_status",
		"created_at":      "created_at",
		"updated_at":      "updated_at",
	}
	dbSortField, isValidSortField := allowedSortFields[strings.ToLower(sortBy)]
	if !isValidSortField {
		dbSortField = "id"
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "asc"
	}
	query = query.Order(dbSortField + " " + sortOrder)

	offset := (page - 1) * pageSize
	var sessions []models.GaitSession
	if err := query.Offset(offset).Limit(pageSize).Find(&sessions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching paginated sessions", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     total,
		"page":      page,
		"page_size": pageSize,
		"sessions":  sessions,
	})
}

// AnalyzeSession submits the session for background analysis. Submissions
// for sessions already Pending, InProgress or Completed are rejected.
func (h *SessionHandler) AnalyzeSession(c *gin.Context) {
	id, ok := parseID(c, "session_id")
	if !ok {
		return
	}

	session, err := h.Runner.Submit(c.Request.Context(), uint(id))
	if err != nil {
		switch {
		case errs.IsNotFound(err):
			c.JSON(http.StatusNotFound, gin.H{"message": "Session not found"})
		case errs.IsState(err):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		default:
			h.Log.Error("analysis submission failed", zap.Uint("session_id", uint(id)), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to submit analysis", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Analysis submitted", "session": session})
}

// GetSessionMetrics returns the padded metrics table with per-column stats.
func (h *SessionHandler) GetSessionMetrics(c *gin.Context) {
	id, ok := parseID(c, "session_id")
	if !ok {
		return
	}
	if !h.sessionExists(c, uint(id)) {
		return
	}

	var metrics []models.GaitMetric
	if err := h.DB.Where("gait_session_id = ?", id).Order("measurement_index asc").Find(&metrics).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching metrics", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"metrics": metrics,
		"stats":   gait.TableStats(metrics),
	})
}

// GetSessionPlotData returns the per-frame filtered distances and event flags.
func (h *SessionHandler) GetSessionPlotData(c *gin.Context) {
	id, ok := parseID(c, "session_id")
	if !ok {
		return
	}
	if !h.sessionExists(c, uint(id)) {
		return
	}

	var plot []models.GaitPlotDatum
	if err := h.DB.Where("gait_session_id = ?", id).Order("frame_number asc").Find(&plot).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching plot data", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"plot_data": plot})
}

func (h *SessionHandler) sessionExists(c *gin.Context, id uint) bool {
	var session models.GaitSession
	if err := h.DB.Select("id").First(&session, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "Session not found"})
			return false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error", "details": err.Error()})
		return false
	}
	return true
}

func parseID(c *gin.Context, param string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid " + param + " format"})
		return 0, false
	}
	return id, true
}
