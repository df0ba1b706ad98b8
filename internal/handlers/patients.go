package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gait-backend/internal/models"
)

// --- Structs for Request Binding ---

type CreatePatientRequest struct {
	FirstName string   `json:"first_name" binding:"required"`
	LastName  string   `json:"last_name" binding:"required"`
	Sex       *string  `json:"sex"`
	Age       *int     `json:"age"`
	Height    *float64 `json:"height"`
	Weight    *float64 `json:"weight"`

	Prosthetics       []models.Prosthetic       `json:"prosthetics"`
	MedicalConditions []models.MedicalCondition `json:"medical_conditions"`
	Injuries          []models.Injury           `json:"injuries"`
}

type UpdatePatientRequest struct {
	FirstName *string  `json:"first_name"`
	LastName  *string  `json:"last_name"`
	Sex       *string  `json:"sex"`
	Age       *int     `json:"age"`
	Height    *float64 `json:"height"`
	Weight    *float64 `json:"weight"`
}

// PatientHandler serves the patient endpoints. The nested prosthetic,
// condition and injury rows ride along on create and on reads; they feed the
// narrative stage of the analysis.
type PatientHandler struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewPatientHandler(db *gorm.DB, log *zap.Logger) *PatientHandler {
	return &PatientHandler{DB: db, Log: log}
}

// --- Handler Functions ---

func (h *PatientHandler) CreatePatient(c *gin.Context) {
	var req CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patient := models.Patient{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Sex:               req.Sex,
		Age:               req.Age,
		Height:            req.Height,
		Weight:            req.Weight,
		Prosthetics:       req.Prosthetics,
		MedicalConditions: req.MedicalConditions,
		Injuries:          req.Injuries,
	}
	if err := h.DB.Create(&patient).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create patient", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, patient)
}

func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	id, ok := parseID(c, "patient_id")
	if !ok {
		return
	}

	var patient models.Patient
	err := h.DB.
		Preload("Prosthetics").
		Preload("MedicalConditions").
		Preload("Injuries").
		First(&patient, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "Patient not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, patient)
}

func (h *PatientHandler) UpdatePatientByID(c *gin.Context) {
	id, ok := parseID(c, "patient_id")
	if !ok {
		return
	}

	var req UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var patient models.Patient
	if err := h.DB.First(&patient, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "Patient not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error", "details": err.Error()})
		return
	}

	if req.FirstName != nil {
		patient.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		patient.LastName = *req.LastName
	}
	if req.Sex != nil {
		patient.Sex = req.Sex
	}
	if req.Age != nil {
		patient.Age = req.Age
	}
	if req.Height != nil {
		patient.Height = req.Height
	}
	if req.Weight != nil {
		patient.Weight = req.Weight
	}

	if err := h.DB.Save(&patient).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update patient", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, patient)
}

func (h *PatientHandler) DeletePatientByID(c *gin.Context) {
	id, ok := parseID(c, "patient_id")
	if !ok {
		return
	}

	var sessionCount int64
	if err := h.DB.Model(&models.GaitSession{}).Where("patient_id = ?", id).Count(&sessionCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error", "details": err.Error()})
		return
	}
	if sessionCount > 0 {
		c.JSON(http.StatusConflict, gin.H{"message": "Patient has gait sessions; delete those first"})
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("patient_id = ?", id).Delete(&models.Prosthetic{}).Error; err != nil {
			return err
		}
		if err := tx.Where("patient_id = ?", id).Delete(&models.MedicalCondition{}).Error; err != nil {
			return err
		}
		if err := tx.Where("patient_id = ?", id).Delete(&models.Injury{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Patient{}, id)
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
			c.JSON(http.StatusNotFound, gin.H{"message": "Patient not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete patient", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Patient deleted successfully"})
}

func (h *PatientHandler) GetPatientsWithPage(c *gin.Context) {
	pageStr := c.DefaultQuery("page", "1")
	pageSizeStr := c.DefaultQuery("page_size", "10")
	sortBy := c.DefaultQuery("sort_by", "id")
	sortOrder := strings.ToLower(c.DefaultQuery("sort_order", "asc"))
	search := c.Query("search")

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(pageSizeStr)
	if err != nil || pageSize < 1 {
		pageSize = 10
	}

	query := h.DB.Model(&models.Patient{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("first_name ILIKE ? OR last_name ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error counting patients", "details": err.Error()})
		return
	}

	allowedSortFields := map[string]string{
		"id":         "id",
		"first_name": "first_name",
		"last_name":  "last_name",
		"age":        "age",
		"created_at": "created_at",
		"updated_at": "updated_at",
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
	var patients []models.Patient
	if err := query.Offset(offset).Limit(pageSize).Find(&patients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching paginated patients", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     total,
		"page":      page,
		"page_size": pageSize,
		"patients":  patients,
	})
}
