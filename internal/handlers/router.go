package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter assembles the HTTP API. CORS is wide open; the service sits
// behind an authenticating gateway.
func NewRouter(patients *PatientHandler, sessions *SessionHandler) *gin.Engine {
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
	}))

	api := r.Group("/api/v1")
	{
		api.POST("/patients", patients.CreatePatient)
		api.GET("/patients", patients.GetPatientsWithPage)
		api.GET("/patients/:patient_id", patients.GetPatientByID)
		api.PUT("/patients/:patient_id", patients.UpdatePatientByID)
		api.DELETE("/patients/:patient_id", patients.DeletePatientByID)

		api.POST("/sessions", sessions.CreateSession)
		api.GET("/sessions", sessions.GetSessionsWithPage)
		api.GET("/sessions/:session_id", sessions.GetSessionByID)
		api.PUT("/sessions/:session_id", sessions.UpdateSessionByID)
		api.DELETE("/sessions/:session_id", sessions.DeleteSessionByID)

		api.POST("/sessions/:session_id/analyze", sessions.AnalyzeSession)
		api.GET("/sessions/:session_id/metrics", sessions.GetSessionMetrics)
		api.GET("/sessions/:session_id/plot-data", sessions.GetSessionPlotData)
	}

	return r
}
