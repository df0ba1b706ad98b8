package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gait-backend/internal/errs"
	"gait-backend/internal/models"
)

type fakeSubmitter struct {
	session *models.GaitSession
	err     error
	calls   []uint
}

func (f *fakeSubmitter) Submit(_ context.Context, sessionID uint) (*models.GaitSession, error) {
	f.calls = append(f.calls, sessionID)
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func analyzeRequest(t *testing.T, runner Submitter, sessionID string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &SessionHandler{Runner: runner, Log: zap.NewNop()}
	r := gin.New()
	r.POST("/api/v1/sessions/:session_id/analyze", h.AnalyzeSession)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+sessionID+"/analyze", nil)
	r.ServeHTTP(w, req)
	return w
}

func TestAnalyzeSessionAccepted(t *testing.T) {
	runner := &fakeSubmitter{
		session: &models.GaitSession{ID: 5, AnalysisStatus: models.StatusPending},
	}
	w := analyzeRequest(t, runner, "5")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uint{5}, runner.calls)
	assert.Contains(t, w.Body.String(), "Pending")
}

func TestAnalyzeSessionAlreadyRunning(t *testing.T) {
	runner := &fakeSubmitter{err: &errs.StateError{Status: "InProgress"}}
	w := analyzeRequest(t, runner, "5")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already been started")
}

func TestAnalyzeSessionNotFound(t *testing.T) {
	runner := &fakeSubmitter{err: &errs.NotFoundError{Entity: "gait session", ID: 5}}
	w := analyzeRequest(t, runner, "5")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyzeSessionQueueFailure(t *testing.T) {
	runner := &fakeSubmitter{err: errors.New("broker unreachable")}
	w := analyzeRequest(t, runner, "5")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAnalyzeSessionBadID(t *testing.T) {
	runner := &fakeSubmitter{}
	w := analyzeRequest(t, runner, "not-a-number")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, runner.calls)
}
