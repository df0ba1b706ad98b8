package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"gait-backend/internal/errs"
	"gait-backend/internal/models"
	"gait-backend/internal/narrative"
)

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return NewGormStore(gdb), mock
}

func sampleResults(plotRows int) *RunResults {
	v := 0.6
	plot := make([]models.GaitPlotDatum, plotRows)
	for i := range plot {
		plot[i] = models.GaitPlotDatum{FrameNumber: i, DistLeftFiltered: &v, DistRightFiltered: &v}
	}
	return &RunResults{
		FrameRate:         30,
		AnnotatedVideoURL: "https://cdn.example/a.mp4",
		Narrative: &narrative.Analysis{
			DetailedAnalysis:      "## Analysis",
			Summary:               "ok",
			PossibleAbnormalities: []string{},
			Recommendations:       []string{},
			RecommendedExercises:  []string{},
			LongTermRisks:         []string{},
		},
		Metrics: []models.GaitMetric{
			{MeasurementIndex: 0, StanceTimeLeft: &v},
			{MeasurementIndex: 1},
		},
		PlotData: plot,
	}
}

func idRows(n int) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id"})
	for i := 1; i <= n; i++ {
		rows.AddRow(i)
	}
	return rows
}

func TestSaveResultsCommitsInOneTransaction(t *testing.T) {
	store, mock := newMockStore(t)
	res := sampleResults(3)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "gait_sessions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "gait_metrics"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "gait_plot_data"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO "gait_metrics"`).
		WillReturnRows(idRows(2))
	mock.ExpectQuery(`INSERT INTO "gait_plot_data"`).
		WillReturnRows(idRows(3))
	mock.ExpectCommit()

	require.NoError(t, store.SaveResults(context.Background(), 1, res))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveResultsChunksPlotRows(t *testing.T) {
	store, mock := newMockStore(t)
	res := sampleResults(2500)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "gait_sessions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "gait_metrics"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "gait_plot_data"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO "gait_metrics"`).
		WillReturnRows(idRows(2))
	// 2500 rows insert as batches of 1000, 1000 and 500.
	mock.ExpectQuery(`INSERT INTO "gait_plot_data"`).
		WillReturnRows(idRows(1000))
	mock.ExpectQuery(`INSERT INTO "gait_plot_data"`).
		WillReturnRows(idRows(1000))
	mock.ExpectQuery(`INSERT INTO "gait_plot_data"`).
		WillReturnRows(idRows(500))
	mock.ExpectCommit()

	require.NoError(t, store.SaveResults(context.Background(), 1, res))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveResultsRollsBackOnBatchFailure(t *testing.T) {
	store, mock := newMockStore(t)
	res := sampleResults(2500)
	boom := errors.New("serialization failure")

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "gait_sessions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "gait_metrics"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "gait_plot_data"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO "gait_metrics"`).
		WillReturnRows(idRows(2))
	mock.ExpectQuery(`INSERT INTO "gait_plot_data"`).
		WillReturnRows(idRows(1000))
	mock.ExpectQuery(`INSERT INTO "gait_plot_data"`).
		WillReturnRows(idRows(1000))
	// Third batch fails; the session update and earlier batches roll back.
	mock.ExpectQuery(`INSERT INTO "gait_plot_data"`).
		WillReturnError(boom)
	mock.ExpectRollback()

	err := store.SaveResults(context.Background(), 1, res)
	require.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitPendingGuardsStatus(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "gait_sessions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "analysis_status"}).
			AddRow(1, "InProgress"))
	mock.ExpectRollback()

	_, err := store.SubmitPending(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errs.IsState(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitPendingFromError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "gait_sessions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "analysis_status"}).
			AddRow(1, "Error"))
	mock.ExpectExec(`UPDATE "gait_sessions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	session, err := store.SubmitPending(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, session.AnalysisStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitPendingNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "gait_sessions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "analysis_status"}))
	mock.ExpectRollback()

	_, err := store.SubmitPending(context.Background(), 9)
	assert.True(t, errs.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSessionNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "gait_sessions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetSession(context.Background(), 404)
	assert.True(t, errs.IsNotFound(err))
}

func TestSetStatusNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "gait_sessions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := store.SetStatus(context.Background(), 404, models.StatusError)
	assert.True(t, errs.IsNotFound(err))
}

func TestMarkStaleErrored(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "gait_sessions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := store.MarkStaleErrored(context.Background(), time.Now().Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
