// Package analysis orchestrates the full gait-analysis run for a session:
// fetch the video, extract pose landmarks, condition the distance signals,
// detect gait events, compute the metrics table and plot rows, produce the
// annotated video and the clinical narrative, then persist everything in one
// transaction.
package analysis

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gait-backend/internal/assets"
	"gait-backend/internal/errs"
	"gait-backend/internal/gait"
	"gait-backend/internal/models"
	"gait-backend/internal/narrative"
	"gait-backend/internal/pose"
	"gait-backend/internal/queue"
	"gait-backend/internal/signal"
)

// Deps wires the orchestrator's collaborators. Conditioner and Detector
// default to the clinical parameters when nil. An empty FFmpegPath skips the
// browser-compatibility re-encode and uploads the annotated file as-is.
type Deps struct {
	Store       Store
	Queue       queue.TaskQueue
	Extractor   pose.Extractor
	Annotator   pose.Annotator
	Assets      assets.Store
	Narrative   narrative.Generator
	Conditioner *signal.Conditioner
	Detector    *signal.Detector
	FFmpegPath  string
	TempDir     string
	Logger      *zap.Logger
}

// Orchestrator drives the analysis lifecycle of gait sessions.
type Orchestrator struct {
	store       Store
	queue       queue.TaskQueue
	extractor   pose.Extractor
	annotator   pose.Annotator
	assets      assets.Store
	narrative   narrative.Generator
	conditioner *signal.Conditioner
	detector    *signal.Detector
	ffmpegPath  string
	tempDir     string
	log         *zap.Logger
}

func NewOrchestrator(d Deps) *Orchestrator {
	if d.Conditioner == nil {
		d.Conditioner = signal.NewConditioner()
	}
	if d.Detector == nil {
		d.Detector = signal.NewDetector()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.TempDir == "" {
		d.TempDir = os.TempDir()
	}
	return &Orchestrator{
		store:       d.Store,
		queue:       d.Queue,
		extractor:   d.Extractor,
		annotator:   d.Annotator,
		assets:      d.Assets,
		narrative:   d.Narrative,
		conditioner: d.Conditioner,
		detector:    d.Detector,
		ffmpegPath:  d.FFmpegPath,
		tempDir:     d.TempDir,
		log:         d.Logger,
	}
}

// Submit moves the session to Pending and hands it to the queue. The Pending
// write commits before the enqueue, so a broker outage after the commit is
// surfaced by moving the session to Error rather than leaving it stuck.
func (o *Orchestrator) Submit(ctx context.Context, sessionID uint) (*models.GaitSession, error) {
	session, err := o.store.SubmitPending(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := o.queue.Enqueue(ctx, sessionID); err != nil {
		o.log.Error("enqueue failed after pending commit",
			zap.Uint("session_id", sessionID), zap.Error(err))
		if serr := o.store.SetStatus(ctx, sessionID, models.StatusError); serr != nil {
			o.log.Error("could not mark session errored after enqueue failure",
				zap.Uint("session_id", sessionID), zap.Error(serr))
		}
		return nil, &errs.TransportError{Op: "task enqueue", Err: err}
	}
	return session, nil
}

// Process is the worker entry point for one dequeued session. A session that
// no longer exists is dropped without a status write; any run failure moves
// the session to Error with the completed fields untouched.
func (o *Orchestrator) Process(ctx context.Context, sessionID uint) error {
	log := o.log.With(zap.Uint("session_id", sessionID))

	session, err := o.store.GetSession(ctx, sessionID)
	if err != nil {
		log.Error("loading session for analysis", zap.Error(err))
		return err
	}
	if err := o.store.SetStatus(ctx, sessionID, models.StatusInProgress); err != nil {
		log.Error("marking session in progress", zap.Error(err))
		return err
	}
	log.Info("analysis started")

	res, err := o.run(ctx, session)
	if err == nil {
		err = o.store.SaveResults(ctx, sessionID, res)
	}
	if err != nil {
		log.Error("analysis failed", zap.Error(err))
		// The Error write is independent of the failed run; if it also
		// fails, the stale-run sweep picks the session up later.
		if serr := o.store.SetStatus(ctx, sessionID, models.StatusError); serr != nil {
			log.Error("could not mark session errored", zap.Error(serr))
		}
		return err
	}

	log.Info("analysis completed",
		zap.Float64("frame_rate", res.FrameRate),
		zap.Int("metric_rows", len(res.Metrics)),
		zap.Int("plot_rows", len(res.PlotData)))
	return nil
}

// run executes the pipeline on a local copy of the session video. All temp
// files are removed before returning, success or not.
func (o *Orchestrator) run(ctx context.Context, session *models.GaitSession) (*RunResults, error) {
	videoPath, err := o.assets.Download(ctx, session.VideoURL)
	if err != nil {
		return nil, err
	}
	defer os.Remove(videoPath)

	frames, fps, err := o.extractor.Extract(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	if fps <= 0 {
		return nil, errs.NewDataError("video reports a non-positive frame rate", nil)
	}
	if len(frames) == 0 {
		return nil, errs.NewDataError("no frames decoded from video", nil)
	}
	frameRate := math.Floor(fps)

	rawLeft, rawRight := pose.Distances(frames)
	left, right, err := o.conditioner.Condition(rawLeft, rawRight, frameRate)
	if err != nil {
		return nil, err
	}

	events := o.detector.Detect(left, right, frameRate)
	durations := gait.Calculate(events, frameRate)
	metrics, err := gait.AssembleTable(durations)
	if err != nil {
		return nil, err
	}
	plot := assemblePlotData(left, right, events)

	annotatedURL, err := o.annotateAndUpload(ctx, videoPath, frames)
	if err != nil {
		return nil, err
	}

	patient, err := o.store.GetPatient(ctx, session.PatientID)
	if err != nil {
		return nil, err
	}
	story, err := o.narrative.Generate(ctx, narrative.BuildRequest(patient, durations))
	if err != nil {
		return nil, err
	}

	return &RunResults{
		FrameRate:         frameRate,
		AnnotatedVideoURL: annotatedURL,
		Narrative:         story,
		Metrics:           metrics,
		PlotData:          plot,
	}, nil
}

// annotateAndUpload renders the landmark overlay, re-encodes it to MP4 when
// an ffmpeg binary is configured, and uploads the result.
func (o *Orchestrator) annotateAndUpload(ctx context.Context, videoPath string, frames []pose.Frame) (string, error) {
	annotated, err := o.annotator.Annotate(ctx, videoPath, frames)
	if err != nil {
		return "", err
	}
	defer os.Remove(annotated)

	uploadPath := annotated
	if o.ffmpegPath != "" {
		converted := filepath.Join(o.tempDir, uuid.NewString()+".mp4")
		if err := assets.ConvertToMP4(annotated, converted, o.ffmpegPath); err != nil {
			return "", fmt.Errorf("re-encoding annotated video: %w", err)
		}
		defer os.Remove(converted)
		uploadPath = converted
	}
	return o.assets.Upload(ctx, uploadPath)
}

// assemblePlotData builds one row per frame with the event flags raised at
// the detected indices. Inputs are the conditioned signals, so every sample
// is present.
func assemblePlotData(left, right []float64, ev signal.Events) []models.GaitPlotDatum {
	rows := make([]models.GaitPlotDatum, len(left))
	for i := range rows {
		l, r := left[i], right[i]
		rows[i] = models.GaitPlotDatum{
			FrameNumber:       i,
			DistLeftFiltered:  &l,
			DistRightFiltered: &r,
		}
	}
	for _, p := range ev.PeaksLeft {
		rows[p].IsPeakLeft = true
	}
	for _, p := range ev.PeaksRight {
		rows[p].IsPeakRight = true
	}
	for _, m := range ev.MinimaLeft {
		rows[m].IsMinimaLeft = true
	}
	for _, m := range ev.MinimaRight {
		rows[m].IsMinimaRight = true
	}
	return rows
}

// ReconcileStale sweeps sessions that have sat InProgress longer than
// staleAfter into Error. It covers worker crashes and failed Error writes.
func (o *Orchestrator) ReconcileStale(ctx context.Context, staleAfter time.Duration) error {
	n, err := o.store.MarkStaleErrored(ctx, time.Now().Add(-staleAfter))
	if err != nil {
		return err
	}
	if n > 0 {
		o.log.Warn("swept stale in-progress sessions", zap.Int64("count", n))
	}
	return nil
}

// StartReconciler runs ReconcileStale on a fixed interval until ctx ends.
func (o *Orchestrator) StartReconciler(ctx context.Context, interval, staleAfter time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := o.ReconcileStale(ctx, staleAfter); err != nil {
					o.log.Error("stale-session sweep failed", zap.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
