package web

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"pdf-compressor-go/internal/batch"
	"pdf-compressor-go/internal/compressor"
	"pdf-compressor-go/internal/statistics"

	"github.com/google/uuid"
)

// BatchRequest starts a server-side directory batch.
type BatchRequest struct {
	InputDir  string `json:"input_dir"`
	OutputDir string `json:"output_dir,omitempty"`
	InPlace   bool   `json:"in_place"`
	Quality   string `json:"quality,omitempty"`
	Overwrite bool   `json:"overwrite"`
	Workers   int    `json:"workers,omitempty"`
}

type batchState struct {
	ID        string
	Request   batch.Request
	Started   time.Time
	orch      *batch.Orchestrator
	total     int
	result    *statistics.BatchResult
	err       error
	completed bool
}

func (b *batchState) status() map[string]interface{} {
	status := map[string]interface{}{
		"id":         b.ID,
		"input_dir":  b.Request.InputRoot,
		"in_place":   b.Request.InPlace,
		"quality":    b.Request.Quality,
		"started_at": b.Started.Format(time.RFC3339),
		"processed":  b.orch.Completed(),
		"total":      b.total,
		"completed":  b.completed,
	}
	if b.err != nil {
		status["error"] = b.err.Error()
	}
	if b.result != nil {
		status["result"] = map[string]interface{}{
			"successful":       b.result.Successful,
			"failed":           b.result.Failed,
			"total_original":   b.result.TotalOriginal,
			"total_compressed": b.result.TotalCompressed,
			"overall_ratio":    b.result.OverallRatio(),
			"workers":          b.result.Workers,
			"failures":         b.result.Failures,
			"summary":          b.result.GetSummary(),
		}
	}
	return status
}

// wsProgress forwards batch progress to websocket clients.
type wsProgress struct {
	s     *Server
	state *batchState
	total int
	done  int
}

func (p *wsProgress) Start(total int) {
	p.total = total
	p.s.operationMutex.Lock()
	p.state.total = total
	p.s.operationMutex.Unlock()
}

func (p *wsProgress) Advance(o compressor.Outcome) {
	p.done++
	p.s.broadcastWSMessage("batch_progress", map[string]interface{}{
		"id":        p.state.ID,
		"processed": p.done,
		"total":     p.total,
		"file":      o.FileName,
		"success":   o.Success,
		"kind":      o.Kind(),
		"ratio":     o.Ratio,
	})
}

func (p *wsProgress) Finish() {}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	quality, err := s.qualityOrDefault(req.Quality)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	breq := batch.Request{
		InputRoot: req.InputDir,
		OutputDir: req.OutputDir,
		Quality:   quality,
		Overwrite: req.Overwrite,
		Workers:   req.Workers,
		InPlace:   req.InPlace,
	}
	if err := breq.Validate(); err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if info, err := os.Stat(req.InputDir); err != nil || !info.IsDir() {
		s.writeError(w, "Input directory does not exist", http.StatusBadRequest)
		return
	}

	state := &batchState{ID: uuid.NewString(), Request: breq, Started: time.Now()}
	state.orch = batch.New(s.runner, batch.Options{
		MaxAutoWorkers: s.cfg.Performance.MaxAutoWorkers,
		Metrics:        s.metrics,
		Progress:       &wsProgress{s: s, state: state},
	}, s.log)

	s.operationMutex.Lock()
	if s.current != nil {
		s.operationMutex.Unlock()
		s.writeError(w, "Batch already in progress", http.StatusConflict)
		return
	}
	s.current = state
	s.operationMutex.Unlock()

	// the batch outlives the request
	go s.runBatchAsync(context.Background(), state)

	s.writeJSONStatus(w, http.StatusAccepted, APIResponse{
		Success: true,
		Message: "Batch started",
		Data:    map[string]interface{}{"id": state.ID},
	})
}

func (s *Server) runBatchAsync(ctx context.Context, state *batchState) {
	s.broadcastWSMessage("batch_started", map[string]interface{}{
		"id":        state.ID,
		"input_dir": state.Request.InputRoot,
		"in_place":  state.Request.InPlace,
		"quality":   state.Request.Quality,
	})

	result, err := state.orch.Run(ctx, state.Request)

	s.operationMutex.Lock()
	state.result = result
	state.err = err
	state.completed = true
	s.current = nil
	s.last = state
	s.operationMutex.Unlock()

	if err != nil {
		s.log.Errorf("Batch %s failed: %v", state.ID, err)
		s.broadcastWSMessage("batch_error", map[string]interface{}{
			"id":    state.ID,
			"error": err.Error(),
		})
		return
	}
	s.broadcastWSMessage("batch_completed", map[string]interface{}{
		"id":         state.ID,
		"successful": result.Successful,
		"failed":     result.Failed,
		"summary":    result.GetSummary(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.operationMutex.RLock()
	data := map[string]interface{}{
		"running": s.current != nil,
	}
	if s.current != nil {
		data["batch"] = s.current.status()
	}
	if s.last != nil {
		data["last_batch"] = s.last.status()
	}
	s.operationMutex.RUnlock()

	s.writeJSON(w, APIResponse{Success: true, Data: data})
}
