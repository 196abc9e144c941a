package plagiarismchecks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"gitlab.com/bluapt.net/internal/core/ports/primary"
	"gitlab.com/bluapt.net/internal/core/services/plagiarism"
	"gitlab.com/bluapt.net/internal/dispatch"
	"gitlab.com/bluapt.net/internal/domain"
	"gitlab.com/bluapt.net/internal/handlers/response"
	"gitlab.com/bluapt.net/internal/metrics"
	"gitlab.com/bluapt.net/internal/static/errs"
)

const detectionTimeout = 60 * time.Second

// PlagiarismHandler handles plagiarism detection API requests
type PlagiarismHandler struct {
	detections plagiarism.IPlagiarismService
	dispatcher *dispatch.Dispatcher
	logger     primary.Logger
}

// NewPlagiarismHandler creates a new plagiarism handler
func NewPlagiarismHandler(
	detections plagiarism.IPlagiarismService,
	dispatcher *dispatch.Dispatcher,
	logger primary.Logger,
) *PlagiarismHandler {
	return &PlagiarismHandler{
		detections: detections,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterRoutes registers the API routes for PlagiarismHandler
func (h *PlagiarismHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/plagiarism-checks", h.Detect).Methods("POST")
	router.HandleFunc("/api/plagiarism-checks/{submissionId}", h.GetCheck).Methods("GET")
}

// GetCheck handles retrieval of a recorded detection run
func (h *PlagiarismHandler) GetCheck(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	submissionID, err := uuid.Parse(vars["submissionId"])
	if err != nil {
		response.WriteError(w, response.ErrorMessage{Message: "Invalid submission ID", StatusCode: http.StatusBadRequest})
		return
	}

	report, err := h.detections.GetReport(r.Context(), submissionID)
	if err != nil {
		if errors.Is(err, errs.DetectionNotFound) {
			response.WriteError(w, response.ErrorMessage{Message: "No detection recorded", StatusCode: http.StatusNotFound})
			return
		}
		h.logger.Error("Failed to get plagiarism check", "submissionId", submissionID, "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "Failed to get plagiarism check", StatusCode: http.StatusInternalServerError})
		return
	}

	response.WriteSuccess(w, report)
}

// DetectRequest represents a request to run plagiarism detection
type DetectRequest struct {
	SubmissionID string `json:"submissionId"`
}

// Detect handles plagiarism detection requests
func (h *PlagiarismHandler) Detect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "Invalid request", StatusCode: http.StatusBadRequest})
		return
	}

	submissionID, err := uuid.Parse(req.SubmissionID)
	if err != nil {
		response.WriteError(w, response.ErrorMessage{Message: "Invalid submission ID", StatusCode: http.StatusBadRequest})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), detectionTimeout)
	defer cancel()

	task := dispatch.NewTask("detect-"+submissionID.String(), ctx, func(ctx context.Context) (interface{}, error) {
		report, err := h.detections.Detect(ctx, submissionID)
		if err == nil {
			metrics.PlagiarismChecksTotal.Inc()
			if len(report.SimilarSubmissions) > 0 {
				metrics.PlagiarismFlagged.Inc()
			}
		}
		return report, err
	})

	if err := h.dispatcher.Submit(task); err != nil {
		h.logger.Warn("Failed to submit detection task", "submissionId", submissionID, "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "Service busy", StatusCode: http.StatusServiceUnavailable})
		return
	}

	select {
	case result := <-task.Done:
		switch {
		case errors.Is(result.Err, errs.SubmissionNotFound):
			response.WriteError(w, response.ErrorMessage{Message: "Submission not found", StatusCode: http.StatusNotFound})
		case result.Err != nil:
			h.logger.Error("Detection failed", "submissionId", submissionID, "error", result.Err)
			response.WriteError(w, response.ErrorMessage{Message: "Detection failed", StatusCode: http.StatusInternalServerError})
		default:
			response.WriteSuccess(w, result.Value.(*domain.PlagiarismReport))
		}
	case <-ctx.Done():
		response.WriteError(w, response.ErrorMessage{Message: "Request timed out", StatusCode: http.StatusGatewayTimeout})
	}
}
