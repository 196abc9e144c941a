package executions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"gitlab.com/bluapt.net/internal/core/ports/primary"
	"gitlab.com/bluapt.net/internal/core/services/execution"
	"gitlab.com/bluapt.net/internal/core/services/grading"
	"gitlab.com/bluapt.net/internal/dispatch"
	"gitlab.com/bluapt.net/internal/domain"
	"gitlab.com/bluapt.net/internal/handlers/response"
	"gitlab.com/bluapt.net/internal/metrics"
	"gitlab.com/bluapt.net/internal/static/errs"
)

// requestMargin is added on top of the sandbox timeout so the HTTP wait
// outlives the forced container termination.
const requestMargin = 5 * time.Second

const defaultRequestTimeout = 30 * time.Second

// ExecutionHandler handles execution and grading API requests
type ExecutionHandler struct {
	executions execution.IExecutionService
	gradings   grading.IGradingService
	dispatcher *dispatch.Dispatcher
	logger     primary.Logger
}

// NewExecutionHandler creates a new execution handler
func NewExecutionHandler(
	executions execution.IExecutionService,
	gradings grading.IGradingService,
	dispatcher *dispatch.Dispatcher,
	logger primary.Logger,
) *ExecutionHandler {
	return &ExecutionHandler{
		executions: executions,
		gradings:   gradings,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterRoutes registers the API routes for ExecutionHandler
func (h *ExecutionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/executions", h.Execute).Methods("POST")
	router.HandleFunc("/api/executions/{executionId}", h.GetExecution).Methods("GET")
	router.HandleFunc("/api/gradings", h.Grade).Methods("POST")
	router.HandleFunc("/api/languages", h.GetLanguages).Methods("GET")
}

// Execute handles sandboxed execution requests; when test cases are
// attached the submission is also graded against them.
func (h *ExecutionHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "Invalid request", StatusCode: http.StatusBadRequest})
		return
	}

	lang, err := domain.ParseLanguage(req.Language)
	if err != nil {
		response.WriteError(w, response.ErrorMessage{Message: err.Error(), StatusCode: http.StatusBadRequest})
		return
	}

	executionID := uuid.Nil
	if req.ExecutionID != "" {
		executionID, err = uuid.Parse(req.ExecutionID)
		if err != nil {
			response.WriteError(w, response.ErrorMessage{Message: "Invalid execution ID", StatusCode: http.StatusBadRequest})
			return
		}
	}

	timeout := defaultRequestTimeout
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout+requestMargin)
	defer cancel()

	task := dispatch.NewTask("execute-"+executionID.String(), ctx, func(ctx context.Context) (interface{}, error) {
		started := time.Now()
		outcome, err := h.executions.Execute(ctx, domain.ExecutionRequest{
			ExecutionID: executionID,
			Code:        req.Code,
			Language:    lang,
			Timeout:     time.Duration(req.TimeoutSeconds) * time.Second,
		})
		if outcome != nil {
			metrics.ExecutionsTotal.WithLabelValues(string(lang), string(outcome.Status)).Inc()
			metrics.ExecutionDuration.WithLabelValues(string(lang)).Observe(float64(time.Since(started).Milliseconds()))
			if outcome.MemoryUsageKB > 0 {
				metrics.MemoryUsage.WithLabelValues(string(lang)).Observe(float64(outcome.MemoryUsageKB))
			}
		}
		if err != nil {
			return outcome, err
		}

		resp := &ExecuteResponse{Outcome: outcome}
		if len(req.TestCases) > 0 && outcome.Status == domain.ExecutionStatusCompleted {
			report, err := h.gradings.Grade(ctx, req.Code, lang, toTestCases(req.TestCases))
			if err != nil {
				return resp, err
			}
			resp.Grading = report
		}
		return resp, nil
	})

	h.run(w, ctx, task)
}

// GetExecution handles execution outcome retrieval requests
func (h *ExecutionHandler) GetExecution(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	executionID, err := uuid.Parse(vars["executionId"])
	if err != nil {
		response.WriteError(w, response.ErrorMessage{Message: "Invalid execution ID", StatusCode: http.StatusBadRequest})
		return
	}

	outcome, err := h.executions.GetOutcome(r.Context(), executionID)
	if err != nil {
		if errors.Is(err, errs.ExecutionNotFound) {
			response.WriteError(w, response.ErrorMessage{Message: "Execution not found", StatusCode: http.StatusNotFound})
			return
		}
		h.logger.Error("Failed to get execution", "executionId", executionID, "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "Failed to get execution", StatusCode: http.StatusInternalServerError})
		return
	}

	response.WriteSuccess(w, outcome)
}

// Grade handles standalone grading requests
func (h *ExecutionHandler) Grade(w http.ResponseWriter, r *http.Request) {
	var req GradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "Invalid request", StatusCode: http.StatusBadRequest})
		return
	}

	lang, err := domain.ParseLanguage(req.Language)
	if err != nil {
		response.WriteError(w, response.ErrorMessage{Message: err.Error(), StatusCode: http.StatusBadRequest})
		return
	}
	if len(req.TestCases) == 0 {
		response.WriteError(w, response.ErrorMessage{Message: "At least one test case is required", StatusCode: http.StatusBadRequest})
		return
	}

	// Every case gets its own sandbox run, so the budget scales with the
	// case count.
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(len(req.TestCases))*defaultRequestTimeout)
	defer cancel()

	task := dispatch.NewTask("grade", ctx, func(ctx context.Context) (interface{}, error) {
		return h.gradings.Grade(ctx, req.Code, lang, toTestCases(req.TestCases))
	})

	h.run(w, ctx, task)
}

// GetLanguages lists the supported languages and their limits
func (h *ExecutionHandler) GetLanguages(w http.ResponseWriter, r *http.Request) {
	type languageInfo struct {
		Language       domain.Language `json:"language"`
		TimeoutSeconds float64         `json:"timeoutSeconds"`
		MemoryLimitMB  int64           `json:"memoryLimitMb"`
	}

	infos := make([]languageInfo, 0, len(domain.SupportedLanguages()))
	for _, lang := range domain.SupportedLanguages() {
		profile, err := domain.ProfileFor(lang)
		if err != nil {
			continue
		}
		infos = append(infos, languageInfo{
			Language:       lang,
			TimeoutSeconds: profile.DefaultTimeout.Seconds(),
			MemoryLimitMB:  profile.MemoryLimitBytes / (1024 * 1024),
		})
	}

	response.WriteSuccess(w, infos)
}

func (h *ExecutionHandler) run(w http.ResponseWriter, ctx context.Context, task *dispatch.Task) {
	if err := h.dispatcher.Submit(task); err != nil {
		h.logger.Warn("Failed to submit task", "taskId", task.ID, "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "Service busy", StatusCode: http.StatusServiceUnavailable})
		return
	}

	select {
	case result := <-task.Done:
		switch {
		case errors.Is(result.Err, errs.UnsupportedLanguage), errors.Is(result.Err, errs.InvalidInput):
			response.WriteError(w, response.ErrorMessage{Message: result.Err.Error(), StatusCode: http.StatusBadRequest})
		case result.Err != nil:
			h.logger.Error("Task failed", "taskId", task.ID, "error", result.Err)
			response.WriteError(w, response.ErrorMessage{Message: "Execution failed", StatusCode: http.StatusInternalServerError})
		default:
			response.WriteSuccess(w, result.Value)
		}
	case <-ctx.Done():
		response.WriteError(w, response.ErrorMessage{Message: "Request timed out", StatusCode: http.StatusGatewayTimeout})
	}
}
