package plagiarismchecks_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/bluapt.net/internal/dispatch"
	"gitlab.com/bluapt.net/internal/domain"
	"gitlab.com/bluapt.net/internal/handlers/plagiarismchecks"
	"gitlab.com/bluapt.net/internal/static/errs"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Warn(msg string, args ...interface{})  {}

type stubDetections struct {
	report *domain.PlagiarismReport
	err    error
}

func (s *stubDetections) Detect(_ context.Context, submissionID uuid.UUID) (*domain.PlagiarismReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	report := *s.report
	report.CodeSubmissionID = submissionID
	return &report, nil
}

func (s *stubDetections) GetReport(_ context.Context, submissionID uuid.UUID) (*domain.PlagiarismReport, error) {
	return s.Detect(nil, submissionID)
}

func newRouter(t *testing.T, detections *stubDetections) *mux.Router {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	dispatcher := dispatch.NewDispatcher(1, 4, nopLogger{})
	dispatcher.Start(ctx)

	router := mux.NewRouter()
	plagiarismchecks.NewPlagiarismHandler(detections, dispatcher, nopLogger{}).RegisterRoutes(router)
	return router
}

func detect(t *testing.T, router *mux.Router, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/plagiarism-checks", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestDetectEndpoint(t *testing.T) {
	candidateID := uuid.New()
	router := newRouter(t, &stubDetections{report: &domain.PlagiarismReport{
		PlagiarismScore: 92.5,
		SimilarSubmissions: []domain.SimilarSubmissionItem{
			{CandidateID: candidateID, SimilarityScore: 92.5, MatchingLines: []int{0, 1, 2}},
		},
	}})

	submissionID := uuid.New()
	rec := detect(t, router, map[string]string{"submissionId": submissionID.String()})

	require.Equal(t, http.StatusOK, rec.Code)

	var report domain.PlagiarismReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, submissionID, report.CodeSubmissionID)
	assert.Equal(t, 92.5, report.PlagiarismScore)
	require.Len(t, report.SimilarSubmissions, 1)
	assert.Equal(t, []int{0, 1, 2}, report.SimilarSubmissions[0].MatchingLines)
}

func TestDetectEndpointUnknownSubmission(t *testing.T) {
	router := newRouter(t, &stubDetections{err: errs.SubmissionNotFound})

	rec := detect(t, router, map[string]string{"submissionId": uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDetectEndpointRejectsBadID(t *testing.T) {
	router := newRouter(t, &stubDetections{})

	rec := detect(t, router, map[string]string{"submissionId": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCheckEndpoint(t *testing.T) {
	router := newRouter(t, &stubDetections{report: &domain.PlagiarismReport{PlagiarismScore: 81.0}})

	submissionID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/plagiarism-checks/"+submissionID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var report domain.PlagiarismReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, submissionID, report.CodeSubmissionID)
	assert.Equal(t, 81.0, report.PlagiarismScore)
}

func TestGetCheckEndpointNoRunRecorded(t *testing.T) {
	router := newRouter(t, &stubDetections{err: errs.DetectionNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/plagiarism-checks/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
