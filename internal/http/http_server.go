package http

// this is entry point of the http request handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gitlab.com/bluapt.net/internal/core/ports/primary"
	"gitlab.com/bluapt.net/internal/core/services/execution"
	"gitlab.com/bluapt.net/internal/core/services/grading"
	"gitlab.com/bluapt.net/internal/core/services/plagiarism"
	"gitlab.com/bluapt.net/internal/dispatch"
	"gitlab.com/bluapt.net/internal/handlers/executions"
	"gitlab.com/bluapt.net/internal/handlers/plagiarismchecks"
	"gitlab.com/bluapt.net/internal/handlers/response"
)

type ServiceProvider struct {
	executionService  execution.IExecutionService
	gradingService    grading.IGradingService
	plagiarismService plagiarism.IPlagiarismService
}

func NewServiceProvider(
	executionService execution.IExecutionService,
	gradingService grading.IGradingService,
	plagiarismService plagiarism.IPlagiarismService,
) *ServiceProvider {
	return &ServiceProvider{
		executionService:  executionService,
		gradingService:    gradingService,
		plagiarismService: plagiarismService,
	}
}

type Server struct {
	router          *mux.Router
	srv             *http.Server
	Port            int
	ServiceName     string
	ServiceProvider ServiceProvider
	dispatcher      *dispatch.Dispatcher
	logger          primary.Logger
}

func NewServer(port int, serviceName string, serviceProvider ServiceProvider, dispatcher *dispatch.Dispatcher, logger primary.Logger) *Server {
	return &Server{
		Port:            port,
		ServiceName:     serviceName,
		ServiceProvider: serviceProvider,
		dispatcher:      dispatcher,
		logger:          logger,
	}
}

func (s *Server) Init() error {
	r := mux.NewRouter()
	executions.
		NewExecutionHandler(s.ServiceProvider.executionService, s.ServiceProvider.gradingService, s.dispatcher, s.logger).
		RegisterRoutes(r)
	plagiarismchecks.
		NewPlagiarismHandler(s.ServiceProvider.plagiarismService, s.dispatcher, s.logger).
		RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		response.WriteSuccess(w, map[string]string{"status": "ok", "service": s.ServiceName})
	}).Methods("GET")
	s.router = r
	return nil
}

func (s *Server) Start(ctx context.Context) {
	// Set up server
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		s.logger.Info("Server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

}

func (s *Server) Stop() {
	s.logger.Info("Shutting down http server...")
	if s.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Error("Http server shutdown", "error", err)
	}
}
