package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/runatlantis/packagebuilder/server/aws/sqs"
	"github.com/runatlantis/packagebuilder/server/logging"
	"github.com/urfave/negroni"
)

type HealthStatus int32

const (
	HEALTHY HealthStatus = iota
	UNHEALTHY
)

type HealthResponse struct {
	Status string `json:"status"`
}

type queueWorker interface {
	Work(ctx context.Context)
}

// WorkerServer runs queued jobs until it receives SIGINT or SIGTERM, and
// serves a health check meanwhile.
type WorkerServer struct {
	App          *App
	Logger       logging.Logger
	Router       *mux.Router
	Port         int
	Worker       queueWorker
	HealthStatus int32
}

func NewWorkerServer(ctx context.Context, app *App, userConfig UserConfig, workerConfig WorkerConfig) (*WorkerServer, error) {
	worker, err := sqs.NewWorker(ctx, app.Scope, workerConfig.QueueURL.String(), userConfig.AWSRegion, app.Executor, app.Logger)
	if err != nil {
		return nil, errors.Wrap(err, "initializing sqs worker")
	}

	return &WorkerServer{
		App:          app,
		Logger:       app.Logger,
		Router:       mux.NewRouter(),
		Port:         workerConfig.Port,
		Worker:       worker,
		HealthStatus: int32(HEALTHY),
	}, nil
}

func (s *WorkerServer) Handler() http.Handler {
	s.Router.HandleFunc("/healthz", s.Healthz).Methods("GET")
	n := negroni.New(&negroni.Recovery{
		Logger:     log.New(os.Stdout, "", log.LstdFlags),
		PrintStack: false,
		StackAll:   false,
		StackSize:  1024 * 8,
	})
	n.UseHandler(s.Router)
	return n
}

func (s *WorkerServer) Start() error {
	defer s.App.Close() // nolint: errcheck
	s.SetHealthStatus(HEALTHY)

	// Stop on SIGINTs and SIGTERMs.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{Addr: fmt.Sprintf(":%d", s.Port), Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		s.Logger.Info(fmt.Sprintf("packagebuilder worker started - listening on port %v", s.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.Logger.Error(err.Error())
		}
	}()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		s.Worker.Work(ctx)
	}()

	<-ctx.Done()
	s.SetHealthStatus(UNHEALTHY)
	s.Logger.Warn("received interrupt, waiting for the current job to stop")
	<-workerDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "while shutting down")
	}
	return nil
}

func (s *WorkerServer) SetHealthStatus(status HealthStatus) {
	atomic.StoreInt32(&s.HealthStatus, int32(status))
}

func (s *WorkerServer) Healthz(w http.ResponseWriter, _ *http.Request) {
	var healthResponse *HealthResponse
	status := http.StatusOK
	if atomic.LoadInt32(&s.HealthStatus) == int32(HEALTHY) {
		healthResponse = &HealthResponse{
			Status: "ok",
		}
	} else {
		healthResponse = &HealthResponse{
			Status: "fail",
		}
		status = http.StatusInternalServerError
	}
	data, err := json.MarshalIndent(healthResponse, "", "  ")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "Error creating status json response: %s", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) // nolint: errcheck
}
