// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api exposes the transformation over HTTP with gin. Routes:
//
//	GET  /healthz                     liveness
//	GET  /api/v1/tasks                task groups, subdirectories, tasks and columns
//	GET  /api/v1/tasks/:task/rows     first rows of a task output (?limit=, ?source=bigquery)
//	POST /api/v1/runs                 run the pipeline ({"src_dir", "dest_dir"}, both optional)
//	GET  /api/v1/runs/latest          report of the last run started through the API
//
// Runs are synchronous. Only one run may be in progress at a time and the
// rate of accepted runs is limited by [server] runs_per_minute and burst. The
// directories of a run must lie under [server] allowed_roots.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-media-transform/internal/cloud"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/model"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/services"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/workflow"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"
)

// Server holds the state shared by the handlers.
type Server struct {
	config   *cloud.Config
	pipeline *workflow.Pipeline
	limiter  *rate.Limiter
	tables   *services.TableService // nil unless the BigQuery export is configured.

	runMu    sync.Mutex // Held for the duration of a run.
	reportMu sync.RWMutex
	latest   *model.RunReport
}

// NewServer builds the API state.
//
// Inputs:
//   - config: The application configuration.
//   - serviceClients: The cloud clients; may be nil.
//
// Returns:
//   - A pointer to the new Server.
func NewServer(config *cloud.Config, serviceClients *cloud.ServiceClients) *Server {
	limit := rate.Inf
	if config.Server.RunsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(config.Server.RunsPerMinute))
	}
	burst := config.Server.Burst
	if burst < 1 {
		burst = 1
	}
	s := &Server{
		config:   config,
		pipeline: workflow.NewPipeline(config, serviceClients),
		limiter:  rate.NewLimiter(limit, burst),
	}
	if serviceClients != nil && serviceClients.BigQueryClient != nil && config.HasBigQueryExport() {
		s.tables = &services.TableService{
			BigqueryClient: serviceClients.BigQueryClient,
			DatasetName:    config.BigQueryDataSource.DatasetName,
			TablePrefix:    config.BigQueryDataSource.TablePrefix,
		}
	}
	return s
}

// Latest returns the report of the last run, or nil.
func (s *Server) Latest() *model.RunReport {
	s.reportMu.RLock()
	defer s.reportMu.RUnlock()
	return s.latest
}

func (s *Server) setLatest(r *model.RunReport) {
	s.reportMu.Lock()
	defer s.reportMu.Unlock()
	s.latest = r
}

// corsConfig turns [server] allowed_origins into a cors.Config; "*" allows any origin.
func (s *Server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	for _, o := range s.config.Server.AllowedOrigins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = s.config.Server.AllowedOrigins
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
	}
	return cfg
}

// Router builds the gin engine with the OpenTelemetry and CORS middleware.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(s.config.Application.Name))
	r.Use(cors.New(s.corsConfig()))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiV1 := r.Group("/api/v1")
	{
		s.TaskRouter(apiV1)
		s.RunRouter(apiV1)
	}
	return r
}

// ListenAndServe serves Router on [server] port until ctx is canceled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(s.config.Server.Port),
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	slog.Info("server ready", "port", s.config.Server.Port)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
