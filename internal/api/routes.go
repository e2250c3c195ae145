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

package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-media-transform/internal/cloud"
	"github.com/jaycherian/gcp-go-media-transform/internal/core/services"
)

// TaskDescription describes one extractor of a task group.
type TaskDescription struct {
	Task    string   `json:"task"`
	Columns []string `json:"columns"`
}

// GroupDescription describes one task group.
type GroupDescription struct {
	Group        string            `json:"group"`
	Subdirectory string            `json:"subdirectory"`
	Tasks        []TaskDescription `json:"tasks"`
}

// TaskRouter sets up the routes describing the tasks and previewing their output.
func (s *Server) TaskRouter(r *gin.RouterGroup) {
	tasks := r.Group("/tasks")
	{
		tasks.GET("", func(c *gin.Context) {
			out := make([]GroupDescription, 0, 3)
			for _, g := range s.pipeline.Groups() {
				d := GroupDescription{Group: g.GetName(), Subdirectory: g.Subdirectory()}
				for _, ex := range g.Extractors() {
					d.Tasks = append(d.Tasks, TaskDescription{Task: ex.WhichTask(), Columns: ex.Columns()})
				}
				out = append(out, d)
			}
			c.JSON(http.StatusOK, out)
		})

		tasks.GET("/:task/rows", func(c *gin.Context) {
			limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultPreviewLimit)))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
				return
			}

			var previewer services.Previewer
			switch c.DefaultQuery("source", "local") {
			case "local":
				dir := s.config.Pipeline.DestDir
				if latest := s.Latest(); latest != nil {
					dir = latest.DestDir
				}
				previewer = &services.OutputService{Dir: dir}
			case "bigquery":
				if s.tables == nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "bigquery export is not configured"})
					return
				}
				previewer = s.tables
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": "source must be local or bigquery"})
				return
			}

			preview, err := previewer.Preview(c.Request.Context(), c.Param("task"), limit)
			switch {
			case errors.Is(err, services.ErrLimitTooLarge):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case errors.Is(err, services.ErrUnknownTask), errors.Is(err, os.ErrNotExist):
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			case err != nil:
				slog.ErrorContext(c.Request.Context(), "task preview failed", "task", c.Param("task"), "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusOK, preview)
			}
		})
	}
}

// RunRouter sets up the routes that start runs and report on them.
func (s *Server) RunRouter(r *gin.RouterGroup) {
	runs := r.Group("/runs")
	{
		runs.POST("", func(c *gin.Context) {
			var trigger cloud.TransformTrigger
			if err := c.ShouldBindJSON(&trigger); err != nil && !errors.Is(err, io.EOF) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			trigger, err := trigger.WithDefaults(s.config.Pipeline).Confine(s.config.RunRoots())
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			if !s.runMu.TryLock() {
				c.JSON(http.StatusConflict, gin.H{"error": "a run is already in progress"})
				return
			}
			defer s.runMu.Unlock()
			if !s.limiter.Allow() {
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "run quota exceeded, retry later"})
				return
			}

			report := s.pipeline.Run(c.Request.Context(), trigger.SourceDir, trigger.DestDir)
			s.setLatest(report)
			c.JSON(http.StatusOK, report)
		})

		runs.GET("/latest", func(c *gin.Context) {
			latest := s.Latest()
			if latest == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "no run yet"})
				return
			}
			c.JSON(http.StatusOK, latest)
		})
	}
}
