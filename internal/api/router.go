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

// Package api exposes the digest pipeline and its run history over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/services"
)

// SignedURLExpiry is how long artifact URLs stay valid.
const SignedURLExpiry = 15 * time.Minute

// DigestRunner runs one digest synchronously.
type DigestRunner interface {
	Run(ctx context.Context, req *model.DigestRequest) (*model.RunOutput, error)
}

// RunStore reads the run history.
type RunStore interface {
	List(ctx context.Context, limit int) ([]*model.RunOutput, error)
	Search(ctx context.Context, term string, limit int) ([]*model.RunOutput, error)
	Get(ctx context.Context, runID string) (*model.RunOutput, error)
	Stats(ctx context.Context) (*services.RunStats, error)
	GenerateSignedURL(ctx context.Context, gcsURI string, expires time.Duration) (string, error)
}

// NewRouter builds the gin engine. Run history routes are only registered
// when runs is not nil.
func NewRouter(serviceName string, runner DigestRunner, runs RunStore) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		DigestRouter(apiV1, runner)
		if runs != nil {
			RunRouter(apiV1, runs)
		}
	}
	if runs != nil {
		Dashboard(r.Group(""), runs)
	}
	return r
}

// StatusFor maps an error kind to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrAcquisition):
		return http.StatusBadGateway
	case errors.Is(err, model.ErrRecognition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// DigestRouter registers POST /digests. The body is a DigestRequest; its
// output_root is dropped so that runs always land under the server's
// configured output path.
func DigestRouter(r *gin.RouterGroup, runner DigestRunner) {
	digests := r.Group("/digests")
	{
		digests.POST("", func(c *gin.Context) {
			var req model.DigestRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				abortWithError(c, model.InvalidInputError("api.digest", "malformed request: %v", err))
				return
			}
			req.OutputRoot = ""
			out, err := runner.Run(c.Request.Context(), &req)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusCreated, out)
		})
	}
}

func RunRouter(r *gin.RouterGroup, runs RunStore) {
	group := r.Group("/runs")
	{
		group.GET("", func(c *gin.Context) {
			count, err := strconv.Atoi(c.DefaultQuery("count", strconv.Itoa(services.DefaultListLimit)))
			if err != nil {
				count = services.DefaultListLimit
			}
			var out []*model.RunOutput
			if term := c.Query("s"); term != "" {
				out, err = runs.Search(c.Request.Context(), term, count)
			} else {
				out, err = runs.List(c.Request.Context(), count)
			}
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		group.GET("/:id", func(c *gin.Context) {
			out, err := runs.Get(c.Request.Context(), c.Param("id"))
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		group.GET("/:id/artifacts/:name", func(c *gin.Context) {
			run, err := runs.Get(c.Request.Context(), c.Param("id"))
			if err != nil {
				abortWithError(c, err)
				return
			}
			uri, err := services.ArtifactURI(run, c.Param("name"))
			if err != nil {
				abortWithError(c, err)
				return
			}
			signedURL, err := runs.GenerateSignedURL(c.Request.Context(), uri, SignedURLExpiry)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"url": signedURL})
		})
	}
}

func Dashboard(r *gin.RouterGroup, runs RunStore) {
	stats := r.Group("/stats")
	{
		stats.GET("", func(c *gin.Context) {
			out, err := runs.Stats(c.Request.Context())
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})
	}
}
