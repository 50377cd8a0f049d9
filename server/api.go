// Package server exposes the orchestrator over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lexcodex/analyst/framework"
)

// Runner is the single inbound operation: one prompt in, one result list
// out, synchronously. The orchestrator satisfies it; tests stub it.
type Runner interface {
	Run(ctx context.Context, prompt string) ([]framework.ResultEntry, error)
}

// APIServer wires the orchestrator behind the upload endpoint.
type APIServer struct {
	Runner Runner
	Logger *log.Logger
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Router builds the gin engine with all routes registered.
func (s *APIServer) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/", s.handleHealth)
	router.POST("/api/", s.handleAnalyze)
	return router
}

func (s *APIServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Data analysis agent is running.",
	})
}

// handleAnalyze accepts a questions.txt upload (multipart field
// "questions.txt", raw body as fallback), runs the request to completion,
// and returns the aggregated result list. Validation failures map to 400,
// everything else to 500.
func (s *APIServer) handleAnalyze(c *gin.Context) {
	if s.Runner == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{
			Detail: "agent is not available due to an initialization error; check server logs",
		})
		return
	}

	prompt, err := readPrompt(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}
	if prompt == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "empty prompt"})
		return
	}
	s.logf("api: received task: %.250s", prompt)

	results, err := s.Runner.Run(c.Request.Context(), prompt)
	if err != nil {
		s.logf("api: run failed: %v", err)
		if framework.IsValidation(err) {
			c.JSON(http.StatusBadRequest, errorResponse{Detail: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}

// readPrompt pulls the prompt from the questions.txt form file, or from the
// raw request body when the client skipped multipart.
func readPrompt(c *gin.Context) (string, error) {
	if file, err := c.FormFile("questions.txt"); err == nil {
		f, err := file.Open()
		if err != nil {
			return "", err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Serve starts listening on addr until the context is canceled, then shuts
// down gracefully.
func (s *APIServer) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logf("api: listening on %s", addr)
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *APIServer) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}
