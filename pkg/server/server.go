// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/xid"

	httplib "github.com/wikyd/sunspot/internal/http"
	"github.com/wikyd/sunspot/pkg/commit"
	"github.com/wikyd/sunspot/pkg/document"
	loglib "github.com/wikyd/sunspot/pkg/log"
	"github.com/wikyd/sunspot/pkg/record"
	"github.com/wikyd/sunspot/pkg/session"
	"github.com/wikyd/sunspot/pkg/setup"
)

// Server exposes an indexing session over HTTP. Once a mutating request
// completes successfully, the commit policy decides whether the session is
// committed.
type Server struct {
	server       httplib.Server
	handler      http.Handler
	logger       loglib.Logger
	session      Session
	classes      record.ClassLookup
	commitConfig CommitConfigProvider
	address      string
}

// Session is the indexing session driven by the server.
type Session interface {
	Index(ctx context.Context, instances ...setup.Instance) error
	Remove(ctx context.Context, instances ...setup.Instance) error
	RemoveAll(ctx context.Context, classes ...*setup.Class) error
	Commit(ctx context.Context) error
	CommitIfDirty(ctx context.Context) error
	CommitIfDeleteDirty(ctx context.Context) error
	State() session.State
}

type Option func(*Server)

type errorResponse struct {
	Error string `json:"error"`
}

type indexResponse struct {
	Indexed int `json:"indexed"`
}

type removeResponse struct {
	Removed int `json:"removed"`
}

const requestIDField = "request_id"

func New(cfg *Config, s Session, classes record.ClassLookup, opts ...Option) *Server {
	srv := &Server{
		address:      cfg.address(),
		session:      s,
		classes:      classes,
		logger:       loglib.NewNoopLogger(),
		commitConfig: defaultCommitConfig,
	}

	for _, opt := range opts {
		opt(srv)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}
	e.Server.ReadTimeout = cfg.readTimeout()
	e.Server.WriteTimeout = cfg.writeTimeout()

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return xid.New().String() },
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:     true,
		LogURI:        true,
		LogStatus:     true,
		LogLatency:    true,
		LogRequestID:  true,
		LogError:      true,
		HandleError:   true,
		LogValuesFunc: srv.logRequest,
	}))
	e.Use(middleware.Recover())
	e.Use(srv.commitPolicy)

	e.POST("/documents", srv.indexDocuments, middleware.BodyLimit(cfg.maxBodySize()))
	e.DELETE("/documents", srv.removeAll)
	e.DELETE("/documents/:class", srv.removeAll)
	e.DELETE("/documents/:class/:id", srv.removeDocument)
	e.POST("/commit", srv.commit)
	e.GET("/status", srv.status)

	srv.server = e
	srv.handler = e

	return srv
}

func WithLogger(l loglib.Logger) Option {
	return func(s *Server) {
		s.logger = loglib.NewLogger(l).WithFields(loglib.Fields{
			loglib.ModuleField: "indexing_server",
		})
	}
}

// WithCommitConfig sets the provider for the commit policy configuration.
// By default every mutating request commits pending index operations.
func WithCommitConfig(provider CommitConfigProvider) Option {
	return func(s *Server) {
		s.commitConfig = provider
	}
}

// Start will start the indexing server. This call is blocking.
func (s *Server) Start() error {
	s.logger.Info(fmt.Sprintf("indexing server listening on: %s...", s.address))
	if err := s.server.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// ServeHTTP serves a single request through the server routes and
// middleware.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// commitPolicy applies the commit policy once the request has been handled.
// Failed requests never commit. The response has already been written at
// that point, so a commit failure is only logged.
func (s *Server) commitPolicy(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := next(c); err != nil {
			return err
		}
		if c.Response().Status >= http.StatusBadRequest {
			return nil
		}

		req := c.Request()
		decision, err := commit.Apply(req.Context(), s.commitConfig(), isMutating(req.Method), s.session)
		if err != nil {
			s.logger.Error(err, "applying commit policy", loglib.Fields{
				"decision":     decision.String(),
				requestIDField: c.Response().Header().Get(echo.HeaderXRequestID),
			})
			return nil
		}
		if decision != commit.NoCommit {
			s.logger.Debug("commit policy applied", loglib.Fields{
				"decision":     decision.String(),
				requestIDField: c.Response().Header().Get(echo.HeaderXRequestID),
			})
		}
		return nil
	}
}

func (s *Server) indexDocuments(c echo.Context) error {
	s.logger.Trace("request received on /documents endpoint")

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	records, err := record.ParseMany(s.classes, body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	instances := make([]setup.Instance, 0, len(records))
	for _, r := range records {
		instances = append(instances, r)
	}

	if err := s.session.Index(c.Request().Context(), instances...); err != nil {
		return c.JSON(errorStatus(err), errorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, indexResponse{Indexed: len(instances)})
}

func (s *Server) removeDocument(c echo.Context) error {
	class, found := s.classes.Lookup(c.Param("class"))
	if !found {
		return c.JSON(http.StatusNotFound, errorResponse{Error: record.ErrUnknownClass{Name: c.Param("class")}.Error()})
	}

	r, err := record.New(class, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	if err := s.session.Remove(c.Request().Context(), r); err != nil {
		return c.JSON(errorStatus(err), errorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, removeResponse{Removed: 1})
}

func (s *Server) removeAll(c echo.Context) error {
	classes := []*setup.Class{}
	if name := c.Param("class"); name != "" {
		class, found := s.classes.Lookup(name)
		if !found {
			return c.JSON(http.StatusNotFound, errorResponse{Error: record.ErrUnknownClass{Name: name}.Error()})
		}
		classes = append(classes, class)
	}

	if err := s.session.RemoveAll(c.Request().Context(), classes...); err != nil {
		return c.JSON(errorStatus(err), errorResponse{Error: err.Error()})
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) commit(c echo.Context) error {
	if err := s.session.Commit(c.Request().Context()); err != nil {
		return c.JSON(errorStatus(err), errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, s.session.State())
}

func (s *Server) status(c echo.Context) error {
	return c.JSON(http.StatusOK, s.session.State())
}

func (s *Server) logRequest(c echo.Context, v middleware.RequestLoggerValues) error {
	fields := loglib.Fields{
		"method":       v.Method,
		"uri":          v.URI,
		"status":       v.Status,
		"latency":      v.Latency,
		requestIDField: v.RequestID,
	}
	if v.Error != nil {
		s.logger.Error(v.Error, "request failed", fields)
		return nil
	}
	s.logger.Info("request", fields)
	return nil
}

// errorStatus maps session errors to a response status. Errors caused by
// the documents on input are the client's, anything else comes from the
// engine.
func errorStatus(err error) int {
	var notConfiguredErr setup.ErrNotConfigured
	var cardinalityErr document.ErrCardinality
	var fieldValueErr document.ErrFieldValue
	switch {
	case errors.As(err, &notConfiguredErr),
		errors.As(err, &cardinalityErr),
		errors.As(err, &fieldValueErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusServiceUnavailable
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
