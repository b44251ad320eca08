// Package server exposes the editor over HTTP. The view (or a script) drives
// the crop, playback and recording through JSON endpoints.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ivlev/videocrop/internal/engine"
)

type Server struct {
	*echo.Echo
	editor *engine.Editor
	logger *slog.Logger
}

// requestValidator plugs validator/v10 into c.Validate.
type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i any) error {
	if err := rv.v.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func New(editor *engine.Editor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{v: validator.New()}

	s := &Server{Echo: e, editor: editor, logger: logger}
	s.setupMiddleware()
	s.registerRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.Use(middleware.Recover())
	s.Use(middleware.RequestID())
	s.Use(middleware.BodyLimit("64K"))
	s.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Polled continuously by the view.
			return c.Path() == "/preview.jpg" || c.Path() == "/api/state"
		},
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  false,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				fields = append(fields, "error", v.Error)
			}
			s.logger.Info("request", fields...)
			return nil
		},
	}))
}

func (s *Server) registerRoutes() {
	s.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	s.GET("/preview.jpg", s.handlePreview)

	api := s.Group("/api")
	api.GET("/state", s.handleState)
	api.POST("/tab", s.handleTab)

	api.GET("/crop", s.handleCrop)
	api.POST("/cropper/show", s.handleCropperShow)
	api.POST("/cropper/hide", s.handleCropperHide)
	api.POST("/aspect", s.handleAspect)
	api.POST("/container", s.handleContainer)
	api.POST("/drag/start", s.handleDragStart)
	api.POST("/drag/move", s.handleDragMove)
	api.POST("/drag/end", s.handleDragEnd)
	api.POST("/crop/auto", s.handleCropAuto)

	api.POST("/player/play", s.handlePlay)
	api.POST("/player/pause", s.handlePause)
	api.POST("/player/toggle", s.handleToggle)
	api.POST("/player/seek", s.handleSeek)
	api.POST("/player/volume", s.handleVolume)
	api.POST("/player/rate", s.handleRate)

	api.POST("/record/start", s.handleRecordStart)
	api.POST("/record/stop", s.handleRecordStop)
	api.POST("/session/generate", s.handleGenerate)
	api.POST("/cancel", s.handleCancel)

	api.GET("/session/export", s.handleSessionExport)
	api.POST("/session/save", s.handleSessionSave)
	api.GET("/clip", s.handleClip)
	api.POST("/clip/save", s.handleClipSave)
}

// bind decodes and validates a request body.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	return c.Validate(req)
}

func (s *Server) state(c echo.Context) error {
	return c.JSON(http.StatusOK, s.editor.State())
}

func (s *Server) handleState(c echo.Context) error {
	return s.state(c)
}

type tabRequest struct {
	Tab string `json:"tab" validate:"required,oneof=preview generate"`
}

func (s *Server) handleTab(c echo.Context) error {
	var req tabRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	s.editor.SetTab(engine.Tab(req.Tab))
	return s.state(c)
}
