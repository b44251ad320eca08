package server

import (
	"fmt"
	"image/jpeg"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ivlev/videocrop/internal/capture"
	"github.com/ivlev/videocrop/internal/session"
)

const previewQuality = 85

func (s *Server) handleRecordStart(c echo.Context) error {
	if _, err := s.editor.StartRecording(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return s.state(c)
}

func (s *Server) handleRecordStop(c echo.Context) error {
	if err := s.editor.StopRecording(); err != nil {
		return httpError(err)
	}
	return s.state(c)
}

func (s *Server) handleGenerate(c echo.Context) error {
	if _, err := s.editor.GenerateSession(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return s.state(c)
}

func (s *Server) handleCancel(c echo.Context) error {
	if err := s.editor.Cancel(); err != nil {
		s.logger.Error("cancel: stop capture", "error", err)
	}
	return s.state(c)
}

func attachment(c echo.Context, name string) {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
}

func (s *Server) handleSessionExport(c echo.Context) error {
	data, err := s.editor.SessionJSON()
	if err != nil {
		return httpError(err)
	}
	attachment(c, session.FileName)
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
}

func (s *Server) handleSessionSave(c echo.Context) error {
	path, err := s.editor.ExportSession()
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"path": path})
}

func (s *Server) handleClip(c echo.Context) error {
	data, err := s.editor.TakeClip()
	if err != nil {
		return httpError(err)
	}
	attachment(c, capture.FileName)
	return c.Blob(http.StatusOK, "video/webm", data)
}

func (s *Server) handleClipSave(c echo.Context) error {
	path, err := s.editor.SaveRecording()
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"path": path})
}

func (s *Server) handlePreview(c echo.Context) error {
	img := s.editor.Preview()
	if img == nil {
		return c.NoContent(http.StatusNoContent)
	}
	c.Response().Header().Set(echo.HeaderContentType, "image/jpeg")
	c.Response().Header().Set("Cache-Control", "no-store")
	c.Response().WriteHeader(http.StatusOK)
	return jpeg.Encode(c.Response(), img, &jpeg.Options{Quality: previewQuality})
}
