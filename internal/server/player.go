package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type seekRequest struct {
	Time *float64 `json:"time" validate:"required,gte=0"`
}

type volumeRequest struct {
	Volume *float64 `json:"volume" validate:"required,gte=0,lte=1"`
}

type rateRequest struct {
	Rate float64 `json:"rate" validate:"gt=0,lte=4"`
}

func (s *Server) handlePlay(c echo.Context) error {
	s.editor.Play()
	return s.state(c)
}

func (s *Server) handlePause(c echo.Context) error {
	s.editor.Pause()
	return s.state(c)
}

func (s *Server) handleToggle(c echo.Context) error {
	s.editor.Toggle()
	return s.state(c)
}

func (s *Server) handleSeek(c echo.Context) error {
	var req seekRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	s.editor.Seek(*req.Time)
	return s.state(c)
}

func (s *Server) handleVolume(c echo.Context) error {
	var req volumeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	s.editor.SetVolume(*req.Volume)
	return s.state(c)
}

func (s *Server) handleRate(c echo.Context) error {
	var req rateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := s.editor.SetPlaybackRate(req.Rate); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return s.state(c)
}
