package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ivlev/videocrop/internal/cropper"
	"github.com/ivlev/videocrop/internal/geometry"
)

type aspectRequest struct {
	Ratio string `json:"ratio" validate:"required,oneof=9:18 9:16 4:3 3:4 1:1 4:5"`
}

type containerRequest struct {
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
}

type pointRequest struct {
	X *float64 `json:"x" validate:"required"`
	Y *float64 `json:"y" validate:"required"`
}

type cropResponse struct {
	Rect        geometry.Rect `json:"rect"`
	AspectRatio string        `json:"aspectRatio"`
	Dragging    bool          `json:"dragging"`
}

func (s *Server) crop(c echo.Context) error {
	ctl := s.editor.Controller()
	return c.JSON(http.StatusOK, cropResponse{
		Rect:        ctl.Rect(),
		AspectRatio: string(ctl.AspectRatio()),
		Dragging:    ctl.Dragging(),
	})
}

func (s *Server) handleCrop(c echo.Context) error {
	return s.crop(c)
}

func (s *Server) handleCropperShow(c echo.Context) error {
	s.editor.ShowCropper()
	return s.crop(c)
}

func (s *Server) handleCropperHide(c echo.Context) error {
	s.editor.HideCropper()
	return s.crop(c)
}

func (s *Server) handleAspect(c echo.Context) error {
	var req aspectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ratio, err := cropper.ParseAspectRatio(req.Ratio)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s.editor.SetAspectRatio(ratio)
	return s.crop(c)
}

func (s *Server) handleContainer(c echo.Context) error {
	var req containerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	s.editor.SetContainer(geometry.Size{Width: req.Width, Height: req.Height})
	return s.crop(c)
}

func (s *Server) handleDragStart(c echo.Context) error {
	var req pointRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	s.editor.DragStart(*req.X, *req.Y)
	return s.crop(c)
}

func (s *Server) handleDragMove(c echo.Context) error {
	var req pointRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	s.editor.DragMove(*req.X, *req.Y)
	return s.crop(c)
}

func (s *Server) handleDragEnd(c echo.Context) error {
	s.editor.DragEnd()
	return s.crop(c)
}

func (s *Server) handleCropAuto(c echo.Context) error {
	region, err := s.editor.AutoPosition()
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"rect":   s.editor.Controller().Rect(),
		"region": [4]int{region.Min.X, region.Min.Y, region.Dx(), region.Dy()},
	})
}
