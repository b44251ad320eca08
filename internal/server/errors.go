package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ivlev/videocrop/internal/capture"
	"github.com/ivlev/videocrop/internal/engine"
)

// httpError maps editor errors onto status codes. Conditions the view should
// have disabled (no crop, nothing recorded) are conflicts.
func httpError(err error) error {
	switch {
	case errors.Is(err, engine.ErrNoCrop),
		errors.Is(err, engine.ErrNotReady),
		errors.Is(err, engine.ErrRecordingActive),
		errors.Is(err, capture.ErrNoRecording):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrNoRegion):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
