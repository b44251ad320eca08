package cropper

import (
	"fmt"
	"strconv"
	"strings"
)

// AspectRatio is a width:height selection such as "9:16".
type AspectRatio string

const (
	Ratio9x18 AspectRatio = "9:18"
	Ratio9x16 AspectRatio = "9:16"
	Ratio4x3  AspectRatio = "4:3"
	Ratio3x4  AspectRatio = "3:4"
	Ratio1x1  AspectRatio = "1:1"
	Ratio4x5  AspectRatio = "4:5"

	DefaultRatio = Ratio9x16
)

// Ratios lists the selectable aspect ratios in display order.
var Ratios = []AspectRatio{Ratio9x18, Ratio9x16, Ratio4x3, Ratio3x4, Ratio1x1, Ratio4x5}

// Value returns width/height. Unknown selections return 0.
func (a AspectRatio) Value() float64 {
	parts := strings.Split(string(a), ":")
	if len(parts) != 2 {
		return 0
	}
	w, errW := strconv.ParseFloat(parts[0], 64)
	h, errH := strconv.ParseFloat(parts[1], 64)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0
	}
	return w / h
}

// ParseAspectRatio accepts only the enumerated ratios.
func ParseAspectRatio(s string) (AspectRatio, error) {
	s = strings.TrimSpace(s)
	for _, r := range Ratios {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown aspect ratio %q", s)
}
