package analyzer

import "fmt"

// DefaultVariant is used when no detector is configured.
const DefaultVariant = "contrast"

// NewDetector resolves a configured detector name.
func NewDetector(variant string) (Detector, error) {
	if variant == "" {
		variant = DefaultVariant
	}
	switch variant {
	case "contrast":
		return NewContrastDetector(), nil
	}
	return nil, fmt.Errorf("unknown detector variant %q", variant)
}
