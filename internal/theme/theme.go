// Package theme holds the color semantics shared by every status indicator
// the caregiver app renders.
package theme

type Semantic string

const (
	Error   Semantic = "error"
	Warning Semantic = "warning"
	Success Semantic = "success"
	Primary Semantic = "primary"
	Muted   Semantic = "muted"
)

var palette = map[Semantic]string{
	Error:   "#EF4444",
	Warning: "#F59E0B",
	Success: "#10B981",
	Primary: "#7C3AED",
	Muted:   "#9CA3AF",
}

// Hex returns the app palette color for s, or the muted gray for unknown values.
func (s Semantic) Hex() string {
	if hex, ok := palette[s]; ok {
		return hex
	}
	return palette[Muted]
}

// Indicator is a rendered icon/color pair.
type Indicator struct {
	Icon  string   `json:"icon"`
	Color Semantic `json:"color"`
}
