// Package battery classifies device battery percentages into the severity
// tiers shown next to every monitored user.
package battery

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"carewatch/backend/internal/theme"
)

type Tier string

const (
	TierCritical Tier = "critical"
	TierLow      Tier = "low"
	TierMedium   Tier = "medium"
	TierGood     Tier = "good"
	TierFull     Tier = "full"
)

var ErrOutOfRange = errors.New("battery level out of range")

// Status is the derived tier for a single reading.
type Status struct {
	Level int            `json:"level"`
	Tier  Tier           `json:"tier"`
	Icon  string         `json:"icon"`
	Color theme.Semantic `json:"color"`
}

type band struct {
	max   int
	tier  Tier
	icon  string
	color theme.Semantic
}

// Upper bounds are inclusive.
var bands = []band{
	{max: 20, tier: TierCritical, icon: "battery-0-bar", color: theme.Error},
	{max: 30, tier: TierLow, icon: "battery-2-bar", color: theme.Warning},
	{max: 50, tier: TierMedium, icon: "battery-4-bar", color: theme.Warning},
	{max: 80, tier: TierGood, icon: "battery-6-bar", color: theme.Success},
	{max: 100, tier: TierFull, icon: "battery-std", color: theme.Success},
}

// Classify maps a percentage in [0,100] to its tier. Levels outside that
// range are rejected rather than clamped.
func Classify(level int) (Status, error) {
	if level < 0 || level > 100 {
		return Status{}, fmt.Errorf("%w: %d", ErrOutOfRange, level)
	}
	for _, b := range bands {
		if level <= b.max {
			return Status{Level: level, Tier: b.tier, Icon: b.icon, Color: b.color}, nil
		}
	}
	return Status{}, fmt.Errorf("%w: %d", ErrOutOfRange, level)
}

// ParseLevel parses the "80%" encoding used on monitored user records.
func ParseLevel(value string) (int, error) {
	raw := strings.TrimSpace(value)
	raw = strings.TrimSpace(strings.TrimSuffix(raw, "%"))
	if raw == "" {
		return 0, errors.New("battery level is empty")
	}
	level, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid battery level %q: %w", value, err)
	}
	if level < 0 || level > 100 {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, level)
	}
	return level, nil
}

func FormatLevel(level int) string {
	return strconv.Itoa(level) + "%"
}

// ClassifyString parses and classifies in one step.
func ClassifyString(value string) (Status, error) {
	level, err := ParseLevel(value)
	if err != nil {
		return Status{}, err
	}
	return Classify(level)
}

// Severity orders tiers from 0 (full) to 4 (critical).
func (t Tier) Severity() int {
	switch t {
	case TierCritical:
		return 4
	case TierLow:
		return 3
	case TierMedium:
		return 2
	case TierGood:
		return 1
	default:
		return 0
	}
}

func (s Status) Indicator() theme.Indicator {
	return theme.Indicator{Icon: s.Icon, Color: s.Color}
}
