package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var colorPattern = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

// Label is a named, colored tag attached to an issue
type Label struct {
	name  string
	color string
}

// NewLabel validates color ("rrggbb" or "#rrggbb") and normalizes it to
// lowercase "#rrggbb"
func NewLabel(name, color string) (Label, error) {
	if name == "" {
		return Label{}, fmt.Errorf("label name must not be empty")
	}
	if !colorPattern.MatchString(color) {
		return Label{}, fmt.Errorf("label %q: color must be a valid RGB hex string: %q", name, color)
	}
	return Label{
		name:  name,
		color: "#" + strings.ToLower(strings.TrimPrefix(color, "#")),
	}, nil
}

func (l Label) Name() string  { return l.name }
func (l Label) Color() string { return l.color }

// Luminance is the perceived brightness of the label color in [0, 1]
func (l Label) Luminance() float64 {
	rgb, err := strconv.ParseUint(strings.TrimPrefix(l.color, "#"), 16, 32)
	if err != nil {
		return 0
	}
	r := float64((rgb >> 16) & 0xff)
	g := float64((rgb >> 8) & 0xff)
	b := float64(rgb & 0xff)
	return (0.299*r + 0.587*g + 0.114*b) / 255
}

// Dark labels need light text on top of them
func (l Label) Dark() bool {
	return l.Luminance() < 0.5
}
