package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is one of the eight palette indices understood by the panel.
type Color int

const (
	Black Color = iota
	Red
	Green
	Yellow
	Blue
	Magenta
	Cyan
	White
)

var colorNames = []string{"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white"}

func (c Color) String() string {
	if c.Valid() {
		return colorNames[c]
	}
	return "color(" + strconv.Itoa(int(c)) + ")"
}

// Valid reports whether c is a palette index the panel accepts.
func (c Color) Valid() bool {
	return c >= Black && c <= White
}

// ParseColor accepts a color name ("cyan") or a palette index ("6").
func ParseColor(s string) (Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range colorNames {
		if n == name {
			return Color(i), nil
		}
	}
	idx, err := strconv.Atoi(name)
	if err != nil || !Color(idx).Valid() {
		return 0, fmt.Errorf("%w: color %q (want black..white or 0-7)", ErrInvalidArgument, s)
	}
	return Color(idx), nil
}

// Orientation is the screen layout derived from the rotation command.
type Orientation int

const (
	Vertical Orientation = iota
	Horizontal
)

func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// OrientationFor maps a rotation (0-3) to the layout it produces.
// Even rotations are vertical, odd rotations horizontal.
func OrientationFor(rotation int) Orientation {
	if rotation%2 == 0 {
		return Vertical
	}
	return Horizontal
}
