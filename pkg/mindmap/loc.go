package mindmap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/mindmap/pkg/tree"
)

// ParseLoc splits a "x y" location string.
func ParseLoc(loc string) (x, y float64, err error) {
	fields := strings.Fields(loc)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("invalid location %q: want \"x y\"", loc)
	}
	if x, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return 0, 0, fmt.Errorf("invalid location %q: %w", loc, err)
	}
	if y, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return 0, 0, fmt.Errorf("invalid location %q: %w", loc, err)
	}
	return x, y, nil
}

// FormatLoc renders a location in the form ParseLoc accepts.
func FormatLoc(x, y float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64) + " " + strconv.FormatFloat(y, 'f', -1, 64)
}

// SideOf returns the side of the root's vertical axis that nodeX lies on.
// A node exactly on the axis stays on current.
func SideOf(rootX, nodeX float64, current tree.Direction) tree.Direction {
	switch {
	case nodeX < rootX:
		return tree.Left
	case nodeX > rootX:
		return tree.Right
	}
	return current
}
