package game

// Position is a board coordinate. (0,0) is the bottom-left tile; player one
// deploys on row 0.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pos is shorthand for Position{X: x, Y: y}.
func Pos(x, y int) Position {
	return Position{X: x, Y: y}
}

// Add offsets p by a direction vector.
func (p Position) Add(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

type Board struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (b Board) Contains(p Position) bool {
	return p.X >= 0 && p.X < b.Width && p.Y >= 0 && p.Y < b.Height
}

// Manhattan is the step distance between two tiles.
func Manhattan(a, b Position) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// Adjacent reports orthogonal adjacency (distance exactly 1).
func Adjacent(a, b Position) bool {
	return Manhattan(a, b) == 1
}

// InStraightLine reports whether b lies on a horizontal or vertical ray from a.
// A tile is not in line with itself.
func InStraightLine(a, b Position) bool {
	if a == b {
		return false
	}
	return a.X == b.X || a.Y == b.Y
}

// Direction returns the unit step from a toward b along each axis.
func Direction(a, b Position) (dx, dy int) {
	return sign(b.X - a.X), sign(b.Y - a.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
