package domain

// Point is an immutable six-axis vertex emitted by motion handlers.
type Point struct {
	X, Y, Z float64
	A, B, C float64
}

// NewPoint builds a Point from the three linear axes, zeroing the rotaries.
func NewPoint(x, y, z float64) Point {
	return Point{X: x, Y: y, Z: z}
}
