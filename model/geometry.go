package model

import "math"

// Point represents a 2D point in page coordinates (origin top-left, Y down).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance calculates the Euclidean distance to another point.
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// BBox represents an axis-aligned bounding box by its corners, in page
// points with the origin at the top-left of the page and Y increasing
// downward. A well-formed box satisfies X0 < X1 and Y0 < Y1.
type BBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// NewBBox creates a bounding box from corner coordinates, normalizing the
// corner order so that X0 <= X1 and Y0 <= Y1.
func NewBBox(x0, y0, x1, y1 float64) BBox {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return BBox{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

// NewBBoxFromPoints creates a bounding box spanning two points.
func NewBBoxFromPoints(p1, p2 Point) BBox {
	return NewBBox(p1.X, p1.Y, p2.X, p2.Y)
}

// Width returns the horizontal extent of the box.
func (b BBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the vertical extent of the box.
func (b BBox) Height() float64 {
	return b.Y1 - b.Y0
}

// Center returns the center point.
func (b BBox) Center() Point {
	return Point{
		X: (b.X0 + b.X1) / 2,
		Y: (b.Y0 + b.Y1) / 2,
	}
}

// ContainsPoint checks if a point is inside the bounding box.
func (b BBox) ContainsPoint(p Point) bool {
	return p.X >= b.X0 && p.X <= b.X1 &&
		p.Y >= b.Y0 && p.Y <= b.Y1
}

// Contains checks if this box fully contains another box.
func (b BBox) Contains(other BBox) bool {
	return other.X0 >= b.X0 && other.X1 <= b.X1 &&
		other.Y0 >= b.Y0 && other.Y1 <= b.Y1
}

// Intersects checks if two bounding boxes intersect.
func (b BBox) Intersects(other BBox) bool {
	return !(b.X1 < other.X0 ||
		b.X0 > other.X1 ||
		b.Y1 < other.Y0 ||
		b.Y0 > other.Y1)
}

// Intersection returns the intersection of two bounding boxes, or an empty
// box when they do not intersect.
func (b BBox) Intersection(other BBox) BBox {
	if !b.Intersects(other) {
		return BBox{}
	}

	return BBox{
		X0: math.Max(b.X0, other.X0),
		Y0: math.Max(b.Y0, other.Y0),
		X1: math.Min(b.X1, other.X1),
		Y1: math.Min(b.Y1, other.Y1),
	}
}

// Union returns the smallest box containing both boxes.
func (b BBox) Union(other BBox) BBox {
	if b.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return b
	}

	return BBox{
		X0: math.Min(b.X0, other.X0),
		Y0: math.Min(b.Y0, other.Y0),
		X1: math.Max(b.X1, other.X1),
		Y1: math.Max(b.Y1, other.Y1),
	}
}

// Area returns the area of the bounding box.
func (b BBox) Area() float64 {
	if b.IsEmpty() {
		return 0
	}
	return b.Width() * b.Height()
}

// Expand expands the bounding box by a margin on all sides.
func (b BBox) Expand(margin float64) BBox {
	return BBox{
		X0: b.X0 - margin,
		Y0: b.Y0 - margin,
		X1: b.X1 + margin,
		Y1: b.Y1 + margin,
	}
}

// OverlapRatio calculates the proportion of the smaller box covered by the
// intersection. Returns a value between 0 and 1.
func (b BBox) OverlapRatio(other BBox) float64 {
	if !b.Intersects(other) {
		return 0
	}

	intersection := b.Intersection(other)
	minArea := math.Min(b.Area(), other.Area())

	if minArea == 0 {
		return 0
	}

	return intersection.Area() / minArea
}

// HorizontalOverlap returns the length of the horizontal interval shared by
// the two boxes, or 0 when their X ranges are disjoint.
func (b BBox) HorizontalOverlap(other BBox) float64 {
	overlap := math.Min(b.X1, other.X1) - math.Max(b.X0, other.X0)
	if overlap < 0 {
		return 0
	}
	return overlap
}

// VerticalGap returns the distance between the two boxes' nearest horizontal
// edges, or 0 when their Y ranges overlap.
func (b BBox) VerticalGap(other BBox) float64 {
	if b.Y1 <= other.Y0 {
		return other.Y0 - b.Y1
	}
	if other.Y1 <= b.Y0 {
		return b.Y0 - other.Y1
	}
	return 0
}

// IsEmpty returns true if the bounding box has zero or negative extent.
func (b BBox) IsEmpty() bool {
	return b.X1 <= b.X0 || b.Y1 <= b.Y0
}

// IsValid returns true if the corners are ordered and every coordinate is a
// finite number.
func (b BBox) IsValid() bool {
	for _, v := range [4]float64{b.X0, b.Y0, b.X1, b.Y1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.X0 < b.X1 && b.Y0 < b.Y1
}

// InPage checks that the box lies within a page of the given dimensions,
// with a half-point tolerance for rounding at the page edge.
func (b BBox) InPage(width, height float64) bool {
	const tol = 0.5
	return b.X0 >= -tol && b.Y0 >= -tol &&
		b.X1 <= width+tol && b.Y1 <= height+tol
}
