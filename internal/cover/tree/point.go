package tree

// Point is a vector stored in the tree together with the slot of its
// associated value.
type Point struct {
	slot   int32
	Vector []float32
}

// NewPoint constructs a point for the given vector.
func NewPoint(vector []float32) *Point {
	return &Point{slot: -1, Vector: vector}
}

// Neighbor describes a candidate returned by a kNN search.
type Neighbor struct {
	Point    *Point
	Distance float32
}

// neighbors is a max-heap on distance holding the current best k candidates.
type neighbors []Neighbor

func (h neighbors) Len() int           { return len(h) }
func (h neighbors) Less(i, j int) bool { return h[i].Distance > h[j].Distance }
func (h neighbors) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *neighbors) Push(x any)        { *h = append(*h, x.(Neighbor)) }
func (h *neighbors) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
