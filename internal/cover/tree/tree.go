package tree

// The insertion and search strategy follow github.com/viant/gds/tree/cover.

import (
	"container/heap"
	"math"
	"sync"
)

type node struct {
	level    int32
	point    *Point
	children []node
	radius   float32
	computed uint64
}

// Tree is a cover tree answering exact kNN queries for cosine or euclidean
// distance. Pruning uses per-node subtree radii, recomputed lazily after
// inserts.
type Tree[T any] struct {
	mu       sync.Mutex
	root     *node
	base     float32
	distance DistanceFunc
	values   []T
	version  uint64
}

// New constructs a cover tree with the provided base and distance metric.
// Bases <= 1 fall back to 1.3; unknown metrics fall back to euclidean.
func New[T any](base float32, fn DistanceFunction) *Tree[T] {
	if base <= 1 {
		base = 1.3
	}
	dist := fn.Function()
	if dist == nil {
		dist = EuclideanDistance
	}
	return &Tree[T]{base: base, distance: dist}
}

// Len returns the number of inserted points.
func (t *Tree[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.values)
}

// Insert adds a value/vector pair to the tree.
func (t *Tree[T]) Insert(value T, point *Point) {
	t.mu.Lock()
	defer t.mu.Unlock()
	point.slot = int32(len(t.values))
	t.values = append(t.values, value)
	t.version++
	if t.root == nil {
		t.root = &node{point: point}
		return
	}
	t.insert(point)
}

func (t *Tree[T]) insert(point *Point) {
	current := t.root
	level := current.level
	for {
		cover := float32(math.Pow(float64(t.base), float64(level)))
		if t.distance(point, current.point) >= cover {
			if current == t.root {
				// The root cannot cover the point: promote it under a new root.
				t.root = &node{level: level + 1, point: point, children: []node{*current}}
				return
			}
			current.children = append(current.children, node{level: level - 1, point: point})
			return
		}
		descended := false
		for i := range current.children {
			child := &current.children[i]
			if t.distance(point, child.point) < cover/t.base {
				current = child
				level = child.level
				descended = true
				break
			}
		}
		if !descended {
			current.children = append(current.children, node{level: level - 1, point: point})
			return
		}
	}
}

// Value returns the value stored with a point.
func (t *Tree[T]) Value(p *Point) T {
	var zero T
	if p == nil || p.slot < 0 || int(p.slot) >= len(t.values) {
		return zero
	}
	return t.values[p.slot]
}

// KNearest runs a best-first kNN search and returns neighbors ordered by
// ascending distance. k <= 0 returns every point.
func (t *Tree[T]) KNearest(query *Point, k int) []Neighbor {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.root == nil {
		return nil
	}
	if k <= 0 || k > len(t.values) {
		k = len(t.values)
	}
	best := &neighbors{}
	queue := &nodeQueue{}
	rootDist := t.distance(query, t.root.point)
	heap.Push(queue, nodeItem{node: t.root, lower: rootDist - t.radius(t.root), dist: rootDist})
	for queue.Len() > 0 {
		top := heap.Pop(queue).(nodeItem)
		if best.Len() == k && top.lower >= (*best)[0].Distance {
			break
		}
		if best.Len() < k {
			heap.Push(best, Neighbor{Point: top.node.point, Distance: top.dist})
		} else if top.dist < (*best)[0].Distance {
			heap.Pop(best)
			heap.Push(best, Neighbor{Point: top.node.point, Distance: top.dist})
		}
		for i := range top.node.children {
			child := &top.node.children[i]
			d := t.distance(query, child.point)
			lower := d - t.radius(child)
			if best.Len() == k && lower >= (*best)[0].Distance {
				continue
			}
			heap.Push(queue, nodeItem{node: child, lower: lower, dist: d})
		}
	}
	out := make([]Neighbor, best.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(best).(Neighbor)
	}
	return out
}

// radius returns the maximum distance from n to any descendant.
func (t *Tree[T]) radius(n *node) float32 {
	if n.computed == t.version {
		return n.radius
	}
	var r float32
	for i := range n.children {
		child := &n.children[i]
		if d := t.distance(n.point, child.point) + t.radius(child); d > r {
			r = d
		}
	}
	n.radius = r
	n.computed = t.version
	return r
}

type nodeItem struct {
	node  *node
	lower float32
	dist  float32
}

type nodeQueue []nodeItem

func (q nodeQueue) Len() int           { return len(q) }
func (q nodeQueue) Less(i, j int) bool { return q[i].lower < q[j].lower }
func (q nodeQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)        { *q = append(*q, x.(nodeItem)) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}
