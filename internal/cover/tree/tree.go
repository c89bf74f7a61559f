package tree

import (
	"container/heap"
	"math"
	"sync"
)

// Tree is a cover tree mapping points to values of type T.
type Tree[T any] struct {
	root         *Node
	base         float32
	distanceFunc DistanceFunc
	values       []T
	version      uint64
	mu           sync.RWMutex
}

// NewTree constructs a cover tree with the provided base and distance metric.
// A base <= 1 defaults to 1.3 and an unknown metric to Euclidean.
func NewTree[T any](base float32, metric Metric) *Tree[T] {
	if base <= 1 {
		base = 1.3
	}
	return &Tree[T]{base: base, distanceFunc: metric.distance()}
}

// Len returns the number of inserted points.
func (t *Tree[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.values)
}

// Insert adds a value/point pair and returns the point index, which equals
// the number of points inserted before it.
func (t *Tree[T]) Insert(value T, point *Point) int32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	point.index = int32(len(t.values))
	t.values = append(t.values, value)
	point.magnitude()
	if t.root == nil {
		node := newNode(point, 0)
		t.root = &node
	} else {
		t.insert(t.root, point, 0)
	}
	t.version++
	return point.index
}

// Value returns the stored value for the given point.
func (t *Tree[T]) Value(point *Point) T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var zero T
	if !point.HasValue() || int(point.index) >= len(t.values) {
		return zero
	}
	return t.values[point.index]
}

func (t *Tree[T]) insert(node *Node, point *Point, level int32) {
	for {
		baseLevel := float32(math.Pow(float64(t.base), float64(level)))
		distance := t.distanceFunc(point, node.point)
		if distance < baseLevel {
			descended := false
			for i := range node.children {
				child := &node.children[i]
				if t.distanceFunc(point, child.point) < baseLevel {
					node = child
					level--
					descended = true
					break
				}
			}
			if !descended {
				node.children = append(node.children, newNode(point, level-1))
				return
			}
			continue
		}
		level++
		if level > node.level {
			root := newNode(point, level)
			root.children = append(root.children, *t.root)
			t.root = &root
			return
		}
	}
}

// pruneSlack absorbs float32 rounding in the triangle inequality.
const pruneSlack = 1e-5

// Nearest returns up to k neighbors of point ordered by ascending distance.
// Subtrees are pruned when distance to their center minus their radius cannot
// beat the current k-th best, so results are exact for a true metric.
func (t *Tree[T]) Nearest(point *Point, k int) []Neighbor {
	if k <= 0 {
		return nil
	}
	point.magnitude()
	t.refreshRadius()
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.root == nil {
		return nil
	}
	best := &neighbors{}
	queue := &nodeQueue{}
	rootDist := t.distanceFunc(point, t.root.point)
	heap.Push(queue, nodeItem{node: t.root, lb: rootDist - t.root.radius, centerDist: rootDist})
	for queue.Len() > 0 {
		top := heap.Pop(queue).(nodeItem)
		if best.Len() == k && top.lb-pruneSlack >= (*best)[0].Distance {
			break
		}
		if best.Len() < k {
			heap.Push(best, Neighbor{Point: top.node.point, Distance: top.centerDist})
		} else if top.centerDist < (*best)[0].Distance {
			heap.Pop(best)
			heap.Push(best, Neighbor{Point: top.node.point, Distance: top.centerDist})
		}
		for i := range top.node.children {
			child := &top.node.children[i]
			cd := t.distanceFunc(point, child.point)
			lb := cd - child.radius
			if best.Len() == k && lb-pruneSlack >= (*best)[0].Distance {
				continue
			}
			heap.Push(queue, nodeItem{node: child, lb: lb, centerDist: cd})
		}
	}
	result := make([]Neighbor, best.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(best).(Neighbor)
	}
	return result
}

func (t *Tree[T]) refreshRadius() {
	t.mu.RLock()
	fresh := t.root == nil || t.root.radiusComputed == t.version
	t.mu.RUnlock()
	if fresh {
		return
	}
	t.mu.Lock()
	t.ensureRadius(t.root)
	t.mu.Unlock()
}

func (t *Tree[T]) ensureRadius(n *Node) float32 {
	if n.radiusComputed == t.version {
		return n.radius
	}
	maxR := float32(0)
	for i := range n.children {
		child := &n.children[i]
		d := t.distanceFunc(n.point, child.point) + t.ensureRadius(child)
		if d > maxR {
			maxR = d
		}
	}
	n.radius = maxR
	n.radiusComputed = t.version
	return maxR
}
