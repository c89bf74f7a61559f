package tree

// Node represents a cover-tree node.
type Node struct {
	level          int32
	point          *Point
	children       []Node
	radius         float32
	radiusComputed uint64
}

func newNode(point *Point, level int32) Node {
	return Node{level: level, point: point}
}
