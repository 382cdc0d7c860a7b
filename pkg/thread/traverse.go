package thread

// Walk visits every node of the forest in pre-order: a node, then its replies
// in order. Returning false from fn stops the walk.
func Walk(forest []*Node, fn func(*Node) bool) {
	walk(forest, fn)
}

func walk(list []*Node, fn func(*Node) bool) bool {
	for _, n := range list {
		if !fn(n) {
			return false
		}
		if !walk(n.Replies, fn) {
			return false
		}
	}
	return true
}

// Flatten returns the forest in pre-order. The nodes are shared with the forest.
func Flatten(forest []*Node) []*Node {
	out := make([]*Node, 0, CountAll(forest))
	Walk(forest, func(n *Node) bool {
		out = append(out, n)
		return true
	})
	return out
}

// FindByID returns the first node with the given id in pre-order.
func FindByID(forest []*Node, id string) (*Node, bool) {
	var found *Node
	Walk(forest, func(n *Node) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

// CountAll returns the number of nodes in the forest.
func CountAll(forest []*Node) int {
	total := 0
	for _, n := range forest {
		total += 1 + CountAll(n.Replies)
	}
	return total
}

// Depth is the number of levels in the forest, 0 when it is empty.
func Depth(forest []*Node) int {
	depth := 0
	Walk(forest, func(n *Node) bool {
		if n.Level+1 > depth {
			depth = n.Level + 1
		}
		return true
	})
	return depth
}
