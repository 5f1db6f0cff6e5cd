package parser

// Node is a concrete syntax tree node. Start and End are byte offsets into
// the source the tree was built from.
type Node struct {
	Kind     string
	Start    int
	End      int
	Children []*Node
}

// Text returns the source text the node spans
func (n *Node) Text(src []byte) string {
	if n == nil || n.Start < 0 || n.End > len(src) || n.Start > n.End {
		return ""
	}
	return string(src[n.Start:n.End])
}

// Child returns the i-th child or nil
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

func (n *Node) add(child *Node) {
	n.Children = append(n.Children, child)
	if child.End > n.End {
		n.End = child.End
	}
}
