package filter

import "strings"

// Node is an element of a filter tree.
type Node interface {
	DebugString() string
	Serialize(indent int) (string, error)
}

var (
	_ Node = Leaf{}
	_ Node = Group{}
)

// Group combines child nodes under a single boolean combinator.
type Group struct {
	combinator string
	children   []Node
}

// NewGroup creates a group. The combinator is stored as given ("and" or "or").
func NewGroup(combinator string, children ...Node) Group {
	c := make([]Node, len(children))
	copy(c, children)
	return Group{combinator: combinator, children: c}
}

// Combinator returns the boolean combinator.
func (g Group) Combinator() string { return g.combinator }

// Children returns the child nodes.
func (g Group) Children() []Node {
	c := make([]Node, len(g.children))
	copy(c, g.children)
	return c
}

// Serialize renders the children as a JSON array. Children are serialized one
// level deeper than the array brackets.
func (g Group) Serialize(indent int) (string, error) {
	if indent < 0 {
		indent = 0
	}
	if len(g.children) == 0 {
		return "[]", nil
	}
	pad := strings.Repeat(indentUnit, indent+1)

	var sb strings.Builder
	sb.WriteString("[\n")
	for i, child := range g.children {
		s, err := child.Serialize(indent + 2)
		if err != nil {
			return "", err
		}
		sb.WriteString(pad + s)
		if i < len(g.children)-1 {
			sb.WriteByte(',')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(strings.Repeat(indentUnit, indent) + "]")
	return sb.String(), nil
}

// DebugString renders the group as (combinator child...).
func (g Group) DebugString() string {
	parts := make([]string, 0, len(g.children)+1)
	parts = append(parts, g.combinator)
	for _, child := range g.children {
		parts = append(parts, child.DebugString())
	}
	return "(" + strings.Join(parts, " ") + ")"
}
