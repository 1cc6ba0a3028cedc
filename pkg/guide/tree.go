package guide

type NodeKind int

const (
	KindRoot NodeKind = iota
	KindCategory
	KindSubcategory
	KindTier
	KindFood
)

// Event reports that Node was expanded or collapsed. Events bubble from the
// toggled node up to the root.
type Event struct {
	Node     *Node
	Expanded bool
}

// Node is one expandable section of the guide. A node knows how many rows
// its subtree occupies when rendered; children report changes to their
// parent so the count stays current without rescanning the tree.
type Node struct {
	Kind     NodeKind
	Label    string
	Tier     TierName
	Food     *Food
	Children []*Node

	parent    *Node
	expanded  bool
	height    int
	listeners []func(Event)
}

// BuildTree turns a guide into a collapsed tree. The root is always
// expanded and is not rendered as a row.
func BuildTree(g Guide) *Node {
	root := &Node{Kind: KindRoot, expanded: true}
	for _, c := range g.Categories {
		cn := root.add(&Node{Kind: KindCategory, Label: c.Icon + " " + c.Name})
		for _, s := range c.Subcategories {
			sn := cn.add(&Node{Kind: KindSubcategory, Label: s.Name})
			for _, t := range s.Tiers {
				tn := sn.add(&Node{Kind: KindTier, Label: "Tier " + string(t.Name), Tier: t.Name})
				for _, f := range t.Foods {
					food := f.clone()
					tn.add(&Node{Kind: KindFood, Label: food.Name, Tier: food.Tier, Food: &food})
				}
			}
		}
	}
	root.height = root.computeHeight()
	return root
}

func (n *Node) add(child *Node) *Node {
	child.parent = n
	child.height = 1
	n.Children = append(n.Children, child)
	return child
}

func (n *Node) computeHeight() int {
	h := 0
	if n.Kind != KindRoot {
		h = 1
	}
	if n.expanded {
		for _, c := range n.Children {
			c.height = c.computeHeight()
			h += c.height
		}
	}
	return h
}

func (n *Node) Parent() *Node {
	return n.parent
}

func (n *Node) Expanded() bool {
	return n.expanded
}

// Height is the number of rows the node and its visible descendants take.
func (n *Node) Height() int {
	return n.height
}

// OnChange registers fn for events from this node's subtree.
func (n *Node) OnChange(fn func(Event)) {
	n.listeners = append(n.listeners, fn)
}

func (n *Node) Toggle() {
	if n.expanded {
		n.Collapse()
	} else {
		n.Expand()
	}
}

// Expand opens the node. Leaves cannot be expanded.
func (n *Node) Expand() {
	if n.expanded || len(n.Children) == 0 {
		return
	}
	n.expanded = true
	n.resize(n.computeHeight())
	n.emit(Event{Node: n, Expanded: true})
}

// Collapse closes the node and every open descendant.
func (n *Node) Collapse() {
	if !n.expanded || n.Kind == KindRoot {
		return
	}
	n.collapseDescendants()
	n.expanded = false
	n.resize(1)
	n.emit(Event{Node: n, Expanded: false})
}

func (n *Node) collapseDescendants() {
	for _, c := range n.Children {
		if c.expanded {
			c.collapseDescendants()
			c.expanded = false
		}
		c.height = 1
	}
}

// ExpandAll opens every node in the subtree, as a search result view does.
func (n *Node) ExpandAll() {
	n.setExpandedRecursive()
	n.resize(n.computeHeight())
	n.emit(Event{Node: n, Expanded: true})
}

func (n *Node) setExpandedRecursive() {
	if len(n.Children) == 0 {
		return
	}
	n.expanded = true
	for _, c := range n.Children {
		c.setExpandedRecursive()
	}
}

// resize sets the node's height and passes the difference up through
// expanded ancestors.
func (n *Node) resize(h int) {
	delta := h - n.height
	n.height = h
	for p := n.parent; p != nil && delta != 0; p = p.parent {
		if !p.expanded {
			break
		}
		p.height += delta
	}
}

func (n *Node) emit(e Event) {
	for node := n; node != nil; node = node.parent {
		for _, fn := range node.listeners {
			fn(e)
		}
	}
}

// Row is a rendered line of the tree.
type Row struct {
	Node  *Node
	Depth int
}

// Rows flattens the visible part of the tree, excluding the root.
func (n *Node) Rows() []Row {
	rows := make([]Row, 0, n.height)
	var walk func(node *Node, depth int)
	walk = func(node *Node, depth int) {
		if node.Kind != KindRoot {
			rows = append(rows, Row{Node: node, Depth: depth})
		}
		if !node.expanded {
			return
		}
		next := depth + 1
		if node.Kind == KindRoot {
			next = depth
		}
		for _, c := range node.Children {
			walk(c, next)
		}
	}
	walk(n, 0)
	return rows
}
