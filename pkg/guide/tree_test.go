package guide

import "testing"

func TestTreeStartsCollapsed(t *testing.T) {
	root := BuildTree(testGuide())
	rows := root.Rows()
	if len(rows) != 2 || root.Height() != 2 {
		t.Fatalf("Expected two category rows, got %d rows and height %d", len(rows), root.Height())
	}
	if rows[0].Node.Kind != KindCategory || rows[0].Depth != 0 {
		t.Errorf("Unexpected first row: %+v", rows[0])
	}
}

func TestTreeChildEventsReachParent(t *testing.T) {
	root := BuildTree(testGuide())
	fruit := root.Children[0]
	berries := fruit.Children[0]

	var rootEvents, fruitEvents []Event
	root.OnChange(func(e Event) { rootEvents = append(rootEvents, e) })
	fruit.OnChange(func(e Event) { fruitEvents = append(fruitEvents, e) })

	fruit.Expand()
	if fruit.Height() != 3 || root.Height() != 4 {
		t.Errorf("After expanding Fruit expected heights 3/4, got %d/%d", fruit.Height(), root.Height())
	}

	berries.Expand()
	if berries.Height() != 3 || fruit.Height() != 5 || root.Height() != 6 {
		t.Errorf("After expanding Berries expected 3/5/6, got %d/%d/%d", berries.Height(), fruit.Height(), root.Height())
	}
	if len(fruitEvents) != 2 || fruitEvents[1].Node != berries || !fruitEvents[1].Expanded {
		t.Errorf("Expected Fruit to observe the Berries toggle, got %+v", fruitEvents)
	}
	if len(rootEvents) != 2 {
		t.Errorf("Expected root to observe both toggles, got %d", len(rootEvents))
	}

	if got := len(root.Rows()); got != root.Height() {
		t.Errorf("Rows (%d) and Height (%d) disagree", got, root.Height())
	}
}

func TestTreeCollapseClosesDescendants(t *testing.T) {
	root := BuildTree(testGuide())
	fruit := root.Children[0]
	berries := fruit.Children[0]
	tierA := berries.Children[0]

	fruit.Expand()
	berries.Expand()
	tierA.Expand()
	if root.Height() != 8 {
		t.Fatalf("Expected height 8, got %d", root.Height())
	}

	fruit.Collapse()
	if berries.Expanded() || tierA.Expanded() {
		t.Errorf("Collapsing a parent must collapse its descendants")
	}
	if root.Height() != 2 || len(root.Rows()) != 2 {
		t.Errorf("Expected height 2 after collapse, got %d", root.Height())
	}

	fruit.Expand()
	if fruit.Height() != 3 {
		t.Errorf("Re-expanding must show children collapsed, got height %d", fruit.Height())
	}
}

func TestTreeExpandAllAndLeaves(t *testing.T) {
	g := testGuide()
	root := BuildTree(g)
	root.ExpandAll()

	// 2 categories + 3 subcategories + 5 tiers + 6 foods
	if root.Height() != 16 || len(root.Rows()) != 16 {
		t.Errorf("Expected 16 rows, got height %d and %d rows", root.Height(), len(root.Rows()))
	}

	leaf := root.Children[0].Children[0].Children[0].Children[0]
	if leaf.Kind != KindFood || leaf.Food == nil || leaf.Food.Name != "Blueberries" {
		t.Fatalf("Unexpected leaf %+v", leaf)
	}
	leaf.Toggle()
	if leaf.Expanded() || leaf.Height() != 1 {
		t.Errorf("Leaves must not expand")
	}

	root.Collapse()
	if !root.Expanded() {
		t.Errorf("The root stays expanded")
	}
}
