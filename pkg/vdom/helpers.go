package vdom

// If returns an Optional holding node when condition is true, and an absent
// Optional otherwise. The position exists either way, so siblings keep their
// identifiers when the condition flips.
func If(condition bool, node *VNode) *VNode {
	if condition {
		return Optional(node)
	}
	return Optional(nil)
}

// When is like If but with lazy evaluation.
// The function is only called if condition is true.
func When(condition bool, fn func() *VNode) *VNode {
	if condition {
		return Optional(fn())
	}
	return Optional(nil)
}

// Each maps items to a List, one position per item.
// Positions are matched by index, never by item value. A nil result holds
// its position as Empty, as in Repeat.
func Each[T any](items []T, fn func(item T, index int) *VNode) *VNode {
	list := &VNode{Kind: KindList, Children: make([]*VNode, 0, len(items))}
	for i, item := range items {
		list.Children = append(list.Children, orEmpty(fn(item, i)))
	}
	return list
}

// Repeat creates a List of n positions.
func Repeat(n int, fn func(i int) *VNode) *VNode {
	list := &VNode{Kind: KindList}
	for i := 0; i < n; i++ {
		list.Children = append(list.Children, orEmpty(fn(i)))
	}
	return list
}
