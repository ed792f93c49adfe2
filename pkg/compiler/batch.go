package compiler

import (
	"fmt"
	"sort"

	"github.com/netreconf/bgpplan/pkg/model"
	"github.com/netreconf/bgpplan/pkg/util"
)

// MergeRouteMapEdits coalesces the per-round route-map edits compiled
// for one (router, neighbor, direction) route-map into the
// order-preserving merge spec.md §4.8 requires: an insert paired with a
// remove at the same order becomes a single replace; any other
// collision at the same order — two inserts, two removes, or more than
// two edits — cannot be expressed as one atomic edit and is rejected.
func MergeRouteMapEdits(edits []model.RouteMapItemEdit) ([]model.RouteMapItemEdit, error) {
	byOrder := make(map[int][]model.RouteMapItemEdit)
	var orders []int
	for _, e := range edits {
		if _, seen := byOrder[e.Item.Order]; !seen {
			orders = append(orders, e.Item.Order)
		}
		byOrder[e.Item.Order] = append(byOrder[e.Item.Order], e)
	}
	sort.Ints(orders)

	out := make([]model.RouteMapItemEdit, 0, len(orders))
	for _, order := range orders {
		group := byOrder[order]
		switch len(group) {
		case 1:
			out = append(out, group[0])
		case 2:
			merged, ok := mergePair(group[0], group[1])
			if !ok {
				return nil, util.NewDecompositionError(fmt.Sprintf("conflicting batch route-map edit at order %d: cannot modify the same item twice in one batch", order))
			}
			out = append(out, merged)
		default:
			return nil, util.NewDecompositionError(fmt.Sprintf("conflicting batch route-map edit at order %d: cannot modify the same item twice in one batch", order))
		}
	}
	return out, nil
}

// mergePair merges an insert/replace with a remove at the same order
// into a single replace. Any other pairing (two inserts, two removes)
// has no atomic expression and is reported as unmergeable.
func mergePair(a, b model.RouteMapItemEdit) (model.RouteMapItemEdit, bool) {
	insert, remove, ok := splitPair(a, b)
	if !ok {
		return model.RouteMapItemEdit{}, false
	}
	return model.RouteMapItemEdit{Kind: model.EditReplaceItem, Item: insert.Item}, true
}

func splitPair(a, b model.RouteMapItemEdit) (insert, remove model.RouteMapItemEdit, ok bool) {
	if isInsertLike(a.Kind) && b.Kind == model.EditRemoveItem {
		return a, b, true
	}
	if isInsertLike(b.Kind) && a.Kind == model.EditRemoveItem {
		return b, a, true
	}
	return model.RouteMapItemEdit{}, model.RouteMapItemEdit{}, false
}

func isInsertLike(k model.RouteMapItemEditKind) bool {
	return k == model.EditInsertItem || k == model.EditReplaceItem
}
