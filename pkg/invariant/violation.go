package invariant

import (
	"github.com/netreconf/bgpplan/pkg/forwarding"
	"github.com/netreconf/bgpplan/pkg/model"
)

// Violation is the typed witness a Checker records when a leaf
// Invariant property fails at some step of the observed trace — the
// Violation::Path(prefix, prop, path, reachable?) of spec.md §6.
type Violation struct {
	Prefix    model.Prefix
	Router    model.RouterId
	Step      int
	Reachable bool
	Path      forwarding.Path
}

type invariantLeaf struct {
	router model.RouterId
	prop   Prop
}

// collectViolations re-evaluates every leaf Invariant node in e at
// every step of trace and records the ones that fail, each carrying
// the witness path (if any) produced by the forwarding state's own
// path search.
func collectViolations(e Expr, trace []*forwarding.State, prefix model.Prefix) []Violation {
	var leaves []invariantLeaf
	collectLeaves(e, &leaves)

	var out []Violation
	for _, leaf := range leaves {
		for k, fw := range trace {
			if fw == nil {
				continue
			}
			if evalProp(leaf.prop, fw, leaf.router, prefix) {
				continue
			}
			paths, _ := fw.GetPaths(leaf.router, prefix)
			out = append(out, Violation{
				Prefix:    prefix,
				Router:    leaf.router,
				Step:      k,
				Reachable: fw.Reaches(leaf.router, prefix),
				Path:      firstPath(paths),
			})
		}
	}
	return out
}

func firstPath(paths []forwarding.Path) forwarding.Path {
	if len(paths) == 0 {
		return nil
	}
	return paths[0]
}

func collectLeaves(e Expr, out *[]invariantLeaf) {
	switch e.Kind {
	case ExprInvariant:
		*out = append(*out, invariantLeaf{router: e.Router, prop: e.Prop})
	default:
		for _, op := range e.Operands {
			collectLeaves(op, out)
		}
	}
}
