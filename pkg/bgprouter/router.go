package bgprouter

import (
	"github.com/netreconf/bgpplan/pkg/model"
	"github.com/netreconf/bgpplan/pkg/util"
)

// Router is the BGP control-plane handler for one internal router. It
// wraps a model.InternalRouterState with the runtime bookkeeping the
// decision process needs (per-destination IGP cost, and the raw,
// pre-route-map routes received from each neighbor so set_route_map can
// replay them under a new map) and exposes the operations of spec.md
// §4.2. A Router never mutates anything outside its own State; every
// method returns the outgoing events it produces.
type Router struct {
	State *model.InternalRouterState
	As    model.AsId

	// IgpCost is the shortest-path cost from this router to every other
	// router, as last installed by SetIgpState. Absent entries are
	// unreachable.
	IgpCost map[model.RouterId]float64

	// rawIn holds, per neighbor per prefix, the route exactly as
	// received, before the inbound route-map runs. Kept so
	// SetRouteMap(neighbor, In, ...) can re-process the neighbor's
	// RIB-in without needing the neighbor to re-send anything.
	rawIn map[model.RouterId]map[model.Prefix]model.BgpRoute
}

// NewRouter wraps state as a Router in AS as.
func NewRouter(state *model.InternalRouterState, as model.AsId) *Router {
	return &Router{
		State:   state,
		As:      as,
		IgpCost: make(map[model.RouterId]float64),
		rawIn:   make(map[model.RouterId]map[model.Prefix]model.BgpRoute),
	}
}

func (r *Router) rememberRaw(from model.RouterId, route model.BgpRoute) {
	if r.rawIn[from] == nil {
		r.rawIn[from] = make(map[model.Prefix]model.BgpRoute)
	}
	r.rawIn[from][route.Prefix] = route
}

func (r *Router) forgetRaw(from model.RouterId, prefix model.Prefix) {
	if m, ok := r.rawIn[from]; ok {
		delete(m, prefix)
	}
}

// HandleUpdate processes a route received from neighbor from, runs the
// decision process for its prefix, and returns the outgoing
// advertisement events plus a summary of any forwarding next-hop
// change. A route that loops (AS path or cluster-list) or is denied by
// the inbound route-map is accepted for bookkeeping but excluded from
// the decision process, exactly like a withdrawal from that neighbor.
func (r *Router) HandleUpdate(from model.RouterId, route model.BgpRoute) ([]Event, StepSummary) {
	log := util.WithRouter(r.State.Router.String()).WithField("neighbor", from.String())
	r.rememberRaw(from, route)

	if route.HasLooped(r.As) || route.HasVisitedCluster(r.State.Router) {
		log.WithField("prefix", route.Prefix.String()).Debug("bgprouter: dropping looped route on receipt")
		return r.clearRibIn(from, route.Prefix)
	}

	cfg := r.State.Neighbors[from]
	var inMap *model.RouteMap
	if cfg != nil {
		inMap = cfg.InRoutes
	}
	processed, permitted := inMap.Apply(route)
	if !permitted {
		log.WithField("prefix", route.Prefix.String()).Debug("bgprouter: inbound route-map denied route")
		return r.clearRibIn(from, route.Prefix)
	}

	if r.State.RibIn[from] == nil {
		r.State.RibIn[from] = make(map[model.Prefix]model.BgpRoute)
	}
	r.State.RibIn[from][route.Prefix] = processed

	return r.recompute(route.Prefix)
}

// HandleWithdraw removes any route held from neighbor from for prefix
// and re-runs the decision process.
func (r *Router) HandleWithdraw(from model.RouterId, prefix model.Prefix) ([]Event, StepSummary) {
	r.forgetRaw(from, prefix)
	return r.clearRibIn(from, prefix)
}

func (r *Router) clearRibIn(from model.RouterId, prefix model.Prefix) ([]Event, StepSummary) {
	if m, ok := r.State.RibIn[from]; ok {
		delete(m, prefix)
	}
	return r.recompute(prefix)
}

// recompute re-runs the decision process for prefix, updates the RIB,
// and produces advertisement/withdrawal events for every neighbor whose
// effective outbound route changes.
func (r *Router) recompute(prefix model.Prefix) ([]Event, StepSummary) {
	summary := StepSummary{Prefix: prefix}
	if old, ok := r.State.Rib[prefix]; ok {
		summary.HadOld = true
		summary.OldNextHop = old.Route.NextHop
	}

	best, have := r.selectBest(prefix)
	if have {
		r.State.Rib[prefix] = model.SelectedRoute{
			Route:   best.Route,
			From:    best.From,
			IgpCost: r.igpCostOf(best.Route.NextHop),
		}
		summary.HadNew = true
		summary.NewNextHop = best.Route.NextHop
	} else {
		delete(r.State.Rib, prefix)
	}

	summary.Changed = summary.HadOld != summary.HadNew || summary.OldNextHop != summary.NewNextHop

	var events []Event
	for neighbor := range r.State.Neighbors {
		events = append(events, r.readvertiseTo(neighbor, prefix, best, have)...)
	}
	return events, summary
}
