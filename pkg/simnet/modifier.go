package simnet

import (
	"github.com/netreconf/bgpplan/pkg/model"
	"github.com/netreconf/bgpplan/pkg/util"
)

// ApplyModifier runs one elementary configuration edit to convergence:
// it performs the edit against the named router's state (and the
// topology, for IGP edits), enqueues whatever events the edit produces,
// drains the queue, and — if the edit touched a link weight or an OSPF
// area — recomputes OSPF and re-runs the decision process everywhere
// its result changed, per spec.md §4.3.
func (n *Network) ApplyModifier(mod model.ConfigModifier) error {
	switch mod.Kind {
	case model.ModifierInsert:
		n.applyInsert(mod.Expr)
	case model.ModifierRemove:
		n.applyRemove(mod.Expr)
	case model.ModifierUpdate:
		n.applyUpdate(mod.From, mod.To)
	case model.ModifierBatchRouteMapEdit:
		n.applyBatchRouteMapEdit(mod)
	}
	return n.converge()
}

func (n *Network) applyInsert(e model.ConfigExpr) {
	switch e.Kind {
	case model.ExprIgpLinkWeight:
		area := model.Backbone
		if existing, ok := n.topo.Edge(e.Router, e.Peer); ok {
			area = existing.Area
		}
		n.topo.AddLink(e.Router, e.Peer, e.Weight, area)
		n.recomputeOspf()
	case model.ExprOspfArea:
		weight := n.topo.Weight(e.Router, e.Peer)
		n.topo.AddLink(e.Router, e.Peer, weight, e.Area)
		n.recomputeOspf()
	case model.ExprBgpSession:
		r, ok := n.routers[e.Router]
		if !ok {
			return
		}
		r.State.SetNeighbor(e.Session)
		n.enqueueAll(e.Router, r.HandleSessionEstablish(e.Neighbor))
	case model.ExprBgpRouteMap:
		r, ok := n.routers[e.Router]
		if !ok {
			return
		}
		events, _ := r.SetRouteMap(e.Neighbor, e.RouteMapDirection, e.RouteMap)
		n.enqueueAll(e.Router, events)
	case model.ExprStaticRoute:
		if r, ok := n.routers[e.Router]; ok {
			r.State.StaticRoutes[e.Prefix] = e.StaticRoute
		}
	case model.ExprLoadBalancing:
		if r, ok := n.routers[e.Router]; ok {
			if cfg := r.State.Neighbors[e.Neighbor]; cfg != nil {
				cfg.LoadBalancing = e.Enabled
			}
		}
	}
}

func (n *Network) applyRemove(e model.ConfigExpr) {
	switch e.Kind {
	case model.ExprIgpLinkWeight, model.ExprOspfArea:
		n.topo.RemoveLink(e.Router, e.Peer)
		n.recomputeOspf()
	case model.ExprBgpSession:
		r, ok := n.routers[e.Router]
		if !ok {
			return
		}
		events, _ := r.HandleSessionTerminate(e.Neighbor)
		n.enqueueAll(e.Router, events)
	case model.ExprBgpRouteMap:
		r, ok := n.routers[e.Router]
		if !ok {
			return
		}
		events, _ := r.SetRouteMap(e.Neighbor, e.RouteMapDirection, nil)
		n.enqueueAll(e.Router, events)
	case model.ExprStaticRoute:
		if r, ok := n.routers[e.Router]; ok {
			delete(r.State.StaticRoutes, e.Prefix)
		}
	case model.ExprLoadBalancing:
		if r, ok := n.routers[e.Router]; ok {
			if cfg := r.State.Neighbors[e.Neighbor]; cfg != nil {
				cfg.LoadBalancing = false
			}
		}
	}
}

// applyUpdate handles a before/after pair sharing the same Key(). A BGP
// session attribute change is modeled as a full bounce (terminate then
// re-establish under the new configuration) so every attribute — kind,
// next-hop-self, community policy — takes effect uniformly rather than
// needing a bespoke incremental path per field.
func (n *Network) applyUpdate(_, to model.ConfigExpr) {
	switch to.Kind {
	case model.ExprIgpLinkWeight:
		area := model.Backbone
		if existing, ok := n.topo.Edge(to.Router, to.Peer); ok {
			area = existing.Area
		}
		n.topo.AddLink(to.Router, to.Peer, to.Weight, area)
		n.recomputeOspf()
	case model.ExprOspfArea:
		weight := n.topo.Weight(to.Router, to.Peer)
		n.topo.AddLink(to.Router, to.Peer, weight, to.Area)
		n.recomputeOspf()
	case model.ExprBgpSession:
		r, ok := n.routers[to.Router]
		if !ok {
			return
		}
		events, _ := r.HandleSessionTerminate(to.Neighbor)
		n.enqueueAll(to.Router, events)
		r.State.SetNeighbor(to.Session)
		n.enqueueAll(to.Router, r.HandleSessionEstablish(to.Neighbor))
	case model.ExprBgpRouteMap:
		r, ok := n.routers[to.Router]
		if !ok {
			return
		}
		events, _ := r.SetRouteMap(to.Neighbor, to.RouteMapDirection, to.RouteMap)
		n.enqueueAll(to.Router, events)
	case model.ExprStaticRoute:
		if r, ok := n.routers[to.Router]; ok {
			r.State.StaticRoutes[to.Prefix] = to.StaticRoute
		}
	case model.ExprLoadBalancing:
		if r, ok := n.routers[to.Router]; ok {
			if cfg := r.State.Neighbors[to.Neighbor]; cfg != nil {
				cfg.LoadBalancing = to.Enabled
			}
		}
	}
}

// applyBatchRouteMapEdit rewrites one neighbor direction's route-map in
// one atomic step: every insert/remove/replace in mod.Updates is
// applied to a clone of the current map before the result is installed,
// so no partially edited map is ever visible to the decision process.
func (n *Network) applyBatchRouteMapEdit(mod model.ConfigModifier) {
	r, ok := n.routers[mod.Router]
	if !ok {
		return
	}
	cfg := r.State.Neighbors[mod.Neighbor]
	if cfg == nil {
		util.WithRouter(mod.Router.String()).WithField("neighbor", mod.Neighbor.String()).
			Warn("simnet: batch route-map edit against an unconfigured neighbor")
		return
	}

	var current *model.RouteMap
	if mod.Direction == model.RouteMapIn {
		current = cfg.InRoutes
	} else {
		current = cfg.OutRoutes
	}
	edited := cloneRouteMap(current, mod)

	events, _ := r.SetRouteMap(mod.Neighbor, mod.Direction, edited)
	n.enqueueAll(mod.Router, events)
}

func cloneRouteMap(current *model.RouteMap, mod model.ConfigModifier) *model.RouteMap {
	name := "edited"
	if current != nil {
		name = current.Name
	}
	out := model.NewRouteMap(name)
	if current != nil {
		for _, item := range current.Items {
			out.AddItem(item)
		}
	}
	for _, edit := range mod.Updates {
		switch edit.Kind {
		case model.EditInsertItem, model.EditReplaceItem:
			out.RemoveOrder(edit.Item.Order)
			out.AddItem(edit.Item)
		case model.EditRemoveItem:
			out.RemoveOrder(edit.Item.Order)
		}
	}
	return out
}
