// Package simnet is the event-driven BGP/OSPF network simulator: a
// single-threaded cooperative event queue, the convergence loop that
// drains it, and the config-modifier entry point that drives a network
// from one configuration to another one elementary edit at a time.
package simnet

import (
	"github.com/netreconf/bgpplan/pkg/bgprouter"
	"github.com/netreconf/bgpplan/pkg/forwarding"
	"github.com/netreconf/bgpplan/pkg/model"
	"github.com/netreconf/bgpplan/pkg/ospf"
	"github.com/netreconf/bgpplan/pkg/util"
)

// DefaultMaxSteps bounds the convergence loop absent an explicit
// override; a queue that has not drained after this many dequeues is
// presumed non-converging.
const DefaultMaxSteps = 100000

// Network owns the event queue, every router's control-plane state, and
// the topology OSPF is computed from. It is the only thing in this
// module that mutates router state; everything else operates on the
// events and summaries a Network produces.
type Network struct {
	topo      *model.Topology
	routers   map[model.RouterId]*bgprouter.Router
	externals map[model.RouterId]*model.ExternalRouterState
	queue     *Queue
	ospfState *ospf.State

	maxSteps int
	steps    int
}

// Build constructs an initial, converged Network: it wraps every
// internal router's state, computes OSPF, installs IGP state in every
// router, enqueues every externally-advertised route to its eBGP
// peers, and runs the convergence loop.
func Build(topo *model.Topology, states map[model.RouterId]*model.InternalRouterState, asOf map[model.RouterId]model.AsId, externals map[model.RouterId]*model.ExternalRouterState, queue *Queue) (*Network, error) {
	routers := make(map[model.RouterId]*bgprouter.Router, len(states))
	for id, st := range states {
		routers[id] = bgprouter.NewRouter(st, asOf[id])
	}
	n := &Network{
		topo:      topo,
		routers:   routers,
		externals: externals,
		queue:     queue,
		maxSteps:  DefaultMaxSteps,
	}
	n.recomputeOspf()

	for id, ext := range externals {
		for _, route := range ext.Advertised {
			for peer := range ext.EbgpPeers {
				n.queue.Push(Event{From: id, To: peer, Kind: EventBgpUpdate, Route: route})
			}
		}
	}

	if err := n.converge(); err != nil {
		return nil, err
	}
	return n, nil
}

// SetMaxSteps overrides the step budget the convergence loop honors
// before declaring NoConvergence.
func (n *Network) SetMaxSteps(max int) { n.maxSteps = max }

// Topology exposes the network's topology for inspection (OSPF
// recomputation callers, scenario loaders).
func (n *Network) Topology() *model.Topology { return n.topo }

// Router returns the control-plane state for an internal router.
func (n *Network) Router(id model.RouterId) (*bgprouter.Router, bool) {
	r, ok := n.routers[id]
	return r, ok
}

// OspfState exposes the network's current OSPF computation, so callers
// building a scheduler.Solve input don't need to recompute it from the
// topology themselves.
func (n *Network) OspfState() *ospf.State { return n.ospfState }

// Snapshot returns a deep copy of every internal router's state, for
// depanalysis.Snapshot comparisons across a configuration change.
func (n *Network) Snapshot() map[model.RouterId]*model.InternalRouterState {
	out := make(map[model.RouterId]*model.InternalRouterState, len(n.routers))
	for id, r := range n.routers {
		out[id] = r.State.Clone()
	}
	return out
}

func (n *Network) recomputeOspf() {
	n.ospfState = ospf.Compute(n.topo)
	for id, r := range n.routers {
		nextHops := make(map[model.RouterId][]model.RouterId)
		cost := make(map[model.RouterId]float64)
		for _, dst := range n.topo.InternalRouters() {
			if dst == id {
				continue
			}
			if hops, ok := n.ospfState.NextHops(id, dst); ok {
				nextHops[dst] = hops
				cost[dst] = n.ospfState.Cost(id, dst)
			}
		}
		events, _ := r.SetIgpState(nextHops, cost)
		n.enqueueAll(id, events)
	}
}

// enqueueAll pushes the events a router's method call returned onto the
// queue, addressed from that router (the sender) to whichever neighbor
// each event names.
func (n *Network) enqueueAll(from model.RouterId, events []bgprouter.Event) {
	for _, e := range events {
		switch e.Kind {
		case bgprouter.EventBgpUpdate:
			n.queue.Push(Event{From: from, To: e.To, Kind: EventBgpUpdate, Route: e.Route})
		case bgprouter.EventBgpWithdraw:
			n.queue.Push(Event{From: from, To: e.To, Kind: EventBgpWithdraw, Prefix: e.Prefix})
		}
	}
}

// converge drains the queue, delivering each event to its destination
// and re-enqueuing the events that delivery produces, until the queue
// empties or the step budget is exhausted.
func (n *Network) converge() error {
	for {
		e, ok := n.queue.Pop()
		if !ok {
			return nil
		}
		n.steps++
		if n.steps > n.maxSteps {
			return util.NewNoConvergenceError(n.steps, n.queue.Len()+1)
		}
		n.deliver(e)
	}
}

func (n *Network) deliver(e Event) {
	r, ok := n.routers[e.To]
	if !ok {
		// External destinations are pure originators; nothing
		// reactively updates them.
		return
	}
	log := util.WithRouter(e.To.String()).WithField("from", e.From.String())

	var events []bgprouter.Event
	switch e.Kind {
	case EventBgpUpdate:
		var summary bgprouter.StepSummary
		events, summary = r.HandleUpdate(e.From, e.Route)
		if summary.Changed {
			log.WithField("prefix", summary.Prefix.String()).Debug("simnet: forwarding next hop changed")
		}
	case EventBgpWithdraw:
		events, _ = r.HandleWithdraw(e.From, e.Prefix)
	case EventSessionEstablish:
		events = r.HandleSessionEstablish(e.From)
	case EventSessionTerminate:
		events, _ = r.HandleSessionTerminate(e.From)
	}
	n.enqueueAll(e.To, events)
}

// BgpStateEntry is one router's view of a prefix: the neighbor the
// selected route was learned from and the route itself.
type BgpStateEntry struct {
	BestNeighbor model.RouterId
	BestRoute    model.BgpRoute
}

// GetBgpState returns, for every internal router that has a selected
// route for prefix, the neighbor it was learned from and the route
// itself.
func (n *Network) GetBgpState(prefix model.Prefix) map[model.RouterId]BgpStateEntry {
	out := make(map[model.RouterId]BgpStateEntry)
	for id, r := range n.routers {
		sr, ok := r.State.SelectedRouteFor(prefix)
		if !ok {
			continue
		}
		out[id] = BgpStateEntry{BestNeighbor: sr.From, BestRoute: sr.Route}
	}
	return out
}

// GetForwardingState derives the current next-hop table for every
// internal router and every prefix that a static route or a selected
// BGP route covers at any internal router, per spec.md §4.4: a static
// route always wins; else the BGP-selected route's next hop is resolved
// through the IGP forwarding table; else the router gets an empty entry
// (a black hole). External routers get no entry, which path queries
// treat as traffic leaving the network.
func (n *Network) GetForwardingState() *forwarding.State {
	st := forwarding.NewState()
	prefixes := make(map[model.Prefix]struct{})
	for _, r := range n.routers {
		for prefix := range r.State.StaticRoutes {
			prefixes[prefix] = struct{}{}
		}
		for prefix := range r.State.Rib {
			prefixes[prefix] = struct{}{}
		}
	}
	for id, r := range n.routers {
		for prefix := range prefixes {
			if static, ok := r.State.StaticRoutes[prefix]; ok {
				st.Set(id, prefix, forwarding.ResolveStatic(static, r.GetIgpFwTable()))
				continue
			}
			sr, ok := r.State.Rib[prefix]
			if !ok {
				st.Set(id, prefix, nil)
				continue
			}
			hops := forwarding.ResolveStatic(model.StaticRoute{Kind: model.StaticIndirectNextHop, NextHop: sr.Route.NextHop}, r.GetIgpFwTable())
			if n.topo.IsExternal(sr.Route.NextHop) {
				hops = []model.RouterId{sr.Route.NextHop}
			}
			st.Set(id, prefix, hops)
		}
	}
	return st
}
