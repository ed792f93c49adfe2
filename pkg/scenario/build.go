package scenario

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/netreconf/bgpplan/pkg/model"
	"github.com/netreconf/bgpplan/pkg/simnet"
)

// Build constructs a converged Network from the scenario, following the
// same Build(topo, states, asOf, externals, queue) entry point a hand
// written test fixture would use.
func (s *Scenario) Build() (*simnet.Network, error) {
	topo := model.NewTopology()
	for _, r := range s.Routers {
		topo.AddRouter(model.RouterId(r.Id), r.Name)
	}
	for _, e := range s.Externals {
		topo.AddExternalRouter(model.RouterId(e.Id), e.Name)
	}
	for _, l := range s.Links {
		if err := topo.AddLink(model.RouterId(l.From), model.RouterId(l.To), l.Weight, model.OspfArea(l.Area)); err != nil {
			return nil, err
		}
		if l.Bidirectional {
			if err := topo.AddLink(model.RouterId(l.To), model.RouterId(l.From), l.Weight, model.OspfArea(l.Area)); err != nil {
				return nil, err
			}
		}
	}

	states := make(map[model.RouterId]*model.InternalRouterState, len(s.Routers))
	asOf := make(map[model.RouterId]model.AsId, len(s.Routers))
	for _, r := range s.Routers {
		id := model.RouterId(r.Id)
		st := model.NewInternalRouterState(id)
		for _, n := range r.Neighbors {
			kind, err := parseSessionKind(n.Kind)
			if err != nil {
				return nil, fmt.Errorf("router %d: %w", r.Id, err)
			}
			st.SetNeighbor(model.NeighborConfig{
				Neighbor:      model.RouterId(n.Neighbor),
				Kind:          kind,
				NextHopSelf:   n.NextHopSelf,
				LoadBalancing: n.LoadBalancing,
				SendCommunity: n.SendCommunity,
			})
		}
		for _, sr := range r.StaticRoutes {
			p, err := parsePrefix(sr.Prefix)
			if err != nil {
				return nil, fmt.Errorf("router %d: %w", r.Id, err)
			}
			kind, err := parseStaticRouteKind(sr.Kind)
			if err != nil {
				return nil, fmt.Errorf("router %d: %w", r.Id, err)
			}
			st.StaticRoutes[p] = model.StaticRoute{Kind: kind, NextHop: model.RouterId(sr.NextHop)}
		}
		states[id] = st
		asOf[id] = model.AsId(r.As)
	}

	externals := make(map[model.RouterId]*model.ExternalRouterState, len(s.Externals))
	for _, e := range s.Externals {
		id := model.RouterId(e.Id)
		ext := model.NewExternalRouterState(id)
		for _, peer := range e.EbgpPeers {
			ext.EbgpPeers[model.RouterId(peer)] = struct{}{}
		}
		for _, route := range e.Advertise {
			br, err := route.toBgpRoute()
			if err != nil {
				return nil, fmt.Errorf("external %d: %w", e.Id, err)
			}
			ext.Advertise(br)
		}
		externals[id] = ext
	}

	return simnet.Build(topo, states, asOf, externals, simnet.NewQueue(simnet.QueueFIFO, nil))
}

// MainConfigModifier translates the scenario's MainCommand entry, if
// any, into the model.ConfigModifier the compiler and controller
// operate on.
func (s *Scenario) MainConfigModifier() (model.ConfigModifier, bool, error) {
	if s.MainCommand == nil {
		return model.ConfigModifier{}, false, nil
	}
	c := s.MainCommand

	expr, err := c.toConfigExpr()
	if err != nil {
		return model.ConfigModifier{}, false, err
	}

	switch c.Kind {
	case "insert":
		return model.InsertExpr(expr), true, nil
	case "remove":
		return model.RemoveExpr(expr), true, nil
	default:
		return model.ConfigModifier{}, false, fmt.Errorf("scenario: unknown main_command kind %q", c.Kind)
	}
}

func (c *ConfigModifierEntry) toConfigExpr() (model.ConfigExpr, error) {
	switch c.ExprKind {
	case "igp_link_weight":
		return model.ConfigExpr{
			Kind:   model.ExprIgpLinkWeight,
			Router: model.RouterId(c.Router),
			Peer:   model.RouterId(c.Peer),
			Weight: c.Weight,
			Area:   model.OspfArea(c.Area),
		}, nil
	case "bgp_session":
		if c.Session == nil {
			return model.ConfigExpr{}, fmt.Errorf("main_command: bgp_session requires a session entry")
		}
		kind, err := parseSessionKind(c.Session.Kind)
		if err != nil {
			return model.ConfigExpr{}, err
		}
		return model.ConfigExpr{
			Kind:     model.ExprBgpSession,
			Router:   model.RouterId(c.Router),
			Neighbor: model.RouterId(c.Neighbor),
			Session: model.NeighborConfig{
				Neighbor:      model.RouterId(c.Session.Neighbor),
				Kind:          kind,
				NextHopSelf:   c.Session.NextHopSelf,
				LoadBalancing: c.Session.LoadBalancing,
				SendCommunity: c.Session.SendCommunity,
			},
		}, nil
	case "static_route":
		if c.Route == nil {
			return model.ConfigExpr{}, fmt.Errorf("main_command: static_route requires a static_route entry")
		}
		p, err := parsePrefix(c.Route.Prefix)
		if err != nil {
			return model.ConfigExpr{}, err
		}
		kind, err := parseStaticRouteKind(c.Route.Kind)
		if err != nil {
			return model.ConfigExpr{}, err
		}
		return model.ConfigExpr{
			Kind:        model.ExprStaticRoute,
			Router:      model.RouterId(c.Router),
			Prefix:      p,
			StaticRoute: model.StaticRoute{Kind: kind, NextHop: model.RouterId(c.Route.NextHop)},
		}, nil
	default:
		return model.ConfigExpr{}, fmt.Errorf("scenario: unknown main_command expr_kind %q", c.ExprKind)
	}
}

func (r RouteEntry) toBgpRoute() (model.BgpRoute, error) {
	p, err := parsePrefix(r.Prefix)
	if err != nil {
		return model.BgpRoute{}, err
	}
	asPath := make([]model.AsId, len(r.AsPath))
	for i, as := range r.AsPath {
		asPath[i] = model.AsId(as)
	}
	br := model.BgpRoute{
		Prefix:      p,
		AsPath:      asPath,
		NextHop:     model.RouterId(r.NextHop),
		Communities: append([]string(nil), r.Communities...),
	}
	if r.LocalPref != nil {
		v := *r.LocalPref
		br.LocalPref = &v
	}
	if r.Med != nil {
		v := *r.Med
		br.Med = &v
	}
	return br, nil
}

// parsePrefix accepts "global", "set:N", or an IPv4 CIDR literal.
func parsePrefix(s string) (model.Prefix, error) {
	switch {
	case s == "global":
		return model.GlobalPrefix(), nil
	case strings.HasPrefix(s, "set:"):
		n, err := strconv.Atoi(strings.TrimPrefix(s, "set:"))
		if err != nil {
			return model.Prefix{}, fmt.Errorf("scenario: invalid set prefix %q: %w", s, err)
		}
		return model.SetPrefix(n), nil
	default:
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return model.Prefix{}, fmt.Errorf("scenario: invalid prefix %q: %w", s, err)
		}
		return model.IPv4PrefixFrom(p)
	}
}

func parseSessionKind(s string) (model.SessionKind, error) {
	switch s {
	case "ebgp":
		return model.SessionEBGP, nil
	case "ibgp":
		return model.SessionIBGPPeer, nil
	case "ibgp-rr-client":
		return model.SessionIBGPRRClient, nil
	default:
		return 0, fmt.Errorf("scenario: unknown session kind %q", s)
	}
}

func parseStaticRouteKind(s string) (model.StaticRouteKind, error) {
	switch s {
	case "", "direct":
		return model.StaticDirectNeighbor, nil
	case "indirect":
		return model.StaticIndirectNextHop, nil
	case "black-hole":
		return model.StaticBlackHole, nil
	default:
		return 0, fmt.Errorf("scenario: unknown static route kind %q", s)
	}
}
