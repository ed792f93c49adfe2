package compiler

import (
	"fmt"
	"sort"

	"github.com/netreconf/bgpplan/pkg/depanalysis"
	"github.com/netreconf/bgpplan/pkg/model"
	"github.com/netreconf/bgpplan/pkg/scheduler"
	"github.com/netreconf/bgpplan/pkg/util"
)

// Input bundles everything Decompose needs: the main command, the
// before/after snapshots it reads old_neighbor/new_neighbor from, and
// the dependency analysis and schedule already computed per affected
// prefix.
type Input struct {
	Command    model.ConfigModifier
	Before     map[model.RouterId]*model.InternalRouterState
	After      map[model.RouterId]*model.InternalRouterState
	Deps       map[model.Prefix]depanalysis.Deps
	Schedules  map[model.Prefix]*scheduler.Schedule
	OldNextHop map[model.Prefix]map[model.RouterId]model.RouterId
	NewNextHop map[model.Prefix]map[model.RouterId]model.RouterId
}

// Decompose builds the full five-stage plan for in, per spec.md §4.8.
func Decompose(in Input) (*Decomposition, error) {
	if err := requireNoLoadBalancing(in.Before, in.After); err != nil {
		return nil, err
	}
	cmdRouters := mainCommandRouters(in.Command)
	if err := checkMainCommandConsistency(cmdRouters, in.Schedules); err != nil {
		return nil, err
	}

	d := &Decomposition{
		OriginalCommand: in.Command,
		BgpDeps:         in.Deps,
		Schedule:        in.Schedules,
		FwStateTrace:    make(map[model.Prefix][]scheduler.ForwardingChange),
		AtomicBefore:    make(map[model.Prefix][]Round),
		AtomicAfter:     make(map[model.Prefix][]Round),
		MainCommands:    []model.ConfigModifier{in.Command},
	}

	tempSessionsSetUp := make(map[[2]model.RouterId]struct{})

	var prefixes []model.Prefix
	for p := range in.Schedules {
		prefixes = append(prefixes, p)
	}
	sort.Slice(prefixes, func(i, j int) bool { return prefixes[i].String() < prefixes[j].String() })

	for pIdx, prefix := range prefixes {
		sched := in.Schedules[prefix]
		deps := in.Deps[prefix]
		oldNH := in.OldNextHop[prefix]
		newNH := in.NewNextHop[prefix]
		d.FwStateTrace[prefix] = sched.Trace(newNH)

		var routers []model.RouterId
		for r := range sched.Routers {
			routers = append(routers, r)
		}
		sort.Slice(routers, func(i, j int) bool { return routers[i] < routers[j] })

		beforeRounds := make(map[int]Round)
		afterRounds := make(map[int]Round)
		order := pinOrderFor(pIdx)

		for _, r := range routers {
			s := sched.Routers[r]
			oldNeighbor, haveOld := OldNeighbor(in.Before[r], deps, r, prefix)
			newNeighbor, _ := NewNeighbor(in.After[r], deps, r, prefix)
			oldEgress, haveOldEgress := oldNH[r]
			newEgress, haveNewEgress := newNH[r]

			if haveOld {
				d.SetupCommands = append(d.SetupCommands, changePreferenceCommand(r, prefix, oldNeighbor, order))
			}

			ensureTempSession := func(egress model.RouterId) error {
				key := tempKey(r, egress)
				if _, seen := tempSessionsSetUp[key]; seen {
					return nil
				}
				if st, ok := in.Before[r]; ok {
					if _, permanent := st.Neighbors[egress]; permanent {
						return util.NewDecompositionError(fmt.Sprintf("temporary session %s-%s already exists as a permanent neighbor", r, egress))
					}
				}
				tempSessionsSetUp[key] = struct{}{}
				d.SetupCommands = append(d.SetupCommands, addTempSessionCommand(r, egress))
				d.CleanupCommands = append(d.CleanupCommands, removeTempSessionCommand(r, egress))
				return nil
			}

			switch {
			case s.Old == s.Fw && s.Fw == s.New:
				addRound(afterRounds, s.Fw, changePreferenceCommand(r, prefix, newNeighbor, order))

			case s.Old < s.Fw && s.Fw == s.New:
				if haveOldEgress {
					if err := ensureTempSession(oldEgress); err != nil {
						return nil, err
					}
					addRound(beforeRounds, s.Old, useTempSessionCommand(r, oldEgress, prefix))
				}
				addRound(afterRounds, s.Fw, changePreferenceCommand(r, prefix, newNeighbor, order))
				if haveOldEgress {
					addRound(afterRounds, s.Fw, ignoreTempSessionCommand(r, oldEgress, prefix))
				}

			case s.Old == s.Fw && s.Fw < s.New:
				if haveNewEgress {
					if err := ensureTempSession(newEgress); err != nil {
						return nil, err
					}
					addRound(afterRounds, s.Fw, useTempSessionCommand(r, newEgress, prefix))
				}
				addRound(afterRounds, s.Fw, changePreferenceCommand(r, prefix, newNeighbor, order))
				if haveNewEgress {
					addRound(afterRounds, s.New, ignoreTempSessionCommand(r, newEgress, prefix))
				}

			case haveOldEgress && haveNewEgress && oldEgress == newEgress:
				if err := ensureTempSession(oldEgress); err != nil {
					return nil, err
				}
				addRound(beforeRounds, s.Old, useTempSessionCommand(r, oldEgress, prefix))
				addRound(afterRounds, s.Fw, changePreferenceCommand(r, prefix, newNeighbor, order))
				addRound(afterRounds, s.New, ignoreTempSessionCommand(r, oldEgress, prefix))

			default:
				if haveOldEgress {
					if err := ensureTempSession(oldEgress); err != nil {
						return nil, err
					}
					addRound(beforeRounds, s.Old, useTempSessionCommand(r, oldEgress, prefix))
				}
				if haveNewEgress {
					if err := ensureTempSession(newEgress); err != nil {
						return nil, err
					}
					addRound(afterRounds, s.Fw, useTempSessionCommand(r, newEgress, prefix))
				}
				if haveOldEgress {
					addRound(afterRounds, s.Fw, ignoreTempSessionCommand(r, oldEgress, prefix))
				}
				addRound(afterRounds, s.Fw, changePreferenceCommand(r, prefix, newNeighbor, order))
				if haveNewEgress {
					addRound(afterRounds, s.New, ignoreTempSessionCommand(r, newEgress, prefix))
				}
			}

			d.CleanupCommands = append(d.CleanupCommands, clearPreferenceCommand(r, prefix, order))
		}

		d.AtomicBefore[prefix] = roundsToSlice(beforeRounds)
		d.AtomicAfter[prefix] = roundsToSlice(afterRounds)
	}

	return d, nil
}

func addRound(rounds map[int]Round, round int, cmd AtomicCommand) {
	rounds[round] = append(rounds[round], cmd)
}

// roundsToSlice turns a sparse round->commands map into a dense,
// strictly-ordered slice of rounds: spec.md §5 requires stages'
// rounds be strictly ordered, so a round with no commands at some
// intermediate index still occupies its place.
func roundsToSlice(rounds map[int]Round) []Round {
	if len(rounds) == 0 {
		return nil
	}
	max := 0
	for k := range rounds {
		if k > max {
			max = k
		}
	}
	out := make([]Round, max+1)
	for k, r := range rounds {
		out[k] = r
	}
	return out
}

func tempKey(router, neighbor model.RouterId) [2]model.RouterId {
	return [2]model.RouterId{router, neighbor}
}

func mainCommandRouters(cmd model.ConfigModifier) []model.RouterId {
	switch cmd.Kind {
	case model.ModifierInsert, model.ModifierRemove:
		return []model.RouterId{cmd.Expr.Router}
	case model.ModifierUpdate:
		return []model.RouterId{cmd.From.Router}
	case model.ModifierBatchRouteMapEdit:
		return []model.RouterId{cmd.Router}
	default:
		return nil
	}
}

// checkMainCommandConsistency enforces spec.md §4.8's
// InconsistentMainCommandRound error: every prefix's schedule must
// agree on the main command's router(s) cutover round, and no such
// router may have r_old < r_new.
func checkMainCommandConsistency(cmdRouters []model.RouterId, schedules map[model.Prefix]*scheduler.Schedule) error {
	fw := make(map[model.RouterId]int)
	seen := make(map[model.RouterId]bool)
	for _, sched := range schedules {
		for _, r := range cmdRouters {
			s, ok := sched.Routers[r]
			if !ok {
				continue
			}
			if s.Old < s.New {
				return util.NewDecompositionError(fmt.Sprintf("InconsistentMainCommandRound: router %s has r_old < r_new", r))
			}
			if seen[r] && fw[r] != s.Fw {
				return util.NewDecompositionError(fmt.Sprintf("InconsistentMainCommandRound: router %s has inconsistent r_fw across prefixes", r))
			}
			fw[r] = s.Fw
			seen[r] = true
		}
	}
	return nil
}

// requireNoLoadBalancing rejects any router configured with ECMP load
// balancing in either snapshot: spec.md §4.8's LoadBalancingEnabled
// error.
func requireNoLoadBalancing(before, after map[model.RouterId]*model.InternalRouterState) error {
	for _, snapshot := range []map[model.RouterId]*model.InternalRouterState{before, after} {
		for r, state := range snapshot {
			if state == nil {
				continue
			}
			for _, n := range state.Neighbors {
				if n.LoadBalancing {
					return util.NewDecompositionError(fmt.Sprintf("LoadBalancingEnabled: router %s has ECMP load balancing enabled", r))
				}
			}
		}
	}
	return nil
}

func weightPtr(v int) *int { return &v }

func changePreferenceCommand(router model.RouterId, prefix model.Prefix, neighbor model.RouterId, order int) AtomicCommand {
	item := model.RouteMapItem{
		Order:       order,
		Mode:        model.Permit,
		Match:       model.Match{Prefixes: []model.Prefix{prefix}},
		Action:      model.Action{SetWeight: weightPtr(PrefWeight)},
		Disposition: model.ExitDisposition(),
	}
	raw := model.ConfigModifier{
		Kind:      model.ModifierBatchRouteMapEdit,
		Router:    router,
		Neighbor:  neighbor,
		Direction: model.RouteMapIn,
		Updates:   []model.RouteMapItemEdit{{Kind: model.EditReplaceItem, Item: item}},
	}
	w := PrefWeight
	return AtomicCommand{
		Command: AtomicModifier{
			Kind:        ModifierChangePreference,
			Router:      router,
			Neighbor:    neighbor,
			Prefix:      prefix,
			RawCommands: []model.ConfigModifier{raw},
		},
		Precondition: BgpSessionEstablished(router, neighbor),
		Postcondition: SelectedRoute(router, prefix, &neighbor, &w, nil),
	}
}

func clearPreferenceCommand(router model.RouterId, prefix model.Prefix, order int) AtomicCommand {
	raw := model.ConfigModifier{
		Kind:      model.ModifierBatchRouteMapEdit,
		Router:    router,
		Direction: model.RouteMapIn,
		Updates:   []model.RouteMapItemEdit{{Kind: model.EditRemoveItem, Item: model.RouteMapItem{Order: order}}},
	}
	return AtomicCommand{
		Command: AtomicModifier{
			Kind:        ModifierClearPreference,
			Router:      router,
			Prefix:      prefix,
			RawCommands: []model.ConfigModifier{raw},
		},
		Precondition:  None(),
		Postcondition: None(),
	}
}

func addTempSessionCommand(router, neighbor model.RouterId) AtomicCommand {
	session := model.InsertExpr(model.ConfigExpr{
		Kind:     model.ExprBgpSession,
		Router:   router,
		Neighbor: neighbor,
		Session:  model.NeighborConfig{Neighbor: neighbor, Kind: model.SessionIBGPPeer},
	})
	denyIn := model.InsertExpr(model.ConfigExpr{
		Kind:              model.ExprBgpRouteMap,
		Router:            router,
		Neighbor:          neighbor,
		RouteMapDirection: model.RouteMapIn,
		RouteMap:          denyAllRouteMap(),
	})
	return AtomicCommand{
		Command: AtomicModifier{
			Kind:        ModifierAddTempSession,
			Router:      router,
			Neighbor:    neighbor,
			RawCommands: []model.ConfigModifier{session, denyIn},
		},
		Precondition:  None(),
		Postcondition: BgpSessionEstablished(router, neighbor),
	}
}

func removeTempSessionCommand(router, neighbor model.RouterId) AtomicCommand {
	session := model.RemoveExpr(model.ConfigExpr{Kind: model.ExprBgpSession, Router: router, Neighbor: neighbor})
	return AtomicCommand{
		Command: AtomicModifier{
			Kind:        ModifierRemoveTempSession,
			Router:      router,
			Neighbor:    neighbor,
			RawCommands: []model.ConfigModifier{session},
		},
		Precondition:  None(),
		Postcondition: None(),
	}
}

func useTempSessionCommand(router, neighbor model.RouterId, prefix model.Prefix) AtomicCommand {
	item := model.RouteMapItem{
		Order:       TempSessionOrder,
		Mode:        model.Permit,
		Match:       model.Match{Prefixes: []model.Prefix{prefix}},
		Action:      model.Action{SetWeight: weightPtr(TempSessionWeight)},
		Disposition: model.ExitDisposition(),
	}
	raw := model.ConfigModifier{
		Kind:      model.ModifierBatchRouteMapEdit,
		Router:    router,
		Neighbor:  neighbor,
		Direction: model.RouteMapIn,
		Updates:   []model.RouteMapItemEdit{{Kind: model.EditInsertItem, Item: item}},
	}
	return AtomicCommand{
		Command: AtomicModifier{
			Kind:       ModifierUseTempSession,
			Router:     router,
			Neighbor:   neighbor,
			Prefix:     prefix,
			RawCommand: &raw,
		},
		Precondition:  BgpSessionEstablished(router, neighbor),
		Postcondition: None(),
	}
}

func ignoreTempSessionCommand(router, neighbor model.RouterId, prefix model.Prefix) AtomicCommand {
	raw := model.ConfigModifier{
		Kind:      model.ModifierBatchRouteMapEdit,
		Router:    router,
		Neighbor:  neighbor,
		Direction: model.RouteMapIn,
		Updates:   []model.RouteMapItemEdit{{Kind: model.EditRemoveItem, Item: model.RouteMapItem{Order: TempSessionOrder}}},
	}
	return AtomicCommand{
		Command: AtomicModifier{
			Kind:       ModifierIgnoreTempSession,
			Router:     router,
			Neighbor:   neighbor,
			Prefix:     prefix,
			RawCommand: &raw,
		},
		Precondition:  None(),
		Postcondition: None(),
	}
}

func denyAllRouteMap() *model.RouteMap {
	rm := model.NewRouteMap("temp-session-deny-all")
	rm.AddItem(model.RouteMapItem{Order: 0, Mode: model.Deny, Disposition: model.ExitDisposition()})
	return rm
}
