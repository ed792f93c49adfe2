package model

import (
	"regexp"
	"strconv"
	"sync"
)

// MatchMode is the permit/deny verdict of a route-map item when its
// conditions are satisfied.
type MatchMode int

const (
	Permit MatchMode = iota
	Deny
)

func (m MatchMode) String() string {
	if m == Deny {
		return "deny"
	}
	return "permit"
}

// Disposition tells the route-map engine what to do after an item's
// conditions match: stop evaluating further items (Exit), move to the
// next item in order (Continue), or jump to a specific order (GotoOrder).
type Disposition struct {
	Exit     bool
	Continue bool
	GotoN    *int
}

// ExitDisposition stops evaluation after this item.
func ExitDisposition() Disposition { return Disposition{Exit: true} }

// ContinueDisposition moves to the next item in order after this item.
func ContinueDisposition() Disposition { return Disposition{Continue: true} }

// GotoDisposition jumps evaluation to the item whose Order equals n.
func GotoDisposition(n int) Disposition { return Disposition{GotoN: &n} }

// Match is a single condition a route must satisfy for a RouteMapItem
// to apply. A zero-value Match (all fields nil/empty) always matches.
type Match struct {
	Prefixes       []Prefix // route's prefix must be one of these, if non-empty
	Communities    []string // route must carry all of these communities, if non-empty
	AsPathRegexp   string   // matched against the AS-path rendered leftmost AS first as space-separated decimal, if non-empty
	NextHopPrefixes []Prefix // route's next hop, reinterpreted as a prefix match set, if non-empty
}

// Action is a single route-attribute modification applied when a
// RouteMapItem's conditions match and its mode is Permit.
type Action struct {
	SetLocalPref    *int
	SetMed          *int
	SetWeight       *int
	SetNextHop      *RouterId
	AddCommunity    []string
	DeleteCommunity []string
	PrependAsPath   []AsId
}

// RouteMapItem is one ordered entry of a RouteMap.
type RouteMapItem struct {
	Order       int
	Mode        MatchMode
	Match       Match
	Action      Action
	Disposition Disposition
}

// RouteMap is an ordered list of RouteMapItems, identified by name and
// applied to a BgpRoute in ascending Order.
type RouteMap struct {
	Name  string
	Items []RouteMapItem
}

// NewRouteMap returns an empty, named route-map.
func NewRouteMap(name string) *RouteMap {
	return &RouteMap{Name: name}
}

// AddItem inserts item into the map, keeping Items sorted by Order.
func (rm *RouteMap) AddItem(item RouteMapItem) {
	i := 0
	for i < len(rm.Items) && rm.Items[i].Order < item.Order {
		i++
	}
	rm.Items = append(rm.Items, RouteMapItem{})
	copy(rm.Items[i+1:], rm.Items[i:])
	rm.Items[i] = item
}

// RemoveOrder deletes the item with the given Order, if present.
func (rm *RouteMap) RemoveOrder(order int) {
	for i, item := range rm.Items {
		if item.Order == order {
			rm.Items = append(rm.Items[:i], rm.Items[i+1:]...)
			return
		}
	}
}

func matchesRoute(m Match, r BgpRoute) bool {
	if len(m.Prefixes) > 0 {
		found := false
		for _, p := range m.Prefixes {
			if p == r.Prefix {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(m.Communities) > 0 {
		have := make(map[string]struct{}, len(r.Communities))
		for _, c := range r.Communities {
			have[c] = struct{}{}
		}
		for _, want := range m.Communities {
			if _, ok := have[want]; !ok {
				return false
			}
		}
	}
	if m.AsPathRegexp != "" {
		if !matchAsPathRegexp(m.AsPathRegexp, r.AsPath) {
			return false
		}
	}
	if len(m.NextHopPrefixes) > 0 {
		found := false
		for _, p := range m.NextHopPrefixes {
			if p.Kind() == PrefixSet && p.SetID() == int(r.NextHop) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

var (
	asPathRegexpCacheMu sync.Mutex
	asPathRegexpCache   = map[string]*regexp.Regexp{}
)

// compileAsPathRegexp compiles and caches the regexp used to match a
// rendered AS-path. Patterns come from route-map configuration, which
// churns far less often than routes flow through Apply.
func compileAsPathRegexp(pattern string) *regexp.Regexp {
	asPathRegexpCacheMu.Lock()
	defer asPathRegexpCacheMu.Unlock()
	if re, ok := asPathRegexpCache[pattern]; ok {
		return re
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		// An unparseable pattern never matches rather than panicking
		// mid route-map evaluation.
		re = regexp.MustCompile(`$^`)
	}
	asPathRegexpCache[pattern] = re
	return re
}

func matchAsPathRegexp(pattern string, path []AsId) bool {
	rendered := renderAsPath(path)
	re := compileAsPathRegexp(pattern)
	return re.MatchString(rendered)
}

func renderAsPath(path []AsId) string {
	out := ""
	for i := len(path) - 1; i >= 0; i-- {
		if i < len(path)-1 {
			out += " "
		}
		out += strconv.FormatUint(uint64(path[i]), 10)
	}
	return out
}

func applyAction(a Action, r BgpRoute) BgpRoute {
	out := r.Clone()
	if a.SetLocalPref != nil {
		v := *a.SetLocalPref
		out.LocalPref = &v
	}
	if a.SetMed != nil {
		v := *a.SetMed
		out.Med = &v
	}
	if a.SetWeight != nil {
		out.Weight = *a.SetWeight
	}
	if a.SetNextHop != nil {
		out.NextHop = *a.SetNextHop
	}
	if len(a.DeleteCommunity) > 0 {
		del := make(map[string]struct{}, len(a.DeleteCommunity))
		for _, c := range a.DeleteCommunity {
			del[c] = struct{}{}
		}
		kept := out.Communities[:0:0]
		for _, c := range out.Communities {
			if _, drop := del[c]; !drop {
				kept = append(kept, c)
			}
		}
		out.Communities = kept
	}
	for _, c := range a.AddCommunity {
		out.Communities = append(out.Communities, c)
	}
	for _, as := range a.PrependAsPath {
		out.AsPath = append(out.AsPath, as)
	}
	return out
}

// Apply runs the route through the map in order and returns the
// resulting route and whether it was permitted. A route rejected by a
// Deny item is returned unmodified with matched=false. A route that
// falls off the end of the list is permitted (matched=true), carrying
// whatever actions the items it matched along the way applied.
func (rm *RouteMap) Apply(r BgpRoute) (result BgpRoute, matched bool) {
	if rm == nil || len(rm.Items) == 0 {
		return r, true
	}
	current := r
	idx := 0
	for idx < len(rm.Items) {
		item := rm.Items[idx]
		if !matchesRoute(item.Match, current) {
			idx++
			continue
		}
		if item.Mode == Deny {
			return r, false
		}
		current = applyAction(item.Action, current)
		switch {
		case item.Disposition.GotoN != nil:
			target := *item.Disposition.GotoN
			next := indexOfOrder(rm.Items, target)
			if next < 0 {
				return current, true
			}
			idx = next
		case item.Disposition.Continue:
			idx++
		default: // Exit, or zero-value disposition
			return current, true
		}
	}
	return current, true
}

func indexOfOrder(items []RouteMapItem, order int) int {
	for i, item := range items {
		if item.Order == order {
			return i
		}
	}
	return -1
}
