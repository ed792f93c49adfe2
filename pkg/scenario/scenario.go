// Package scenario loads YAML scenario files for the bgpplan CLI
// (`bgpplan <scenario> simulate|decompose|run` reads
// <scenarios_dir>/<scenario>.yaml): a topology, per-router BGP configuration,
// external advertisements, and an optional main configuration command,
// following the same end-to-end shape as spec.md §8's worked examples
// (Abilene route-reflection, the R1-R4 forwarding-change chain, the
// OSPF multi-area ring). It keeps the teacher's pkg/settings YAML
// loading idiom (gopkg.in/yaml.v3, LoadFrom).
package scenario

// Scenario is the top-level YAML document describing one network to
// build and, optionally, one reconfiguration to run against it.
type Scenario struct {
	Name string `yaml:"name"`

	// Invariant is a free-form rendering of the specification formula
	// this scenario is meant to check (e.g. "G(reach(r) & egress(r) in
	// {NewYork, Houston, Seattle})"), carried for documentation and CLI
	// display only: spec.md never defines a concrete surface grammar for
	// the LTL-like language of §4.7, so pkg/invariant.Expr values are
	// still built programmatically rather than parsed from this string.
	Invariant string `yaml:"invariant,omitempty"`

	Horizon           int `yaml:"horizon,omitempty"`
	TempSessionBudget int `yaml:"temp_session_budget,omitempty"`

	Routers   []RouterEntry   `yaml:"routers"`
	Externals []ExternalEntry `yaml:"externals,omitempty"`
	Links     []LinkEntry     `yaml:"links,omitempty"`

	MainCommand *ConfigModifierEntry `yaml:"main_command,omitempty"`
}

// RouterEntry describes one internal router.
type RouterEntry struct {
	Id   int    `yaml:"id"`
	Name string `yaml:"name"`
	As   uint32 `yaml:"as"`

	Neighbors    []NeighborEntry    `yaml:"neighbors,omitempty"`
	StaticRoutes []StaticRouteEntry `yaml:"static_routes,omitempty"`
}

// NeighborEntry describes one BGP session configured on a router.
type NeighborEntry struct {
	Neighbor      int    `yaml:"neighbor"`
	Kind          string `yaml:"kind"` // "ebgp", "ibgp", "ibgp-rr-client"
	NextHopSelf   bool   `yaml:"next_hop_self,omitempty"`
	LoadBalancing bool   `yaml:"load_balancing,omitempty"`
	SendCommunity bool   `yaml:"send_community,omitempty"`
}

// StaticRouteEntry describes one static route installed on a router.
type StaticRouteEntry struct {
	Prefix  string `yaml:"prefix"`
	Kind    string `yaml:"kind"` // "direct", "indirect", "black-hole"
	NextHop int    `yaml:"next_hop,omitempty"`
}

// ExternalEntry describes one external (non-AS-internal) router.
type ExternalEntry struct {
	Id        int          `yaml:"id"`
	Name      string       `yaml:"name"`
	EbgpPeers []int        `yaml:"ebgp_peers"`
	Advertise []RouteEntry `yaml:"advertise,omitempty"`
}

// RouteEntry describes one BGP route an external router advertises.
type RouteEntry struct {
	Prefix      string   `yaml:"prefix"`
	AsPath      []uint32 `yaml:"as_path,omitempty"`
	NextHop     int      `yaml:"next_hop,omitempty"`
	LocalPref   *int     `yaml:"local_pref,omitempty"`
	Med         *int     `yaml:"med,omitempty"`
	Communities []string `yaml:"communities,omitempty"`
}

// LinkEntry describes one OSPF-weighted link.
type LinkEntry struct {
	From          int     `yaml:"from"`
	To            int     `yaml:"to"`
	Weight        float64 `yaml:"weight"`
	Area          int     `yaml:"area,omitempty"`
	Bidirectional bool    `yaml:"bidirectional,omitempty"`
}

// ConfigModifierEntry describes one main reconfiguration command to
// apply after the scenario's initial network has converged.
type ConfigModifierEntry struct {
	Kind string `yaml:"kind"` // "insert", "remove"

	ExprKind string  `yaml:"expr_kind"` // "igp_link_weight", "bgp_session", "static_route"
	Router   int     `yaml:"router"`
	Peer     int     `yaml:"peer,omitempty"`
	Neighbor int     `yaml:"neighbor,omitempty"`
	Weight   float64 `yaml:"weight,omitempty"`
	Area     int     `yaml:"area,omitempty"`

	Session *NeighborEntry    `yaml:"session,omitempty"`
	Route   *StaticRouteEntry `yaml:"static_route,omitempty"`
}
