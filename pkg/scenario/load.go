package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/netreconf/bgpplan/pkg/util"
)

// LoadFrom reads and parses a scenario file from path.
func LoadFrom(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := &Scenario{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("scenario: parsing %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("scenario: %s: %w", path, err)
	}
	return s, nil
}

// validate checks the structural invariants Build relies on: every
// neighbor, link, and peer reference resolves to a router or external
// declared in the same document. Every failure is collected rather than
// returned on first sight, so a malformed scenario reports its full set
// of problems in one pass instead of one fix-and-rerun cycle per error.
func (s *Scenario) validate() error {
	var b util.ValidationBuilder

	ids := make(map[int]bool, len(s.Routers)+len(s.Externals))
	for _, r := range s.Routers {
		if ids[r.Id] {
			b.AddErrorf("duplicate router id %d", r.Id)
		}
		ids[r.Id] = true
	}
	for _, e := range s.Externals {
		if ids[e.Id] {
			b.AddErrorf("duplicate router id %d", e.Id)
		}
		ids[e.Id] = true
	}

	known := func(id int) bool { return ids[id] }

	for _, r := range s.Routers {
		if err := util.ValidateASN(int(r.As)); err != nil {
			b.AddErrorf("router %d: %v", r.Id, err)
		}
		for _, n := range r.Neighbors {
			b.Add(known(n.Neighbor), fmt.Sprintf("router %d: neighbor %d is not declared", r.Id, n.Neighbor))
		}
	}
	for _, e := range s.Externals {
		for _, peer := range e.EbgpPeers {
			b.Add(known(peer), fmt.Sprintf("external %d: ebgp peer %d is not declared", e.Id, peer))
		}
		for _, route := range e.Advertise {
			for _, as := range route.AsPath {
				if err := util.ValidateASN(int(as)); err != nil {
					b.AddErrorf("external %d: route %s: %v", e.Id, route.Prefix, err)
				}
			}
		}
	}
	for _, l := range s.Links {
		b.Add(known(l.From), fmt.Sprintf("link: %d is not declared", l.From))
		b.Add(known(l.To), fmt.Sprintf("link: %d is not declared", l.To))
	}
	b.Add(len(s.Routers) > 0, "scenario declares no routers")

	return b.Build()
}
