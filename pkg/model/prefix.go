package model

import (
	"fmt"
	"net/netip"
)

// PrefixKind selects which of the three interchangeable Prefix
// representations a run uses. A single simulation run fixes one kind;
// mixing kinds within a run is a programming error, not a runtime one.
type PrefixKind int

const (
	// PrefixGlobal models a single, unnamed destination prefix — the
	// whole simulation concerns exactly one piece of address space.
	PrefixGlobal PrefixKind = iota
	// PrefixSet models a small, enumerated set of disjoint prefixes,
	// identified by a dense integer id.
	PrefixSet
	// PrefixIPv4 models arbitrary IPv4 CIDR prefixes.
	PrefixIPv4
)

func (k PrefixKind) String() string {
	switch k {
	case PrefixGlobal:
		return "global"
	case PrefixSet:
		return "set"
	case PrefixIPv4:
		return "ipv4"
	default:
		return "unknown"
	}
}

// Prefix is a value-typed address prefix. It is comparable and orderable
// regardless of which PrefixKind backs it, so it can be used directly as
// a map key and sorted for deterministic iteration.
type Prefix struct {
	kind PrefixKind
	id   int
	ipv4 netip.Prefix
}

// GlobalPrefix returns the single prefix value used by PrefixGlobal runs.
func GlobalPrefix() Prefix {
	return Prefix{kind: PrefixGlobal}
}

// SetPrefix returns the PrefixSet member identified by id.
func SetPrefix(id int) Prefix {
	return Prefix{kind: PrefixSet, id: id}
}

// IPv4PrefixFrom wraps a netip.Prefix as a PrefixIPv4 value. The prefix
// is normalized (masked) so that two netip.Prefix values describing the
// same network compare equal regardless of host bits in the input.
func IPv4PrefixFrom(p netip.Prefix) (Prefix, error) {
	if !p.Addr().Is4() {
		return Prefix{}, fmt.Errorf("model: prefix %s is not IPv4", p)
	}
	return Prefix{kind: PrefixIPv4, ipv4: p.Masked()}, nil
}

// MustIPv4Prefix parses s as a CIDR and wraps it, panicking on malformed
// input. Intended for test fixtures and literal network definitions.
func MustIPv4Prefix(s string) Prefix {
	p, err := netip.ParsePrefix(s)
	if err != nil {
		panic(err)
	}
	pfx, err := IPv4PrefixFrom(p)
	if err != nil {
		panic(err)
	}
	return pfx
}

// Kind reports which variant this Prefix was constructed as.
func (p Prefix) Kind() PrefixKind {
	return p.kind
}

// IsValid reports whether p is usable: an IPv4 prefix must wrap a
// valid netip.Prefix, while global and set prefixes are always valid.
// The zero Prefix{} equals GlobalPrefix() and is therefore valid.
func (p Prefix) IsValid() bool {
	if p.kind == PrefixIPv4 {
		return p.ipv4.IsValid()
	}
	return true
}

// IPv4 returns the underlying netip.Prefix. It panics if Kind() is not
// PrefixIPv4.
func (p Prefix) IPv4() netip.Prefix {
	if p.kind != PrefixIPv4 {
		panic("model: Prefix.IPv4 called on a non-IPv4 prefix")
	}
	return p.ipv4
}

// SetID returns the small-set identifier. It panics if Kind() is not
// PrefixSet.
func (p Prefix) SetID() int {
	if p.kind != PrefixSet {
		panic("model: Prefix.SetID called on a non-set prefix")
	}
	return p.id
}

// String renders the prefix for logs, tables and error messages.
func (p Prefix) String() string {
	switch p.kind {
	case PrefixGlobal:
		return "*"
	case PrefixSet:
		return fmt.Sprintf("P%d", p.id)
	case PrefixIPv4:
		return p.ipv4.String()
	default:
		return "<invalid-prefix>"
	}
}

// Less gives Prefix a deterministic total order, used when iteration
// order must not depend on map traversal order (schedules, JSON output,
// table printing).
func (p Prefix) Less(other Prefix) bool {
	if p.kind != other.kind {
		return p.kind < other.kind
	}
	switch p.kind {
	case PrefixGlobal:
		return false
	case PrefixSet:
		return p.id < other.id
	case PrefixIPv4:
		if p.ipv4.Bits() != other.ipv4.Bits() {
			return p.ipv4.Bits() < other.ipv4.Bits()
		}
		return p.ipv4.Addr().Less(other.ipv4.Addr())
	default:
		return false
	}
}

// MarshalJSON renders a Prefix as its string form for the wire format
// described for Network/Decomposition serialization.
func (p Prefix) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", p.String())), nil
}

// UnmarshalJSON parses a Prefix back from its string form. The kind is
// inferred from the shape of the string: "*" is global, "P<n>" is a set
// member, anything else is parsed as an IPv4 CIDR.
func (p *Prefix) UnmarshalJSON(data []byte) error {
	var s string
	if err := jsonUnquote(data, &s); err != nil {
		return err
	}
	switch {
	case s == "*":
		*p = GlobalPrefix()
		return nil
	case len(s) > 1 && s[0] == 'P':
		var id int
		if _, err := fmt.Sscanf(s, "P%d", &id); err != nil {
			return fmt.Errorf("model: invalid set prefix %q: %w", s, err)
		}
		*p = SetPrefix(id)
		return nil
	default:
		parsed, err := netip.ParsePrefix(s)
		if err != nil {
			return fmt.Errorf("model: invalid prefix %q: %w", s, err)
		}
		pfx, err := IPv4PrefixFrom(parsed)
		if err != nil {
			return err
		}
		*p = pfx
		return nil
	}
}

func jsonUnquote(data []byte, s *string) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("model: expected JSON string, got %s", data)
	}
	*s = string(data[1 : len(data)-1])
	return nil
}
