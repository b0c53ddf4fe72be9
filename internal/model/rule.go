package model

import (
	"sort"
	"strings"
	"time"
)

// Action is the verdict a security rule applies to matched traffic.
type Action string

const (
	ActionAllow Action = "allow"
	ActionDeny  Action = "deny"
)

// Dimension names one of the six match-field sets on a rule.
type Dimension string

const (
	DimFromZones    Dimension = "fromZones"
	DimToZones      Dimension = "toZones"
	DimSources      Dimension = "sources"
	DimDestinations Dimension = "destinations"
	DimApplications Dimension = "applications"
	DimServices     Dimension = "services"
)

// Dimensions lists all match dimensions in canonical comparison order.
// Every analysis that walks dimensions uses this order so output is stable.
var Dimensions = []Dimension{
	DimFromZones,
	DimToZones,
	DimSources,
	DimDestinations,
	DimApplications,
	DimServices,
}

// FieldSet is one match dimension: either the wildcard ("matches anything")
// or a finite set of string tokens. A concrete FieldSet is never empty;
// the normalizer maps absent and empty inputs to the wildcard.
type FieldSet struct {
	Any    bool
	Tokens []string // sorted, de-duplicated; nil when Any
}

// Wildcard returns the universal field set.
func Wildcard() FieldSet {
	return FieldSet{Any: true}
}

// NewFieldSet builds a concrete field set from tokens, sorting and
// de-duplicating them. An empty token list yields the wildcard, because an
// empty concrete set would mean "matches nothing".
func NewFieldSet(tokens ...string) FieldSet {
	seen := make(map[string]bool, len(tokens))
	var out []string
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	if len(out) == 0 {
		return Wildcard()
	}
	sort.Strings(out)
	return FieldSet{Tokens: out}
}

// Superset reports whether f covers every token other could match.
// The wildcard is a superset of everything, including the wildcard itself;
// a concrete set is never a superset of the wildcard.
func (f FieldSet) Superset(other FieldSet) bool {
	if f.Any {
		return true
	}
	if other.Any {
		return false
	}
	for _, tok := range other.Tokens {
		if !f.contains(tok) {
			return false
		}
	}
	return true
}

// Intersects reports whether the two sets share any possible match.
func (f FieldSet) Intersects(other FieldSet) bool {
	if f.Any || other.Any {
		return true
	}
	for _, tok := range other.Tokens {
		if f.contains(tok) {
			return true
		}
	}
	return false
}

// Equal reports token-for-token equality; two wildcards are equal.
func (f FieldSet) Equal(other FieldSet) bool {
	if f.Any || other.Any {
		return f.Any == other.Any
	}
	if len(f.Tokens) != len(other.Tokens) {
		return false
	}
	for i, tok := range f.Tokens {
		if other.Tokens[i] != tok {
			return false
		}
	}
	return true
}

func (f FieldSet) contains(token string) bool {
	i := sort.SearchStrings(f.Tokens, token)
	return i < len(f.Tokens) && f.Tokens[i] == token
}

func (f FieldSet) String() string {
	if f.Any {
		return "any"
	}
	return strings.Join(f.Tokens, ", ")
}

// RuleRecord is the canonical form of one firewall security-policy entry.
// Records are immutable once produced by the normalizer; no analysis stage
// mutates or reorders them.
type RuleRecord struct {
	Name     string
	Position int // 1-based evaluation order, strictly increasing
	Action   Action
	Disabled bool

	FromZones    FieldSet
	ToZones      FieldSet
	Sources      FieldSet
	Destinations FieldSet
	Applications FieldSet
	Services     FieldSet

	Tags []string

	HitCount uint64
	LastHit  time.Time // zero when never hit or unknown
	Created  time.Time // zero when unknown
	Modified time.Time // zero when unknown

	// Carried through for reporting, never analyzed.
	LogSetting     string
	ProfileSetting string
}

// Field returns the match set for the named dimension.
func (r *RuleRecord) Field(d Dimension) FieldSet {
	switch d {
	case DimFromZones:
		return r.FromZones
	case DimToZones:
		return r.ToZones
	case DimSources:
		return r.Sources
	case DimDestinations:
		return r.Destinations
	case DimApplications:
		return r.Applications
	case DimServices:
		return r.Services
	}
	return Wildcard()
}
