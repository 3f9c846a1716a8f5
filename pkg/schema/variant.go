package schema

import "fmt"

// Variant selects rule sets by call direction and protocol. SideAll and APIAll
// are wildcards matching any concrete value in their slot.
type Variant struct {
	Side SpanSide
	API  APIKind
}

func NewVariant(side SpanSide, api APIKind) Variant {
	return Variant{Side: side, API: api}
}

func (v Variant) String() string {
	return fmt.Sprintf("%s/%s", v.Side, v.API)
}

func (v Variant) Valid() bool {
	return v.Side.Valid() && v.API.Valid()
}

// Concrete reports whether neither slot is a wildcard.
func (v Variant) Concrete() bool {
	return v.Side != SideAll && v.API != APIAll
}

// Matches reports whether the key v applies to the queried variant q.
func (v Variant) Matches(q Variant) bool {
	return (v.Side == SideAll || v.Side == q.Side) &&
		(v.API == APIAll || v.API == q.API)
}

// Tier classifies how specific a registered variant key is.
type Tier int

const (
	TierExact        Tier = iota // (side, api)
	TierAPIWildcard              // (side, ALL)
	TierSideWildcard             // (ALL, api)
	TierAllWildcard              // (ALL, ALL)
)

// DefaultPrecedence visits specific rule sets first and the catch-all last.
var DefaultPrecedence = []Tier{TierExact, TierAPIWildcard, TierSideWildcard, TierAllWildcard}

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierAPIWildcard:
		return "api-wildcard"
	case TierSideWildcard:
		return "side-wildcard"
	case TierAllWildcard:
		return "all-wildcard"
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

func (v Variant) Tier() Tier {
	switch {
	case v.Side == SideAll && v.API == APIAll:
		return TierAllWildcard
	case v.Side == SideAll:
		return TierSideWildcard
	case v.API == APIAll:
		return TierAPIWildcard
	}
	return TierExact
}
