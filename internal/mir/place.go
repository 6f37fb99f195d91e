package mir

import (
	"fmt"
	"strings"
)

// ProjKind distinguishes the projection steps a Place can take.
type ProjKind uint8

const (
	ProjField ProjKind = iota
	ProjDeref
	ProjIndex
)

// Projection is one step from a local toward a sub-location.
type Projection struct {
	Kind  ProjKind
	Field uint32 // valid for ProjField
	Index Local  // valid for ProjIndex
}

func (p Projection) String() string {
	switch p.Kind {
	case ProjField:
		return fmt.Sprintf(".%d", p.Field)
	case ProjDeref:
		return ".*"
	case ProjIndex:
		return fmt.Sprintf("[%s]", p.Index)
	default:
		return ".?"
	}
}

// Place is an addressable location: a local slot plus a projection
// chain.
type Place struct {
	Local Local
	Proj  []Projection
}

// PlaceOf builds a bare local place.
func PlaceOf(l Local) Place {
	return Place{Local: l}
}

// Field extends the place with a field projection.
func (p Place) Field(index uint32) Place {
	return p.extend(Projection{Kind: ProjField, Field: index})
}

// Deref extends the place with a dereference projection.
func (p Place) Deref() Place {
	return p.extend(Projection{Kind: ProjDeref})
}

// Index extends the place with an array-index projection.
func (p Place) Index(l Local) Place {
	return p.extend(Projection{Kind: ProjIndex, Index: l})
}

func (p Place) extend(proj Projection) Place {
	chain := make([]Projection, len(p.Proj), len(p.Proj)+1)
	copy(chain, p.Proj)
	return Place{Local: p.Local, Proj: append(chain, proj)}
}

// IsLocal reports whether the place is a bare local with no
// projections.
func (p Place) IsLocal() bool {
	return len(p.Proj) == 0
}

func (p Place) String() string {
	var sb strings.Builder
	sb.WriteString(p.Local.String())
	for _, proj := range p.Proj {
		sb.WriteString(proj.String())
	}
	return sb.String()
}

// Equal reports exact equality of two places.
func (p Place) Equal(other Place) bool {
	if p.Local != other.Local || len(p.Proj) != len(other.Proj) {
		return false
	}
	for i := range p.Proj {
		if p.Proj[i] != other.Proj[i] {
			return false
		}
	}
	return true
}

// Overlaps reports whether two places can alias. Overlap is prefix
// comparison on the projection chains: _1.0 overlaps _1 and _1.0.2 but
// not _1.1. Index projections are treated conservatively as
// overlapping regardless of the index local.
func (p Place) Overlaps(other Place) bool {
	if p.Local != other.Local {
		return false
	}
	n := len(p.Proj)
	if len(other.Proj) < n {
		n = len(other.Proj)
	}
	for i := 0; i < n; i++ {
		a, b := p.Proj[i], other.Proj[i]
		if a.Kind != b.Kind {
			return false
		}
		switch a.Kind {
		case ProjField:
			if a.Field != b.Field {
				return false
			}
		case ProjIndex:
			// Distinct index locals may still hold equal values.
		}
	}
	return true
}
