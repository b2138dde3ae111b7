// Package fragmentation implements the combinatorial bond-cut fragmentation
// engine.  Given a molecule graph and the bonds a substructure matcher marked
// as cuttable, it enumerates valid simultaneous cuts, partitions the molecule
// into a core ("value") and one or more leaves ("keys"), and assembles
// canonically labelled fragment sets through a chemistry Toolkit.
//
// A Factory is bound to one molecule and is not safe for concurrent use.
package fragmentation

import (
	"fmt"

	"github.com/turtacn/MolFrag/pkg/errors"
)

// BondIdentifier names one bond to cut.  Start and End are the endpoint atom
// indices in the walking direction, Index is the graph bond index and
// FragIndex is the attachment-point index assigned during assembly (0 while
// unassigned).
type BondIdentifier struct {
	Start     int `json:"start"`
	End       int `json:"end"`
	Index     int `json:"index"`
	FragIndex int `json:"frag_index,omitempty"`
}

// NewBondIdentifier validates and constructs a BondIdentifier.
func NewBondIdentifier(start, end, index int) (BondIdentifier, error) {
	if start == end {
		return BondIdentifier{}, errors.Newf(errors.ErrCodeIllegalArgument,
			"bond %d: start and end atom must differ (both %d)", index, start)
	}
	if start < 0 || end < 0 || index < 0 {
		return BondIdentifier{}, errors.Newf(errors.ErrCodeIllegalArgument,
			"bond %d: negative atom or bond index (%d, %d)", index, start, end)
	}
	return BondIdentifier{Start: start, End: end, Index: index}, nil
}

// Reverse returns the same bond walked from the other end.
func (b BondIdentifier) Reverse() BondIdentifier {
	b.Start, b.End = b.End, b.Start
	return b
}

// WithFragIndex returns a copy carrying the given attachment index.
func (b BondIdentifier) WithFragIndex(idx int) BondIdentifier {
	b.FragIndex = idx
	return b
}

func (b BondIdentifier) lo() int {
	if b.Start < b.End {
		return b.Start
	}
	return b.End
}

func (b BondIdentifier) hi() int {
	if b.Start < b.End {
		return b.End
	}
	return b.Start
}

// Other returns the endpoint opposite to atom, or -1 when atom is not an
// endpoint of b.
func (b BondIdentifier) Other(atom int) int {
	switch atom {
	case b.Start:
		return b.End
	case b.End:
		return b.Start
	}
	return -1
}

// Same reports whether b and o denote the same bond regardless of direction
// and attachment index.
func (b BondIdentifier) Same(o BondIdentifier) bool {
	return b.Index == o.Index && b.lo() == o.lo() && b.hi() == o.hi()
}

// Compare orders bonds by lower endpoint, higher endpoint, then bond index.
// Direction and FragIndex do not take part.
func (b BondIdentifier) Compare(o BondIdentifier) int {
	switch {
	case b.lo() != o.lo():
		return cmpInt(b.lo(), o.lo())
	case b.hi() != o.hi():
		return cmpInt(b.hi(), o.hi())
	default:
		return cmpInt(b.Index, o.Index)
	}
}

func (b BondIdentifier) String() string {
	if b.FragIndex > 0 {
		return fmt.Sprintf("%d-%d#%d[%d]", b.Start, b.End, b.Index, b.FragIndex)
	}
	return fmt.Sprintf("%d-%d#%d", b.Start, b.End, b.Index)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// edge is a direction-free atom pair used to block cut bonds during walks.
type edge struct{ a, b int }

func edgeOf(x, y int) edge {
	if x > y {
		x, y = y, x
	}
	return edge{x, y}
}

//Personal.AI order the ending
