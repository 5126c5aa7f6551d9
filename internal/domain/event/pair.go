package event

import (
	"fmt"
	"strings"
)

// Pair is an ordered (earlier, later) pair of events whose elapsed days are
// measured.
type Pair struct {
	Earlier Type
	Later   Type
}

// NewPair validates both members.
func NewPair(earlier, later Type) (Pair, error) {
	if !earlier.Measurable() || !later.Measurable() {
		return Pair{}, unknown(fmt.Sprintf("%s:%s", earlier, later))
	}
	return Pair{Earlier: earlier, Later: later}, nil
}

// ParsePair parses "earlier:later".
func ParsePair(arg string) (Pair, error) {
	parts := strings.Split(arg, ":")
	if len(parts) != 2 {
		return Pair{}, unknown(arg)
	}
	earlier, ok1 := Lookup(parts[0])
	later, ok2 := Lookup(parts[1])
	if !ok1 || !ok2 || !earlier.Measurable() || !later.Measurable() {
		return Pair{}, unknown(arg)
	}
	return Pair{Earlier: earlier, Later: later}, nil
}

// ParsePairs parses every argument, failing on the first bad one.
func ParsePairs(args []string) ([]Pair, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: no event pairs", ErrNoPairs)
	}
	pairs := make([]Pair, 0, len(args))
	for _, arg := range args {
		p, err := ParsePair(arg)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// String renders the pair the way it is parsed, e.g. "admit:matric".
func (p Pair) String() string {
	return string(p.Earlier) + ":" + string(p.Later)
}

// Title renders the pair for humans, e.g. "Admit to Matric".
func (p Pair) Title() string {
	return p.Earlier.Label() + " to " + p.Later.Label()
}

// Reverse swaps the members.
func (p Pair) Reverse() Pair {
	return Pair{Earlier: p.Later, Later: p.Earlier}
}
