package attack

import "math/big"

// Status classifies a decoded block.
type Status int

const (
	StatusUnresolved Status = iota // no candidate, emitted as '?'
	StatusUnique
	StatusAmbiguous
)

func (s Status) String() string {
	switch s {
	case StatusUnresolved:
		return "unresolved"
	case StatusUnique:
		return "unique"
	case StatusAmbiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

func statusOf(set CandidateSet) Status {
	switch {
	case len(set) == 0:
		return StatusUnresolved
	case set.Ambiguous():
		return StatusAmbiguous
	default:
		return StatusUnique
	}
}

// BlockResult records how one ciphertext block was decoded.
type BlockResult struct {
	Cipher     *big.Int
	Candidates CandidateSet
	Choice     rune
	Status     Status
}

// Result is the outcome of a statistical decode.
type Result struct {
	Text   string
	Blocks []BlockResult
}

// Unresolved returns the number of blocks with no candidate.
func (r Result) Unresolved() int { return r.count(StatusUnresolved) }

// Ambiguous returns the number of blocks with colliding candidates.
func (r Result) Ambiguous() int { return r.count(StatusAmbiguous) }

func (r Result) count(s Status) int {
	n := 0
	for _, b := range r.Blocks {
		if b.Status == s {
			n++
		}
	}
	return n
}
