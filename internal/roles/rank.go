package roles

import "strconv"

// Rank is the coarse permission level carried by a role name claim.
type Rank int

const (
	Unknown Rank = iota
	Advisor
	Supervisor
	Manager
	Administrator
	Developer
)

var ranks = map[string]Rank{
	"Advisor":       Advisor,
	"Supervisor":    Supervisor,
	"Manager":       Manager,
	"Administrator": Administrator,
	"Developer":     Developer,
}

// FromName maps a role name to its rank. Names outside the table map to Unknown.
func FromName(name string) Rank {
	return ranks[name]
}

func (r Rank) String() string {
	for name, rank := range ranks {
		if rank == r {
			return name
		}
	}
	return "Unknown(" + strconv.Itoa(int(r)) + ")"
}

// Valid reports whether r is one of the known ranks.
func (r Rank) Valid() bool {
	return r >= Advisor && r <= Developer
}

// FromInts converts configured rank numbers, dropping anything outside 1..5.
func FromInts(values []int) []Rank {
	out := make([]Rank, 0, len(values))
	for _, v := range values {
		if r := Rank(v); r.Valid() {
			out = append(out, r)
		}
	}
	return out
}
