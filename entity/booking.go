package entity

import (
	"sort"

	"github.com/samber/lo"
)

// BookingRequest is a proposed purchase: a quantity per tier, all tiers
// belonging to one event.
type BookingRequest struct {
	UserID     string
	EventID    string
	Selections map[string]int // tier id -> quantity
}

// TierIDs returns the selected tier ids in ascending order, which is also
// the global lock ordering used by the committer.
func (r BookingRequest) TierIDs() []string {
	ids := lo.Keys(r.Selections)
	sort.Strings(ids)
	return ids
}

func (r BookingRequest) TotalQuantity() int {
	return lo.Sum(lo.Values(r.Selections))
}
