package gateway

import (
	"context"
	"sync"
)

// MembershipMock is an in-memory membership-eligibility predicate for tests.
type MembershipMock struct {
	mock sync.Mutex

	Members map[string]bool
}

func (c *MembershipMock) HasActiveMembership(ctx context.Context, userID string) (bool, error) {
	c.mock.Lock()
	defer c.mock.Unlock()

	if c.Members == nil {
		return false, nil
	}

	return c.Members[userID], nil
}
