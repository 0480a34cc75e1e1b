package execution

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Guard applies fat-finger bounds to an order leg before it is signed and
// sent to a venue. It only rejects legs a correct strategy should never
// produce; it is not a position or exposure risk engine.
type Guard struct {
	MaxSize decimal.Decimal
}

var (
	zero = decimal.Zero
	one  = decimal.NewFromInt(1)
)

// DefaultGuard matches a single live order leg to at most 10,000 shares,
// well above any signal the bundled strategy emits.
func DefaultGuard() Guard {
	return Guard{MaxSize: decimal.NewFromInt(10000)}
}

// Check rejects a leg whose price falls outside the valid (0, 1) probability
// range, or whose size is non-positive or exceeds MaxSize.
func (g Guard) Check(leg OrderLeg) error {
	if leg.Price.LessThanOrEqual(zero) || leg.Price.GreaterThanOrEqual(one) {
		return fmt.Errorf("price %s outside (0, 1)", leg.Price.String())
	}
	if leg.Size.LessThanOrEqual(zero) {
		return fmt.Errorf("size %s is not positive", leg.Size.String())
	}
	if !g.MaxSize.IsZero() && leg.Size.GreaterThan(g.MaxSize) {
		return fmt.Errorf("size %s exceeds max leg size %s", leg.Size.String(), g.MaxSize.String())
	}
	return nil
}
