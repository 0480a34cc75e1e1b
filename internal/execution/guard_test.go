package execution

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestGuard_AcceptsValidLeg(t *testing.T) {
	g := DefaultGuard()
	err := g.Check(OrderLeg{Price: decimal.NewFromFloat(0.5), Size: decimal.NewFromInt(10)})
	assert.NoError(t, err)
}

func TestGuard_RejectsPriceOutOfRange(t *testing.T) {
	g := DefaultGuard()
	assert.Error(t, g.Check(OrderLeg{Price: decimal.NewFromInt(0), Size: decimal.NewFromInt(10)}))
	assert.Error(t, g.Check(OrderLeg{Price: decimal.NewFromInt(1), Size: decimal.NewFromInt(10)}))
	assert.Error(t, g.Check(OrderLeg{Price: decimal.NewFromFloat(-0.1), Size: decimal.NewFromInt(10)}))
}

func TestGuard_RejectsNonPositiveSize(t *testing.T) {
	g := DefaultGuard()
	assert.Error(t, g.Check(OrderLeg{Price: decimal.NewFromFloat(0.5), Size: decimal.NewFromInt(0)}))
}

func TestGuard_RejectsOversizedLeg(t *testing.T) {
	g := Guard{MaxSize: decimal.NewFromInt(5)}
	assert.Error(t, g.Check(OrderLeg{Price: decimal.NewFromFloat(0.5), Size: decimal.NewFromInt(6)}))
}
