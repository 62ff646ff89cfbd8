package truncate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocate(t *testing.T) {
	tests := []struct {
		name   string
		budget int
		want   Allocation
	}{
		{"ten", 10, Allocation{Header: 3, Core: 6, Footer: 1}},
		{"hundred", 100, Allocation{Header: 30, Core: 60, Footer: 10}},
		{"seven", 7, Allocation{Header: 2, Core: 5, Footer: 0}},
		{"one", 1, Allocation{Header: 0, Core: 1, Footer: 0}},
		{"zero", 0, Allocation{}},
		{"negative", -5, Allocation{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allocate(tt.budget, DefaultHeaderRatio, DefaultFooterRatio))
		})
	}
}

func TestAllocate_AlwaysPartitionsBudget(t *testing.T) {
	for budget := 1; budget <= 500; budget++ {
		a := Allocate(budget, DefaultHeaderRatio, DefaultFooterRatio)
		assert.Equal(t, budget, a.Total(), "budget %d", budget)
		assert.GreaterOrEqual(t, a.Header, 0)
		assert.GreaterOrEqual(t, a.Footer, 0)
		assert.GreaterOrEqual(t, a.Core, 0)
	}
}

func TestAllocate_InvalidRatiosUseDefaults(t *testing.T) {
	assert.Equal(t, Allocate(10, DefaultHeaderRatio, DefaultFooterRatio), Allocate(10, 0.8, 0.5))
	assert.Equal(t, Allocate(10, DefaultHeaderRatio, DefaultFooterRatio), Allocate(10, -1, 0.1))
}

func TestAllocate_CustomRatios(t *testing.T) {
	assert.Equal(t, Allocation{Header: 2, Core: 6, Footer: 2}, Allocate(10, 0.2, 0.2))
}
