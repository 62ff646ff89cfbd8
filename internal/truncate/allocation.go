package truncate

import "math"

// Default band ratios. The core band receives the remainder.
const (
	DefaultHeaderRatio = 0.3
	DefaultFooterRatio = 0.1
)

// Allocation partitions a line budget into header, core and footer bands.
type Allocation struct {
	Header int
	Core   int
	Footer int
}

// Total returns the sum of the three bands.
func (a Allocation) Total() int {
	return a.Header + a.Core + a.Footer
}

// Allocate splits budget using the given ratios. Header and footer are
// floored; core takes what is left, so the bands always sum to budget.
// Ratios outside [0,1] or summing above 1 fall back to the defaults.
func Allocate(budget int, headerRatio, footerRatio float64) Allocation {
	if budget <= 0 {
		return Allocation{}
	}
	if headerRatio < 0 || footerRatio < 0 || headerRatio+footerRatio > 1 {
		headerRatio, footerRatio = DefaultHeaderRatio, DefaultFooterRatio
	}

	header := int(math.Floor(float64(budget) * headerRatio))
	footer := int(math.Floor(float64(budget) * footerRatio))
	return Allocation{
		Header: header,
		Core:   budget - header - footer,
		Footer: footer,
	}
}
