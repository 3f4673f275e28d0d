// Package sweep enumerates the snapshot configurations a generation run
// visits: inclusive integer ranges for yaw, roll, camera height and light
// energy, combined as a Cartesian product.
package sweep

import "fmt"

// maxValues bounds a single range; maxCombos bounds the product.
const (
	maxValues = 10000
	maxCombos = 100000
)

// GenerateIntRange returns min, min+step, ... up to and including max.
// It returns nil when min > max, step is not positive, or the range would
// exceed maxValues.
func GenerateIntRange(min, max, step int) []int {
	if step <= 0 || min > max {
		return nil
	}
	count := (max-min)/step + 1
	if count > maxValues || count < 0 {
		return nil
	}

	result := make([]int, 0, count)
	for v := min; v <= max; v += step {
		result = append(result, v)
	}
	return result
}

// Product returns the Cartesian product of dims. The last dimension varies
// fastest. An empty dimension yields an empty product.
func Product(dims ...[]int) ([][]int, error) {
	if len(dims) == 0 {
		return nil, nil
	}

	total := int64(1)
	for _, d := range dims {
		total *= int64(len(d))
		if total > maxCombos {
			return nil, fmt.Errorf("parameter combinations would exceed safe limit of %d", maxCombos)
		}
	}
	if total == 0 {
		return nil, nil
	}

	result := make([][]int, total)
	for i := range result {
		result[i] = make([]int, len(dims))
	}
	repeat := int64(1)
	for dim := len(dims) - 1; dim >= 0; dim-- {
		values := dims[dim]
		cycle := int64(len(values))
		for i := int64(0); i < total; i++ {
			result[i][dim] = values[(i/repeat)%cycle]
		}
		repeat *= cycle
	}
	return result, nil
}
