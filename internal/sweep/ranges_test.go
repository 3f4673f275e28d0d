package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateIntRange(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name           string
		min, max, step int
		want           []int
	}{
		{"inclusive", 0, 10, 5, []int{0, 5, 10}},
		{"step_overshoots_max", 0, 9, 5, []int{0, 5}},
		{"single", 3, 3, 1, []int{3}},
		{"negative", -90, 90, 90, []int{-90, 0, 90}},
		{"reversed", 5, 1, 1, nil},
		{"zero_step", 0, 5, 0, nil},
		{"too_many", 0, maxValues + 1, 1, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, GenerateIntRange(tc.min, tc.max, tc.step))
		})
	}
}

func TestProduct(t *testing.T) {
	t.Parallel()

	got, err := Product([]int{1, 2}, []int{10, 20, 30})
	require.NoError(t, err)
	assert.Equal(t, [][]int{
		{1, 10}, {1, 20}, {1, 30},
		{2, 10}, {2, 20}, {2, 30},
	}, got)

	got, err = Product([]int{1, 2}, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	big := GenerateIntRange(0, 999, 1)
	_, err = Product(big, big)
	assert.Error(t, err)
}
