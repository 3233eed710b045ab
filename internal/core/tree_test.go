package core

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeBuilder_UnsplittableThresholdBecomesLeaf(t *testing.T) {
	builder := treeBuilder{
		x:           [][]float64{{math.Inf(-1)}, {1}, {2}, {3}},
		y:           []float64{100, 200, 300, 400},
		maxFeatures: 1,
		rng:         rand.New(rand.NewSource(DefaultSeed)),
	}

	tree := builder.build([]int{0, 1, 2, 3})
	require.NotEmpty(t, tree.Nodes)

	for _, node := range tree.Nodes {
		if node.Feature == leafFeature {
			require.Len(t, node.Value, 1)
			assert.False(t, math.IsNaN(node.Value[0]))
		}
	}
}

func TestMidpoint(t *testing.T) {
	assert.Equal(t, 1.5, midpoint(1, 2))
	assert.Equal(t, 1.0, midpoint(1, math.Nextafter(1, 2)))
}
