package core

import (
	"math"
	"math/rand"
	"slices"
)

const leafFeature = -1

// treeNode is one node of a fitted tree. Leaves have Feature == leafFeature
// and carry class probabilities (classification) or a single mean
// (regression) in Value.
type treeNode struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     []float64
}

type decisionTree struct {
	Nodes []treeNode
}

func (t *decisionTree) leaf(x []float64) []float64 {
	node := t.Nodes[0]
	for node.Feature != leafFeature {
		if x[node.Feature] <= node.Threshold {
			node = t.Nodes[node.Left]
		} else {
			node = t.Nodes[node.Right]
		}
	}
	return node.Value
}

// treeBuilder grows a single CART tree. For classification y holds class
// indexes stored as floats.
type treeBuilder struct {
	x           [][]float64
	y           []float64
	nClasses    int
	maxFeatures int
	rng         *rand.Rand
	nodes       []treeNode
}

func (b *treeBuilder) build(samples []int) decisionTree {
	b.grow(samples)
	return decisionTree{Nodes: b.nodes}
}

func (b *treeBuilder) grow(samples []int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{Feature: leafFeature})

	if len(samples) < 2 || b.isPure(samples) {
		b.nodes[idx].Value = b.leafValue(samples)
		return idx
	}

	feature, threshold, ok := b.bestSplit(samples)
	if !ok {
		b.nodes[idx].Value = b.leafValue(samples)
		return idx
	}

	var left, right []int
	for _, s := range samples {
		if b.x[s][feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	if len(left) == 0 || len(right) == 0 {
		b.nodes[idx].Value = b.leafValue(samples)
		return idx
	}

	l := b.grow(left)
	r := b.grow(right)

	b.nodes[idx].Feature = feature
	b.nodes[idx].Threshold = threshold
	b.nodes[idx].Left = l
	b.nodes[idx].Right = r

	return idx
}

func (b *treeBuilder) isPure(samples []int) bool {
	first := b.y[samples[0]]
	for _, s := range samples[1:] {
		if b.y[s] != first {
			return false
		}
	}
	return true
}

func (b *treeBuilder) leafValue(samples []int) []float64 {
	if b.nClasses == 0 {
		sum := 0.0
		for _, s := range samples {
			sum += b.y[s]
		}
		return []float64{sum / float64(len(samples))}
	}

	probas := make([]float64, b.nClasses)
	for _, s := range samples {
		probas[int(b.y[s])]++
	}
	for i := range probas {
		probas[i] /= float64(len(samples))
	}
	return probas
}

// bestSplit searches a random subset of maxFeatures features for the
// threshold with the lowest weighted impurity.
func (b *treeBuilder) bestSplit(samples []int) (int, float64, bool) {
	nFeatures := len(b.x[0])
	candidates := b.rng.Perm(nFeatures)[:b.maxFeatures]

	parent := b.impurity(samples)
	bestScore := parent
	bestFeature, bestThreshold := -1, 0.0

	sorted := make([]int, len(samples))
	for _, f := range candidates {
		copy(sorted, samples)
		slices.SortFunc(sorted, func(i, j int) int {
			if b.x[i][f] < b.x[j][f] {
				return -1
			}
			if b.x[i][f] > b.x[j][f] {
				return 1
			}
			return i - j
		})

		score, threshold, ok := b.scanFeature(sorted, f)
		if ok && score < bestScore-1e-12 {
			bestScore, bestFeature, bestThreshold = score, f, threshold
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func (b *treeBuilder) scanFeature(sorted []int, f int) (float64, float64, bool) {
	n := len(sorted)
	best, threshold, found := math.Inf(1), 0.0, false

	if b.nClasses == 0 {
		var totalSum, totalSq float64
		for _, s := range sorted {
			totalSum += b.y[s]
			totalSq += b.y[s] * b.y[s]
		}

		var leftSum, leftSq float64
		for i := 0; i < n-1; i++ {
			v := b.y[sorted[i]]
			leftSum += v
			leftSq += v * v

			cur, next := b.x[sorted[i]][f], b.x[sorted[i+1]][f]
			if cur == next {
				continue
			}

			nl, nr := float64(i+1), float64(n-i-1)
			rightSum, rightSq := totalSum-leftSum, totalSq-leftSq
			score := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if score < best {
				best, threshold, found = score, midpoint(cur, next), true
			}
		}
		return best, threshold, found
	}

	total := make([]float64, b.nClasses)
	for _, s := range sorted {
		total[int(b.y[s])]++
	}

	left := make([]float64, b.nClasses)
	for i := 0; i < n-1; i++ {
		left[int(b.y[sorted[i]])]++

		cur, next := b.x[sorted[i]][f], b.x[sorted[i+1]][f]
		if cur == next {
			continue
		}

		nl, nr := float64(i+1), float64(n-i-1)
		var sqLeft, sqRight float64
		for c := range left {
			sqLeft += left[c] * left[c]
			r := total[c] - left[c]
			sqRight += r * r
		}
		score := (nl - sqLeft/nl) + (nr - sqRight/nr)
		if score < best {
			best, threshold, found = score, midpoint(cur, next), true
		}
	}
	return best, threshold, found
}

// impurity returns the node impurity scaled by the number of samples, so it
// is comparable with the scores returned by scanFeature.
func (b *treeBuilder) impurity(samples []int) float64 {
	n := float64(len(samples))

	if b.nClasses == 0 {
		var sum, sq float64
		for _, s := range samples {
			sum += b.y[s]
			sq += b.y[s] * b.y[s]
		}
		return sq - sum*sum/n
	}

	counts := make([]float64, b.nClasses)
	for _, s := range samples {
		counts[int(b.y[s])]++
	}
	var sq float64
	for _, c := range counts {
		sq += c * c
	}
	return n - sq/n
}

func midpoint(a, b float64) float64 {
	m := a + (b-a)/2
	if m >= b {
		return a
	}
	return m
}
