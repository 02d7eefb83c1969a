package regressor

import (
	"math"
	"math/rand"
	"sort"
)

const leaf = -1

// node is one entry of a flattened regression tree. Leaves have Feature == leaf.
type node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

func (t *tree) predict(row []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature == leaf {
			return n.Value
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

type treeParams struct {
	maxDepth            int // 0 is unlimited
	minSamplesSplit     int
	minSamplesLeaf      int
	maxFeatures         int
	minImpurityDecrease float64
	totalSamples        int
}

type treeBuilder struct {
	params treeParams
	X      [][]float64
	y      []float64
	rng    *rand.Rand
	nodes  []node
}

// growTree fits a variance-reduction CART tree on the rows listed in samples.
func growTree(X [][]float64, y []float64, samples []int, params treeParams, rng *rand.Rand) *tree {
	b := &treeBuilder{params: params, X: X, y: y, rng: rng}
	b.grow(samples, 0)
	return &tree{Nodes: b.nodes}
}

func (b *treeBuilder) grow(samples []int, depth int) int {
	idx := len(b.nodes)
	mean, sse := meanSSE(b.y, samples)
	b.nodes = append(b.nodes, node{Feature: leaf, Value: mean})

	n := len(samples)
	if (b.params.maxDepth > 0 && depth >= b.params.maxDepth) ||
		n < b.params.minSamplesSplit ||
		n < 2*b.params.minSamplesLeaf ||
		sse <= 0 {
		return idx
	}

	feature, threshold, childSSE, ok := b.bestSplit(samples)
	if !ok {
		return idx
	}

	decrease := (sse - childSSE) / float64(b.params.totalSamples)
	if decrease < b.params.minImpurityDecrease {
		return idx
	}

	left := make([]int, 0, n)
	right := make([]int, 0, n)
	for _, s := range samples {
		if b.X[s][feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return idx
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx] = node{Feature: feature, Threshold: threshold, Left: l, Right: r, Value: mean}
	return idx
}

// bestSplit scans a random subset of features for the threshold minimizing the children's summed SSE.
func (b *treeBuilder) bestSplit(samples []int) (feature int, threshold float64, bestSSE float64, ok bool) {
	nFeatures := len(b.X[samples[0]])
	candidates := b.rng.Perm(nFeatures)[:b.params.maxFeatures]

	n := len(samples)
	sorted := make([]int, n)
	bestSSE = math.Inf(1)

	for _, f := range candidates {
		copy(sorted, samples)
		sort.Slice(sorted, func(i, j int) bool {
			return b.X[sorted[i]][f] < b.X[sorted[j]][f]
		})

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

			nl := i + 1
			nr := n - nl
			if nl < b.params.minSamplesLeaf || nr < b.params.minSamplesLeaf {
				continue
			}

			cur, next := b.X[sorted[i]][f], b.X[sorted[i+1]][f]
			if cur == next {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))
			if sse < bestSSE {
				bestSSE = sse
				feature = f
				threshold = (cur + next) / 2
				ok = true
			}
		}
	}
	return feature, threshold, bestSSE, ok
}

func meanSSE(y []float64, samples []int) (float64, float64) {
	if len(samples) == 0 {
		return 0, 0
	}

	var sum float64
	for _, s := range samples {
		sum += y[s]
	}
	mean := sum / float64(len(samples))

	var sse float64
	for _, s := range samples {
		d := y[s] - mean
		sse += d * d
	}
	return mean, sse
}
