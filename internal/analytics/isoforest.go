package analytics

import (
	"math"
	"math/rand"
)

// isolationForest is a compact isolation forest: anomalous points are
// isolated by shorter random partition paths than normal points. Built
// with a fixed seed so scoring is deterministic across runs.
type isolationForest struct {
	trees      []*isoNode
	numTrees   int
	sampleSize int
	rng        *rand.Rand
}

type isoNode struct {
	left, right *isoNode
	splitAttr   int
	splitValue  float64
	size        int // external node: number of samples that ended here
}

func newIsolationForest(numTrees int, seed int64) *isolationForest {
	return &isolationForest{
		numTrees:   numTrees,
		sampleSize: 256,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

func (f *isolationForest) fit(data [][]float64) {
	n := len(data)
	if n == 0 {
		return
	}
	if f.sampleSize > n {
		f.sampleSize = n
	}
	sample := f.sampleSize
	heightLimit := int(math.Ceil(math.Log2(float64(sample))))

	f.trees = make([]*isoNode, f.numTrees)
	for i := 0; i < f.numTrees; i++ {
		sub := make([][]float64, sample)
		for j := range sub {
			sub[j] = data[f.rng.Intn(n)]
		}
		f.trees[i] = f.buildTree(sub, 0, heightLimit)
	}
}

func (f *isolationForest) buildTree(data [][]float64, depth, limit int) *isoNode {
	if depth >= limit || len(data) <= 1 {
		return &isoNode{size: len(data)}
	}

	attr := f.rng.Intn(len(data[0]))
	lo, hi := data[0][attr], data[0][attr]
	for _, row := range data {
		if row[attr] < lo {
			lo = row[attr]
		}
		if row[attr] > hi {
			hi = row[attr]
		}
	}
	if lo == hi {
		return &isoNode{size: len(data)}
	}

	split := lo + f.rng.Float64()*(hi-lo)
	var left, right [][]float64
	for _, row := range data {
		if row[attr] < split {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}

	return &isoNode{
		splitAttr:  attr,
		splitValue: split,
		left:       f.buildTree(left, depth+1, limit),
		right:      f.buildTree(right, depth+1, limit),
	}
}

// anomalyScore returns the standard isolation score in (0, 1]: values
// near 1 are anomalous, values near 0.5 and below are normal.
func (f *isolationForest) anomalyScore(point []float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}
	var sum float64
	for _, tree := range f.trees {
		sum += pathLength(tree, point, 0)
	}
	mean := sum / float64(len(f.trees))
	return math.Pow(2, -mean/avgPathLength(f.sampleSize))
}

func pathLength(node *isoNode, point []float64, depth float64) float64 {
	if node.left == nil && node.right == nil {
		return depth + avgPathLength(node.size)
	}
	if point[node.splitAttr] < node.splitValue {
		return pathLength(node.left, point, depth+1)
	}
	return pathLength(node.right, point, depth+1)
}

// avgPathLength is c(n), the expected path length of an unsuccessful BST
// search over n points; it normalizes tree depths.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	h := math.Log(float64(n-1)) + 0.5772156649 // harmonic number approximation
	return 2*h - 2*float64(n-1)/float64(n)
}
