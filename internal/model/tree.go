package model

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// regression tree grown by recursive binary splitting on variance
// reduction. Shared by the forest (bagged, feature-subsampled) and the
// booster (shallow, fitted to residuals).

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	leaf      bool
}

type treeParams struct {
	maxDepth    int // 0 means unlimited
	minNodeSize int
	mtry        int // candidate features per split; 0 means all
	rng         *rand.Rand
}

// growTree builds a tree over the rows referenced by idx. importance
// accumulates the SSE reduction of every accepted split per feature.
func growTree(x [][]float64, y []float64, idx []int, p treeParams, depth int, importance []float64) *treeNode {
	if len(idx) == 0 {
		return &treeNode{leaf: true}
	}

	mean, sse := meanSSE(y, idx)
	if len(idx) < 2*p.minNodeSize || sse == 0 ||
		(p.maxDepth > 0 && depth >= p.maxDepth) {
		return &treeNode{leaf: true, value: mean}
	}

	feature, threshold, gain := bestSplit(x, y, idx, p, sse)
	if feature < 0 {
		return &treeNode{leaf: true, value: mean}
	}
	if importance != nil {
		importance[feature] += gain
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      growTree(x, y, left, p, depth+1, importance),
		right:     growTree(x, y, right, p, depth+1, importance),
		value:     mean,
	}
}

// bestSplit scans the candidate features for the split with the largest
// SSE reduction. Returns feature -1 when no split beats the parent.
func bestSplit(x [][]float64, y []float64, idx []int, p treeParams, parentSSE float64) (int, float64, float64) {
	nFeatures := len(x[idx[0]])
	candidates := candidateFeatures(nFeatures, p)

	bestFeature := -1
	bestThreshold := 0.0
	bestSSE := parentSSE

	order := make([]int, len(idx))
	for _, f := range candidates {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return x[order[a]][f] < x[order[b]][f] })

		// prefix sums over the sorted order let every cut be scored in
		// one pass
		var sumLeft, sqLeft float64
		sumTotal, sqTotal := 0.0, 0.0
		for _, i := range order {
			sumTotal += y[i]
			sqTotal += y[i] * y[i]
		}

		n := len(order)
		for k := 0; k < n-1; k++ {
			i := order[k]
			sumLeft += y[i]
			sqLeft += y[i] * y[i]

			if x[order[k]][f] == x[order[k+1]][f] {
				continue // cannot cut between equal values
			}
			nl, nr := float64(k+1), float64(n-k-1)
			if int(nl) < p.minNodeSize || int(nr) < p.minNodeSize {
				continue
			}

			sseLeft := sqLeft - sumLeft*sumLeft/nl
			sumRight := sumTotal - sumLeft
			sseRight := (sqTotal - sqLeft) - sumRight*sumRight/nr

			if total := sseLeft + sseRight; total < bestSSE {
				bestSSE = total
				bestFeature = f
				bestThreshold = (x[order[k]][f] + x[order[k+1]][f]) / 2
			}
		}
	}

	if bestFeature < 0 {
		return -1, 0, 0
	}
	return bestFeature, bestThreshold, parentSSE - bestSSE
}

func candidateFeatures(nFeatures int, p treeParams) []int {
	all := make([]int, nFeatures)
	for i := range all {
		all[i] = i
	}
	if p.mtry <= 0 || p.mtry >= nFeatures || p.rng == nil {
		return all
	}
	p.rng.Shuffle(nFeatures, func(i, j int) { all[i], all[j] = all[j], all[i] })
	picked := all[:p.mtry]
	sort.Ints(picked)
	return picked
}

func meanSSE(y []float64, idx []int) (float64, float64) {
	var sum, sq float64
	for _, i := range idx {
		sum += y[i]
		sq += y[i] * y[i]
	}
	n := float64(len(idx))
	mean := sum / n
	return mean, sq - sum*sum/n
}

func (t *treeNode) predict(row []float64) float64 {
	node := t
	for !node.leaf {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

// denseRows converts a design matrix into row-major feature vectors
func denseRows(x *mat.Dense) [][]float64 {
	n, p := x.Dims()
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, p)
		mat.Row(row, i, x)
		rows[i] = row
	}
	return rows
}
