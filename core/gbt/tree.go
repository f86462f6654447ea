package gbt

import "sort"

// Node is a single decision node. Leaves carry the output value; internal
// nodes route on x[Feature] <= Threshold.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Leaf      bool    `json:"leaf"`
	Value     float64 `json:"value"`
}

// Tree is a regression tree stored as a flat node array rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict walks the tree for one feature vector.
func (t Tree) Predict(x []float64) float64 {
	i := 0
	for !t.Nodes[i].Leaf {
		n := t.Nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.Nodes[i].Value
}

// splitResult captures the best split found for one node.
type splitResult struct {
	feature   int
	threshold float64
	gain      float64
	left      []int
	right     []int
}

type treeBuilder struct {
	xs       [][]float64
	grad     []float64
	params   Params
	gain     []float64
	splits   []int
	features int
}

// leafValue is the regularized mean of the gradients routed to a leaf.
func (b *treeBuilder) leafValue(idx []int) float64 {
	sum := 0.0
	for _, i := range idx {
		sum += b.grad[i]
	}
	return sum / (float64(len(idx)) + b.params.Lambda)
}

// score is the structure score used for split gain, analogous to the
// gradient-boosting objective with unit hessians.
func (b *treeBuilder) score(sum float64, n int) float64 {
	return sum * sum / (float64(n) + b.params.Lambda)
}

// bestSplit searches all features for the exact split maximizing gain.
func (b *treeBuilder) bestSplit(idx []int) (splitResult, bool) {
	parentSum := 0.0
	for _, i := range idx {
		parentSum += b.grad[i]
	}
	parentScore := b.score(parentSum, len(idx))

	best := splitResult{feature: -1}
	order := make([]int, len(idx))
	for f := 0; f < b.features; f++ {
		copy(order, idx)
		sort.Slice(order, func(a, c int) bool { return b.xs[order[a]][f] < b.xs[order[c]][f] })

		leftSum := 0.0
		for pos := 0; pos < len(order)-1; pos++ {
			leftSum += b.grad[order[pos]]
			cur, next := b.xs[order[pos]][f], b.xs[order[pos+1]][f]
			if cur == next {
				continue
			}
			nLeft := pos + 1
			nRight := len(order) - nLeft
			if nLeft < b.params.MinSamplesLeaf || nRight < b.params.MinSamplesLeaf {
				continue
			}
			gain := b.score(leftSum, nLeft) + b.score(parentSum-leftSum, nRight) - parentScore
			if gain > best.gain {
				best = splitResult{
					feature:   f,
					threshold: (cur + next) / 2,
					gain:      gain,
					left:      append([]int(nil), order[:nLeft]...),
					right:     append([]int(nil), order[nLeft:]...),
				}
			}
		}
	}
	return best, best.feature >= 0 && best.gain > 0
}

// grow builds the subtree for idx and returns its node index.
func (b *treeBuilder) grow(t *Tree, idx []int, depth int) int {
	if depth >= b.params.MaxDepth || len(idx) < 2*b.params.MinSamplesLeaf {
		return b.appendLeaf(t, idx)
	}
	split, ok := b.bestSplit(idx)
	if !ok {
		return b.appendLeaf(t, idx)
	}
	b.gain[split.feature] += split.gain
	b.splits[split.feature]++

	node := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{Feature: split.feature, Threshold: split.threshold})
	left := b.grow(t, split.left, depth+1)
	right := b.grow(t, split.right, depth+1)
	t.Nodes[node].Left = left
	t.Nodes[node].Right = right
	return node
}

func (b *treeBuilder) appendLeaf(t *Tree, idx []int) int {
	t.Nodes = append(t.Nodes, Node{Leaf: true, Value: b.leafValue(idx)})
	return len(t.Nodes) - 1
}

// growTree fits one regression tree to the gradients. Gains and split
// counts are accumulated into the provided importance slices.
func growTree(xs [][]float64, grad []float64, params Params, gain []float64, splits []int) Tree {
	b := &treeBuilder{xs: xs, grad: grad, params: params, gain: gain, splits: splits, features: len(xs[0])}
	var t Tree
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	b.grow(&t, idx, 0)
	return t
}
