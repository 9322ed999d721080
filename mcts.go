package vesper

import "math"

// MonteCarloNode is the tree-search contract spec §9's Open Question (i)
// asks to be specified and nothing more: "specify only the MonteCarloNode
// contract (prior, value=sum/visits, UCB-based child selection) and leave
// predictor details to implementers." The source's half-commented
// TreeSearch/ML-predictor scaffolding is deliberately not reproduced here —
// only the node bookkeeping a caller's own search loop and learned-prior
// predictor would sit on top of.
type MonteCarloNode struct {
	Prior    float64
	visits   int
	valueSum float64
	Children []*MonteCarloNode
}

// NewMonteCarloNode creates a leaf node with the given prior probability
// (as would come from a policy predictor; 0 if none is wired up).
func NewMonteCarloNode(prior float64) *MonteCarloNode {
	return &MonteCarloNode{Prior: prior}
}

// Visits returns the number of times this node has been selected during
// search.
func (n *MonteCarloNode) Visits() int { return n.visits }

// Value returns sum/visits — the node's mean backed-up value — or 0 for an
// unvisited node, per spec §9's contract.
func (n *MonteCarloNode) Value() float64 {
	if n.visits == 0 {
		return 0
	}
	return n.valueSum / float64(n.visits)
}

// Backpropagate records one simulation result at this node (adds to the
// running sum and increments the visit count).
func (n *MonteCarloNode) Backpropagate(value float64) {
	n.visits++
	n.valueSum += value
}

// UCB returns the upper-confidence-bound score used to select among
// siblings during tree descent: mean value plus an exploration term scaled
// by the prior and the parent's visit count (PUCT-style, the standard
// extension of UCB1 when a prior is available).
func (n *MonteCarloNode) UCB(parentVisits int, explorationConstant float64) float64 {
	exploration := explorationConstant * n.Prior * math.Sqrt(float64(parentVisits)) / float64(1+n.visits)
	return n.Value() + exploration
}

// SelectChild returns the child with the highest UCB score, or nil if this
// node has no children. Ties resolve to the first child encountered.
func (n *MonteCarloNode) SelectChild(explorationConstant float64) *MonteCarloNode {
	var best *MonteCarloNode
	bestScore := math.Inf(-1)
	for _, c := range n.Children {
		score := c.UCB(n.visits, explorationConstant)
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best
}
