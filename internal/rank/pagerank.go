// Package rank computes global and personalized PageRank over the symbol
// call/type graph. Both variants are hand-written directly from their
// standard formulations rather than adapted from an existing package.
package rank

// Graph is a directed adjacency representation sufficient for both PageRank
// variants: out-edges per node plus the full node set (so that zero-out-
// degree "dangling" nodes are still ranked).
type Graph struct {
	Nodes []int64
	Out   map[int64][]int64 // node -> nodes it points to
	In    map[int64][]int64 // node -> nodes pointing to it
}

// NewGraph builds a Graph from a flat edge list (source, target) pairs.
// Self-loops and duplicate edges are kept, and each one counts toward its
// source's out-degree, so a duplicated edge passes along its source's
// score twice.
func NewGraph(nodes []int64, edges [][2]int64) *Graph {
	g := &Graph{
		Nodes: nodes,
		Out:   make(map[int64][]int64, len(nodes)),
		In:    make(map[int64][]int64, len(nodes)),
	}
	for _, n := range nodes {
		g.Out[n] = nil
		g.In[n] = nil
	}
	for _, e := range edges {
		g.Out[e[0]] = append(g.Out[e[0]], e[1])
		g.In[e[1]] = append(g.In[e[1]], e[0])
	}
	return g
}

const (
	damping          = 0.85
	convergenceEps   = 1e-6
	maxIterations    = 50
	pprIterations    = 20
	pprRestartProb   = 0.15
)

// PageRank computes global PageRank to convergence (L1 delta < eps) or a
// 50-iteration cap.
func PageRank(g *Graph) map[int64]float64 {
	n := len(g.Nodes)
	if n == 0 {
		return map[int64]float64{}
	}
	scores := make(map[int64]float64, n)
	for _, node := range g.Nodes {
		scores[node] = 1.0 / float64(n)
	}

	for iter := 0; iter < maxIterations; iter++ {
		next := make(map[int64]float64, n)
		danglingMass := 0.0
		for _, node := range g.Nodes {
			if len(g.Out[node]) == 0 {
				danglingMass += scores[node]
			}
		}
		base := (1 - damping) / float64(n)
		redistributed := damping * danglingMass / float64(n)
		for _, node := range g.Nodes {
			next[node] = base + redistributed
		}
		for _, node := range g.Nodes {
			outDeg := len(g.Out[node])
			if outDeg == 0 {
				continue
			}
			share := damping * scores[node] / float64(outDeg)
			for _, target := range g.Out[node] {
				next[target] += share
			}
		}

		delta := 0.0
		for _, node := range g.Nodes {
			delta += abs(next[node] - scores[node])
		}
		scores = next
		if delta < convergenceEps {
			break
		}
	}
	return scores
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
