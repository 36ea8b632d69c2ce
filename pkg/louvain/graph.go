package louvain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Graph represents a weighted undirected graph using simple arrays (NetworkX style)
type Graph struct {
	NumNodes    int         `json:"num_nodes"`
	Adjacency   [][]int     `json:"-"`            // adjacency[i] = list of neighbors of node i
	Weights     [][]float64 `json:"-"`            // weights[i][j] = weight of edge from node i to neighbor adjacency[i][j]
	Degrees     []float64   `json:"degrees"`      // degrees[i] = weighted degree of node i, self-loops counted twice
	SelfLoops   []float64   `json:"self_loops"`   // selfLoops[i] = weight of the loop on node i
	TotalWeight float64     `json:"total_weight"` // sum of all edge weights, each undirected edge once
}

// NewGraph creates a new graph with n nodes
func NewGraph(numNodes int) *Graph {
	return &Graph{
		NumNodes:  numNodes,
		Adjacency: make([][]int, numNodes),
		Weights:   make([][]float64, numNodes),
		Degrees:   make([]float64, numNodes),
		SelfLoops: make([]float64, numNodes),
	}
}

// NewGraphFromMatrix builds a graph from a square adjacency matrix.
// Directed inputs are symmetrised as (A + Aᵀ)/2; zero entries are not edges.
func NewGraphFromMatrix(adj mat.Matrix) (*Graph, error) {
	r, c := adj.Dims()
	if r != c {
		return nil, fmt.Errorf("adjacency matrix is %dx%d, not square", r, c)
	}

	g := NewGraph(r)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			w := adj.At(i, j)
			if i != j {
				w = (w + adj.At(j, i)) / 2
			}
			if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
				return nil, fmt.Errorf("invalid weight %v between nodes %d and %d", w, i, j)
			}
			if w == 0 {
				continue
			}
			if err := g.AddEdge(i, j, w); err != nil {
				return nil, err
			}
		}
	}

	return g, nil
}

// AddEdge adds a weighted edge between two nodes
func (g *Graph) AddEdge(u, v int, weight float64) error {
	if u < 0 || u >= g.NumNodes || v < 0 || v >= g.NumNodes {
		return fmt.Errorf("node index out of range: u=%d, v=%d, numNodes=%d", u, v, g.NumNodes)
	}

	if weight <= 0 {
		return fmt.Errorf("edge weight must be positive: %f", weight)
	}

	// Add edge u -> v
	g.Adjacency[u] = append(g.Adjacency[u], v)
	g.Weights[u] = append(g.Weights[u], weight)
	g.Degrees[u] += weight

	// Add edge v -> u (undirected graph)
	if u != v {
		g.Adjacency[v] = append(g.Adjacency[v], u)
		g.Weights[v] = append(g.Weights[v], weight)
		g.Degrees[v] += weight
	} else {
		// Self-loop: count weight twice for degree
		g.Degrees[u] += weight
		g.SelfLoops[u] += weight
	}

	g.TotalWeight += weight
	return nil
}

// GetEdgeWeight returns the weight of edge between u and v
func (g *Graph) GetEdgeWeight(u, v int) float64 {
	if u < 0 || u >= g.NumNodes || v < 0 || v >= g.NumNodes {
		return 0.0
	}

	total := 0.0
	for i, neighbor := range g.Adjacency[u] {
		if neighbor == v {
			total += g.Weights[u][i]
		}
	}
	return total
}

// GetNeighbors returns neighbors and their edge weights for a node
func (g *Graph) GetNeighbors(node int) ([]int, []float64) {
	if node < 0 || node >= g.NumNodes {
		return nil, nil
	}
	return g.Adjacency[node], g.Weights[node]
}

// Validate checks graph consistency
func (g *Graph) Validate() error {
	if g.NumNodes <= 0 {
		return fmt.Errorf("graph must have positive number of nodes")
	}

	for i := 0; i < g.NumNodes; i++ {
		if len(g.Adjacency[i]) != len(g.Weights[i]) {
			return fmt.Errorf("adjacency and weights arrays inconsistent for node %d", i)
		}

		for j, neighbor := range g.Adjacency[i] {
			if neighbor < 0 || neighbor >= g.NumNodes {
				return fmt.Errorf("invalid neighbor %d for node %d", neighbor, i)
			}

			if g.Weights[i][j] <= 0 {
				return fmt.Errorf("non-positive weight %f for edge %d-%d", g.Weights[i][j], i, neighbor)
			}
		}
	}

	return nil
}
