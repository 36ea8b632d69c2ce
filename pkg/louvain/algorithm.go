package louvain

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
)

// Result represents the algorithm output
type Result struct {
	Levels           []LevelInfo `json:"levels"`
	FinalCommunities []int       `json:"final_communities"` // original node -> community
	Modularity       float64     `json:"modularity"`
	NumLevels        int         `json:"num_levels"`
	Statistics       Statistics  `json:"statistics"`
}

// LevelInfo contains information about each hierarchical level
type LevelInfo struct {
	Level          int     `json:"level"`
	Modularity     float64 `json:"modularity"`
	NumCommunities int     `json:"num_communities"`
	NumMoves       int     `json:"num_moves"`
}

// Statistics contains algorithm performance metrics
type Statistics struct {
	TotalMoves int   `json:"total_moves"`
	RuntimeMS  int64 `json:"runtime_ms"`
}

// Community represents the state of communities (simple arrays, NetworkX style)
type Community struct {
	NodeToCommunity          []int     // nodeToComm[i] = community ID of node i
	CommunitySizes           []int     // commSizes[c] = number of nodes in community c
	CommunityWeights         []float64 // commWeights[c] = total degree of community c
	CommunityInternalWeights []float64 // commInternal[c] = internal weight of community c, both directions
	NumCommunities           int       // number of community slots
}

// NewCommunity initializes each node in its own community
func NewCommunity(graph *Graph) *Community {
	n := graph.NumNodes
	comm := &Community{
		NodeToCommunity:          make([]int, n),
		CommunitySizes:           make([]int, n),
		CommunityWeights:         make([]float64, n),
		CommunityInternalWeights: make([]float64, n),
		NumCommunities:           n,
	}

	for i := 0; i < n; i++ {
		comm.NodeToCommunity[i] = i
		comm.CommunitySizes[i] = 1
		comm.CommunityWeights[i] = graph.Degrees[i]
		comm.CommunityInternalWeights[i] = graph.SelfLoops[i] * 2 // self-loops count double
	}

	return comm
}

// CalculateModularity computes Newman's modularity with a resolution parameter
func CalculateModularity(graph *Graph, comm *Community, resolution float64) float64 {
	if graph.TotalWeight == 0 {
		return 0.0
	}

	modularity := 0.0
	m2 := 2.0 * graph.TotalWeight

	for c := 0; c < comm.NumCommunities; c++ {
		if comm.CommunitySizes[c] == 0 {
			continue
		}

		internal := comm.CommunityInternalWeights[c]
		total := comm.CommunityWeights[c]

		modularity += internal/m2 - resolution*(total/m2)*(total/m2)
	}

	return modularity
}

// CalculateModularityGain computes the gain, scaled by m, of inserting an
// isolated node into targetComm. edgeWeight is the weight from node to targetComm.
func CalculateModularityGain(graph *Graph, comm *Community, node, targetComm int, edgeWeight, resolution float64) float64 {
	nodeDegree := graph.Degrees[node]
	commTotal := comm.CommunityWeights[targetComm]
	m2 := 2.0 * graph.TotalWeight

	return edgeWeight - resolution*nodeDegree*commTotal/m2
}

// neighborCommunities sums the edge weight from node to each adjacent community, ignoring self-loops
func neighborCommunities(graph *Graph, comm *Community, node int) map[int]float64 {
	weights := make(map[int]float64)
	neighbors, edgeWeights := graph.GetNeighbors(node)

	for i, neighbor := range neighbors {
		if neighbor == node {
			continue
		}
		weights[comm.NodeToCommunity[neighbor]] += edgeWeights[i]
	}

	return weights
}

func removeNode(graph *Graph, comm *Community, node, c int, weightToComm float64) {
	comm.CommunitySizes[c]--
	comm.CommunityWeights[c] -= graph.Degrees[node]
	comm.CommunityInternalWeights[c] -= 2*weightToComm + 2*graph.SelfLoops[node]
	comm.NodeToCommunity[node] = -1
}

func insertNode(graph *Graph, comm *Community, node, c int, weightToComm float64) {
	comm.CommunitySizes[c]++
	comm.CommunityWeights[c] += graph.Degrees[node]
	comm.CommunityInternalWeights[c] += 2*weightToComm + 2*graph.SelfLoops[node]
	comm.NodeToCommunity[node] = c
}

// OneLevel performs one level of local optimization
func OneLevel(graph *Graph, comm *Community, config *Config, resolution float64, rng *rand.Rand, logger zerolog.Logger) (bool, int, error) {
	improvement := false
	totalMoves := 0

	if graph.TotalWeight == 0 {
		return false, 0, nil
	}

	// Create node processing order
	nodes := make([]int, graph.NumNodes)
	for i := 0; i < graph.NumNodes; i++ {
		nodes[i] = i
	}

	for iteration := 0; iteration < config.MaxIterations(); iteration++ {
		iterationMoves := 0

		// Shuffle nodes; the visiting order is the source of run-to-run variation
		rng.Shuffle(len(nodes), func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] })

		for _, node := range nodes {
			oldComm := comm.NodeToCommunity[node]
			neighborComms := neighborCommunities(graph, comm, node)

			removeNode(graph, comm, node, oldComm, neighborComms[oldComm])

			bestComm := oldComm
			bestGain := CalculateModularityGain(graph, comm, node, oldComm, neighborComms[oldComm], resolution)

			// Visit candidates in a random order so ties do not favour map iteration
			candidates := make([]int, 0, len(neighborComms))
			for c := range neighborComms {
				candidates = append(candidates, c)
			}
			rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })

			for _, targetComm := range candidates {
				if targetComm == oldComm {
					continue
				}
				gain := CalculateModularityGain(graph, comm, node, targetComm, neighborComms[targetComm], resolution)
				if gain > bestGain+config.MinModularityGain() {
					bestComm = targetComm
					bestGain = gain
				}
			}

			insertNode(graph, comm, node, bestComm, neighborComms[bestComm])

			if bestComm != oldComm {
				iterationMoves++
				improvement = true
			}
		}

		totalMoves += iterationMoves

		if iterationMoves == 0 {
			logger.Debug().Int("iteration", iteration+1).Msg("Converged: no moves")
			break
		}
	}

	return improvement, totalMoves, nil
}

// AggregateGraph creates a super-graph from communities. It returns the
// super-graph and, for every community slot, its super-node index (-1 when empty).
func AggregateGraph(graph *Graph, comm *Community, logger zerolog.Logger) (*Graph, []int, error) {
	commToSuper := make([]int, comm.NumCommunities)
	numSuperNodes := 0
	for c := 0; c < comm.NumCommunities; c++ {
		commToSuper[c] = -1
		if comm.CommunitySizes[c] > 0 {
			commToSuper[c] = numSuperNodes
			numSuperNodes++
		}
	}

	if numSuperNodes == 0 {
		return nil, nil, fmt.Errorf("no valid communities found")
	}

	// Every non-loop edge is seen from both ends, loops once: double loops then halve everything
	superEdges := make(map[[2]int]float64)
	for node := 0; node < graph.NumNodes; node++ {
		superI := commToSuper[comm.NodeToCommunity[node]]

		neighbors, weights := graph.GetNeighbors(node)
		for i, neighbor := range neighbors {
			superJ := commToSuper[comm.NodeToCommunity[neighbor]]

			edge := [2]int{superI, superJ}
			if superJ < superI {
				edge = [2]int{superJ, superI}
			}

			w := weights[i]
			if neighbor == node {
				w *= 2
			}
			superEdges[edge] += w
		}
	}

	superGraph := NewGraph(numSuperNodes)
	for edge, weight := range superEdges {
		if weight > 0 {
			if err := superGraph.AddEdge(edge[0], edge[1], weight/2); err != nil {
				return nil, nil, err
			}
		}
	}

	logger.Debug().
		Int("original_nodes", graph.NumNodes).
		Int("super_nodes", numSuperNodes).
		Msg("Graph aggregation completed")

	return superGraph, commToSuper, nil
}

// Run executes the complete Louvain algorithm with the given resolution.
// rng drives node ordering and must not be shared between concurrent runs.
func Run(ctx context.Context, graph *Graph, config *Config, resolution float64, rng *rand.Rand) (*Result, error) {
	startTime := time.Now()
	logger := config.CreateLogger()

	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}

	result := &Result{
		Levels: make([]LevelInfo, 0),
	}

	// membership[i] = node of currentGraph that original node i belongs to
	membership := make([]int, graph.NumNodes)
	for i := range membership {
		membership[i] = i
	}

	currentGraph := graph
	comm := NewCommunity(currentGraph)

	for level := 0; level < config.MaxLevels(); level++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		improvement, moves, err := OneLevel(currentGraph, comm, config, resolution, rng, logger)
		if err != nil {
			return nil, fmt.Errorf("local optimization failed at level %d: %w", level, err)
		}

		numCommunities := 0
		for c := 0; c < comm.NumCommunities; c++ {
			if comm.CommunitySizes[c] > 0 {
				numCommunities++
			}
		}

		result.Levels = append(result.Levels, LevelInfo{
			Level:          level,
			Modularity:     CalculateModularity(currentGraph, comm, resolution),
			NumCommunities: numCommunities,
			NumMoves:       moves,
		})
		result.Statistics.TotalMoves += moves

		if !improvement || numCommunities == currentGraph.NumNodes {
			break
		}

		superGraph, commToSuper, err := AggregateGraph(currentGraph, comm, logger)
		if err != nil {
			return nil, fmt.Errorf("aggregation failed at level %d: %w", level, err)
		}

		for i := range membership {
			membership[i] = commToSuper[comm.NodeToCommunity[membership[i]]]
		}

		currentGraph = superGraph
		comm = NewCommunity(currentGraph)
	}

	result.NumLevels = len(result.Levels)
	result.Modularity = CalculateModularity(currentGraph, comm, resolution)
	result.Statistics.RuntimeMS = time.Since(startTime).Milliseconds()

	result.FinalCommunities = make([]int, graph.NumNodes)
	for i, node := range membership {
		result.FinalCommunities[i] = comm.NodeToCommunity[node]
	}

	logger.Debug().
		Int("levels", result.NumLevels).
		Float64("final_modularity", result.Modularity).
		Int64("runtime_ms", result.Statistics.RuntimeMS).
		Msg("Louvain algorithm completed")

	return result, nil
}
