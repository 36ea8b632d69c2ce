// Package parser loads weighted edge lists into symmetric adjacency matrices.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// Edge represents a weighted edge between two original node ids
type Edge struct {
	From   string
	To     string
	Weight float64
}

// GraphParser handles parsing and normalizing graph files
type GraphParser struct {
	// Mapping from original node ID to normalized index
	OriginalToNormalized map[string]int
	// Mapping from normalized index to original node ID
	NormalizedToOriginal []string

	logger zerolog.Logger
}

// ParseResult contains the adjacency matrix and the parser holding its mapping
type ParseResult struct {
	Adjacency *mat.SymDense
	Edges     []Edge
	Parser    *GraphParser
}

// NewGraphParser creates a new graph parser
func NewGraphParser(logger zerolog.Logger) *GraphParser {
	return &GraphParser{
		OriginalToNormalized: make(map[string]int),
		logger:               logger,
	}
}

// NumNodes returns the number of distinct nodes seen by the last parse
func (p *GraphParser) NumNodes() int {
	return len(p.NormalizedToOriginal)
}

// ParseEdgeListFile opens filename and parses it with ParseEdgeList
func (p *GraphParser) ParseEdgeListFile(filename string) (*ParseResult, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return p.ParseEdgeList(file)
}

// ParseEdgeList parses an edge list and returns a dense symmetric adjacency matrix.
// Expected format: "from to weight" or "from to" (weight defaults to 1.0).
// Blank lines and lines starting with '#' are ignored. Repeated edges add up.
// A self-loop registers its node but contributes no weight.
func (p *GraphParser) ParseEdgeList(r io.Reader) (*ParseResult, error) {
	var edges []Edge
	nodeSet := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			return nil, fmt.Errorf("line %d: expected at least two fields, got %q", lineNo, line)
		}

		edge := Edge{From: parts[0], To: parts[1], Weight: 1.0}
		if len(parts) >= 3 {
			w, err := strconv.ParseFloat(parts[2], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid weight %q: %w", lineNo, parts[2], err)
			}
			if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
				return nil, fmt.Errorf("line %d: weight must be finite and non-negative, got %v", lineNo, w)
			}
			edge.Weight = w
		}

		nodeSet[edge.From] = true
		nodeSet[edge.To] = true
		if edge.From != edge.To {
			edges = append(edges, edge)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading edge list: %w", err)
	}
	if len(nodeSet) == 0 {
		return nil, fmt.Errorf("edge list contains no edges")
	}

	p.createNormalizedMapping(nodeSet)

	adj := mat.NewSymDense(p.NumNodes(), nil)
	for _, e := range edges {
		i := p.OriginalToNormalized[e.From]
		j := p.OriginalToNormalized[e.To]
		adj.SetSym(i, j, adj.At(i, j)+e.Weight)
	}

	p.logger.Debug().
		Int("nodes", p.NumNodes()).
		Int("edges", len(edges)).
		Msg("Parsed edge list")

	return &ParseResult{Adjacency: adj, Edges: edges, Parser: p}, nil
}

// createNormalizedMapping creates the bidirectional mapping between original and normalized IDs
func (p *GraphParser) createNormalizedMapping(nodeSet map[string]bool) {
	nodes := make([]string, 0, len(nodeSet))
	for node := range nodeSet {
		nodes = append(nodes, node)
	}

	// Sort numerically if all nodes are integers
	allIntegers := allNodesAreIntegers(nodes)
	if allIntegers {
		sort.Slice(nodes, func(i, j int) bool {
			a, _ := strconv.ParseInt(nodes[i], 10, 64)
			b, _ := strconv.ParseInt(nodes[j], 10, 64)
			return a < b
		})
	} else {
		sort.Strings(nodes)
	}

	p.OriginalToNormalized = make(map[string]int, len(nodes))
	p.NormalizedToOriginal = nodes
	for i, node := range nodes {
		p.OriginalToNormalized[node] = i
	}

	p.logger.Trace().
		Bool("numeric_ids", allIntegers).
		Strs("order", nodes).
		Msg("Node normalization mapping")
}

func allNodesAreIntegers(nodes []string) bool {
	for _, node := range nodes {
		if _, err := strconv.ParseInt(node, 10, 64); err != nil {
			return false
		}
	}
	return true
}

// GetOriginalID returns the original node ID for a normalized index
func (p *GraphParser) GetOriginalID(normalizedID int) (string, bool) {
	if normalizedID < 0 || normalizedID >= len(p.NormalizedToOriginal) {
		return "", false
	}
	return p.NormalizedToOriginal[normalizedID], true
}

// GetNormalizedID returns the normalized index for an original node ID
func (p *GraphParser) GetNormalizedID(originalID string) (int, bool) {
	normalizedID, exists := p.OriginalToNormalized[originalID]
	return normalizedID, exists
}

// ConvertCommunityMapping converts labels indexed by normalized node to a map keyed by original ID
func (p *GraphParser) ConvertCommunityMapping(labels []int) map[string]int {
	originalMapping := make(map[string]int, len(labels))
	for normalizedID, communityID := range labels {
		if originalID, exists := p.GetOriginalID(normalizedID); exists {
			originalMapping[originalID] = communityID
		}
	}
	return originalMapping
}
