// Package output writes versatility results as CSV and JSON.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gilchrisn/versatility/pkg/versatility"
)

// NodeNamer maps a matrix index back to the node's original id
type NodeNamer func(index int) string

// IndexNames names nodes by their matrix index
func IndexNames(index int) string {
	return strconv.Itoa(index)
}

// WriteNodalCSV writes one "node,versatility" row per node
func WriteNodalCSV(w io.Writer, versatilities []float64, name NodeNamer) error {
	if name == nil {
		name = IndexNames
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"node", "versatility"}); err != nil {
		return err
	}
	for i, v := range versatilities {
		if err := writer.Write([]string{name(i), formatFloat(v)}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteCurveCSV writes one "parameter,mean,sem" row per curve point
func WriteCurveCSV(w io.Writer, curve []versatility.CurvePoint) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"parameter", "mean", "sem"}); err != nil {
		return err
	}
	for _, point := range curve {
		row := []string{formatFloat(point.Parameter), formatFloat(point.Mean), formatFloat(point.SEM)}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// NodeValue pairs an original node id with a value
type NodeValue struct {
	Node  string  `json:"node"`
	Value float64 `json:"value"`
}

// SweepDocument is the JSON form of a mean sweep
type SweepDocument struct {
	Parameters   []float64   `json:"parameters"`
	Mean         []NodeValue `json:"mean"`
	PerParameter [][]float64 `json:"per_parameter"`
	GraphMean    float64     `json:"graph_mean"`
}

// WriteSweepJSON writes a sweep result with node ids resolved
func WriteSweepJSON(w io.Writer, result *versatility.SweepResult, name NodeNamer) error {
	if result == nil {
		return fmt.Errorf("no sweep result to write")
	}
	if name == nil {
		name = IndexNames
	}

	doc := SweepDocument{
		Parameters:   result.Parameters,
		Mean:         make([]NodeValue, len(result.Mean)),
		PerParameter: result.PerParameter,
		GraphMean:    result.GraphMean,
	}
	for i, v := range result.Mean {
		doc.Mean[i] = NodeValue{Node: name(i), Value: v}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

// Create opens path for writing, creating parent directories. An empty path
// or "-" means stdout, in which case close is a no-op.
func Create(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, file.Close, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
