// Package tsv reads the tab-separated input files feeding the pipeline:
// the taxonomy hierarchy (parent_id, id, name, rank) and the per-species
// coverage flag matrix (taxid, has_assembly, has_annotation, has_reads).
//
// Columns are located by header name so column order doesn't matter.
// Rows missing required fields are skipped and counted rather than
// failing the run; the caller logs the skip count as a data-quality
// warning.
package tsv

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/treeatlas/treeatlas/pkg/coverage"
	"github.com/treeatlas/treeatlas/pkg/errors"
	"github.com/treeatlas/treeatlas/pkg/tree"
)

// EdgeResult is the outcome of reading a hierarchy file.
type EdgeResult struct {
	Edges   []tree.Edge
	Skipped int // malformed rows dropped
}

// ReadEdges parses a hierarchy TSV from r. The header must contain
// parent_id and id columns; name and rank are optional.
func ReadEdges(r io.Reader) (*EdgeResult, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty hierarchy file")
	}
	cols := headerIndex(sc.Text())
	pi, ok := cols["parent_id"]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "hierarchy header missing parent_id column")
	}
	ii, ok := cols["id"]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "hierarchy header missing id column")
	}
	ni, hasName := cols["name"]
	ri, hasRank := cols["rank"]

	res := &EdgeResult{}
	for sc.Scan() {
		row := strings.Split(sc.Text(), "\t")
		if len(row) <= pi || len(row) <= ii {
			res.Skipped++
			continue
		}
		child := strings.TrimSpace(row[ii])
		if errors.ValidateTaxID(child) != nil {
			res.Skipped++
			continue
		}
		e := tree.Edge{
			ParentID: strings.TrimSpace(row[pi]),
			ChildID:  child,
		}
		if hasName && len(row) > ni {
			e.Name = row[ni]
		}
		if hasRank && len(row) > ri {
			e.Rank = row[ri]
		}
		res.Edges = append(res.Edges, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// ReadEdgesFile reads a hierarchy TSV from disk.
func ReadEdgesFile(path string) (*EdgeResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadEdges(f)
}

// FlagsResult is the outcome of reading a coverage matrix.
type FlagsResult struct {
	Flags   map[string]coverage.Flags
	Skipped int
}

// ReadFlags parses a species coverage matrix from r. The header must
// contain taxid, has_assembly, has_annotation and has_reads columns.
// IDs absent from the file simply default to no data downstream.
func ReadFlags(r io.Reader) (*FlagsResult, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty coverage file")
	}
	cols := headerIndex(sc.Text())
	ti, ok := cols["taxid"]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "coverage header missing taxid column")
	}
	ai, okA := cols["has_assembly"]
	ni, okN := cols["has_annotation"]
	ri, okR := cols["has_reads"]
	if !okA || !okN || !okR {
		return nil, errors.New(errors.ErrCodeInvalidInput, "coverage header missing flag columns")
	}

	res := &FlagsResult{Flags: make(map[string]coverage.Flags)}
	maxCol := max(ti, max(ai, max(ni, ri)))
	for sc.Scan() {
		row := strings.Split(sc.Text(), "\t")
		if len(row) <= maxCol {
			res.Skipped++
			continue
		}
		taxid := strings.TrimSpace(row[ti])
		if errors.ValidateTaxID(taxid) != nil {
			res.Skipped++
			continue
		}
		res.Flags[taxid] = coverage.Flags{
			HasAssembly:   truthy(row[ai]),
			HasAnnotation: truthy(row[ni]),
			HasReads:      truthy(row[ri]),
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// ReadFlagsFile reads a coverage matrix from disk.
func ReadFlagsFile(path string) (*FlagsResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadFlags(f)
}

// headerIndex maps lowercased header names to column positions.
func headerIndex(line string) map[string]int {
	cols := make(map[string]int)
	for i, h := range strings.Split(line, "\t") {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return cols
}

// truthy interprets the matrix flag encodings: 1/true/t/yes.
func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes":
		return true
	}
	return false
}
