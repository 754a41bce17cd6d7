// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mardi-search/pkg/types"
)

// ResultFile is the on-disk form of one search. A saved file can be
// rendered again later without querying MaRDI.
type ResultFile struct {
	Query   ResultQuery          `yaml:"query"`
	Entity  *types.Entity        `yaml:"entity,omitempty"`
	Results []types.ResultRecord `yaml:"results"`
	Summary ResultSummary        `yaml:"summary"`
}

// ResultQuery stores the concept and the limits that produced the results.
type ResultQuery struct {
	Concept    string `yaml:"concept"`
	FetchLimit int    `yaml:"fetch_limit"`
	MaxResults int    `yaml:"max_results"`
}

// ResultSummary stores counts, the boundary error if any, and a timestamp.
type ResultSummary struct {
	Fetched   int       `yaml:"fetched"`
	Kept      int       `yaml:"kept"`
	Error     string    `yaml:"error,omitempty"`
	Timestamp time.Time `yaml:"timestamp"`
}

// WriteResultFile saves out to a YAML file at path.
func WriteResultFile(path string, s *Searcher, out Output) error {
	rf := ResultFile{
		Query: ResultQuery{
			Concept:    out.Concept,
			FetchLimit: s.FetchLimit,
			MaxResults: s.MaxResults,
		},
		Entity:  out.Entity,
		Results: out.Records,
		Summary: ResultSummary{
			Fetched:   out.Fetched,
			Kept:      len(out.Records),
			Error:     out.Err,
			Timestamp: time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling result file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadResultFile loads a previously saved result file from disk.
func ReadResultFile(path string) (*ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result file: %w", err)
	}
	var rf ResultFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing result file: %w", err)
	}
	if rf.Results == nil {
		rf.Results = []types.ResultRecord{}
	}
	return &rf, nil
}

// Output converts a loaded file back into an Output.
func (rf *ResultFile) Output() Output {
	return Output{
		Concept: rf.Query.Concept,
		Entity:  rf.Entity,
		Fetched: rf.Summary.Fetched,
		Records: rf.Results,
		Err:     rf.Summary.Error,
	}
}
