// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// AnswerFile is the on-disk representation of a query and its answer. A
// search can be saved to a file and displayed later without re-querying
// sources.
type AnswerFile struct {
	Query    string               `yaml:"query"`
	Options  types.QueryOptions   `yaml:"options"`
	Response types.SearchResponse `yaml:"response"`
}

// WriteAnswerFile saves the query and its response to a YAML file.
func WriteAnswerFile(path, query string, resp *types.SearchResponse) error {
	af := AnswerFile{
		Query:    query,
		Options:  resp.Options,
		Response: *resp,
	}
	data, err := yaml.Marshal(&af)
	if err != nil {
		return fmt.Errorf("marshaling answer file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadAnswerFile loads a previously saved answer file from disk.
func ReadAnswerFile(path string) (*AnswerFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading answer file: %w", err)
	}
	var af AnswerFile
	if err := yaml.Unmarshal(data, &af); err != nil {
		return nil, fmt.Errorf("parsing answer file: %w", err)
	}
	return &af, nil
}
