// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/search-aggregator/pkg/types"
)

// ResultFile is the on-disk form of one search: the request that ran and
// the result set it produced. It lets a search be inspected or replayed
// without querying the provider again.
type ResultFile struct {
	Request RequestParams   `yaml:"request"`
	Results types.ResultSet `yaml:"results"`
	Summary ResultSummary   `yaml:"summary"`
}

// RequestParams stores a SearchRequest in serializable form.
type RequestParams struct {
	Query                string `yaml:"query"`
	Vertical             string `yaml:"vertical"`
	PageNumber           int    `yaml:"page_number"`
	ResultsPerPage       int    `yaml:"results_per_page"`
	SessionID            string `yaml:"session_id,omitempty"`
	UserID               string `yaml:"user_id,omitempty"`
	Provider             string `yaml:"provider"`
	RelevanceFeedback    string `yaml:"relevance_feedback,omitempty"`
	DistributionOfLabour string `yaml:"distribution_of_labour,omitempty"`
}

// ResultSummary stores result statistics and the save time.
type ResultSummary struct {
	Returned  int       `yaml:"returned"`
	Matches   int       `yaml:"matches"`
	Timestamp time.Time `yaml:"timestamp"`
}

// WriteResultFile saves req and rs to a YAML file.
func WriteResultFile(path string, req types.SearchRequest, rs *types.ResultSet) error {
	rf := ResultFile{
		Request: RequestParams{
			Query:                req.Query,
			Vertical:             req.Vertical,
			PageNumber:           req.PageNumber,
			ResultsPerPage:       req.ResultsPerPage,
			SessionID:            req.SessionID,
			UserID:               req.UserID,
			Provider:             req.ProviderName,
			RelevanceFeedback:    string(req.RelevanceFeedback),
			DistributionOfLabour: string(req.DistributionOfLabour),
		},
		Results: *rs,
		Summary: ResultSummary{
			Returned:  len(rs.Results),
			Matches:   rs.Matches,
			Timestamp: time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling result file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadResultFile loads a previously saved result file.
func ReadResultFile(path string) (*ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result file: %w", err)
	}
	var rf ResultFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing result file: %w", err)
	}
	return &rf, nil
}

// ToRequest converts stored parameters back into a SearchRequest.
func (p RequestParams) ToRequest() (types.SearchRequest, error) {
	rf, err := types.ParseRelevanceFeedback(p.RelevanceFeedback)
	if err != nil {
		return types.SearchRequest{}, err
	}
	dl, err := types.ParseDistributionOfLabour(p.DistributionOfLabour)
	if err != nil {
		return types.SearchRequest{}, err
	}
	return types.SearchRequest{
		Query:                p.Query,
		Vertical:             p.Vertical,
		PageNumber:           p.PageNumber,
		ResultsPerPage:       p.ResultsPerPage,
		SessionID:            p.SessionID,
		UserID:               p.UserID,
		ProviderName:         p.Provider,
		RelevanceFeedback:    rf,
		DistributionOfLabour: dl,
	}, nil
}
