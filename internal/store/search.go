package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"candidate-evaluator/internal/common/database"
	"candidate-evaluator/internal/models"
)

const DefaultResultIndex = "candidate-results"

const resultMapping = `{
  "mappings": {
    "properties": {
      "resultId": {"type": "long"},
      "interviewId": {"type": "long"},
      "applicationId": {"type": "long"},
      "jobId": {"type": "long"},
      "jobTitle": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "candidateName": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "resumeScore": {"type": "float"},
      "confidenceScore": {"type": "float"},
      "communicationScore": {"type": "float"},
      "knowledgeScore": {"type": "float"},
      "overallScore": {"type": "float"},
      "percentile": {"type": "float"},
      "hrDecision": {"type": "keyword"}
    }
  }
}`

// ResultIndex mirrors evaluation results into Elasticsearch for ranking
// queries across jobs.
type ResultIndex struct {
	es    *database.ElasticsearchClient
	index string
}

func NewResultIndex(es *database.ElasticsearchClient, index string) *ResultIndex {
	if index == "" {
		index = DefaultResultIndex
	}
	return &ResultIndex{es: es, index: index}
}

func (x *ResultIndex) Name() string { return x.index }

// Ensure creates the index with its mapping unless it exists.
func (x *ResultIndex) Ensure(ctx context.Context) error {
	return x.es.EnsureIndex(ctx, x.index, resultMapping)
}

// Index upserts one result document keyed by result id.
func (x *ResultIndex) Index(ctx context.Context, doc models.RankedCandidate) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	c := x.es.Client
	res, err := c.Index(x.index, bytes.NewReader(body),
		c.Index.WithContext(ctx),
		c.Index.WithDocumentID(strconv.FormatInt(doc.ResultID, 10)),
	)
	if err != nil {
		return fmt.Errorf("index result %d: %w", doc.ResultID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index result %d: %s", doc.ResultID, res.Status())
	}
	return nil
}

// TopCandidates returns the size best results of a job by overall score.
func (x *ResultIndex) TopCandidates(ctx context.Context, jobID int64, size int) ([]models.RankedCandidate, error) {
	if size <= 0 {
		size = 10
	}
	query := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"term": map[string]interface{}{"jobId": jobID},
		},
		"sort": []interface{}{
			map[string]interface{}{"overallScore": map[string]interface{}{"order": "desc"}},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c := x.es.Client
	res, err := c.Search(
		c.Search.WithContext(ctx),
		c.Search.WithIndex(x.index),
		c.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search results: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search results: %s: %s", res.Status(), msg)
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source models.RankedCandidate `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]models.RankedCandidate, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
