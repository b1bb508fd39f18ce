// internal/workers/data-access/search-legacy-units/queries/builder.go
package queries

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrMissingIndex = errors.New("index name is required")
	ErrEmptyQuery   = errors.New("query is required")
)

// LegacyUnitQuery is a typeahead search over the legacy unit catalog.
type LegacyUnitQuery struct {
	Index string
	Text  string
	Size  int
}

// BuildSearch matches a group code prefix or a group name phrase prefix.
// Code matches rank above name matches.
func BuildSearch(q LegacyUnitQuery) (*esapi.SearchRequest, error) {
	if q.Index == "" {
		return nil, ErrMissingIndex
	}
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, ErrEmptyQuery
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					map[string]interface{}{
						"prefix": map[string]interface{}{
							"group_code": map[string]interface{}{"value": text, "boost": 2},
						},
					},
					map[string]interface{}{
						"match_phrase_prefix": map[string]interface{}{
							"group_name": map[string]interface{}{"query": text},
						},
					},
				},
				"minimum_should_match": 1,
			},
		},
		"sort": []interface{}{"_score", map[string]interface{}{"group_code": "asc"}},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	size := q.Size
	return &esapi.SearchRequest{
		Index: []string{q.Index},
		Body:  &buf,
		Size:  &size,
	}, nil
}
