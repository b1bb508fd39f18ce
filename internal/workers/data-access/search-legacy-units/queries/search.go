package queries

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"franchise-onboarding/internal/models"
)

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source legacyUnitDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// group_code is a keyword in the index so it may come back as a string.
type legacyUnitDoc struct {
	GroupCode json.Number `json:"group_code"`
	GroupName string      `json:"group_name"`
	City      string      `json:"city"`
	UF        string      `json:"uf"`
}

// Execute runs the search and decodes the hits.
func Execute(ctx context.Context, es *elasticsearch.Client, q LegacyUnitQuery) ([]models.LegacyUnit, error) {
	req, err := BuildSearch(q)
	if err != nil {
		return nil, err
	}

	res, err := req.Do(ctx, es)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search query failed: %s", res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	units := make([]models.LegacyUnit, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		code, err := hit.Source.GroupCode.Int64()
		if err != nil {
			continue
		}
		units = append(units, models.LegacyUnit{
			GroupCode: int(code),
			GroupName: hit.Source.GroupName,
			City:      hit.Source.City,
			UF:        hit.Source.UF,
		})
	}
	return units, nil
}
