package searchlegacyunits

import "franchise-onboarding/internal/models"

type Input struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type Output struct {
	Results []models.LegacyUnit `json:"results"`
	Count   int                 `json:"count"`
	Source  string              `json:"source"`
}

const (
	SourceElasticsearch = "elasticsearch"
	SourcePostgres      = "postgres"
	SourceNone          = "none"
)
