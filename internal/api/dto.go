package api

import (
	"github.com/starford/atelier/internal/index"
	"github.com/starford/atelier/internal/models"
	"github.com/starford/atelier/internal/projectlog"
	"github.com/starford/atelier/internal/siteservice"
)

// ProjectListResponse wraps the ranked project list.
type ProjectListResponse struct {
	Projects []projectlog.Annotated `json:"projects"`
	Total    int                    `json:"total"`
}

// LatestProjectResponse names the most recently active project, or "none".
type LatestProjectResponse struct {
	Slug string `json:"slug"`
}

// PostListResponse wraps published posts.
type PostListResponse struct {
	Posts []siteservice.PostSummary `json:"posts"`
	Total int                       `json:"total"`
}

// SocialsResponse wraps the social links.
type SocialsResponse struct {
	Socials []models.Social `json:"socials"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results"`
}

// EntryListResponse wraps a page of indexed entries.
type EntryListResponse struct {
	Entries []index.EntryRow `json:"entries"`
	Total   int              `json:"total"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
