// Package models defines the content types served by atelier.
package models

import "time"

// Project is a portfolio project loaded from projects/<slug>/index.md.
type Project struct {
	// ID is relative to the projects collection, e.g. "lathe/index.md".
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status,omitempty"`
	Live        bool     `json:"live"`
	Order       int      `json:"order,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Repo        string   `json:"repo,omitempty"`
	Image       string   `json:"image,omitempty"`
	Body        string   `json:"-"`
}

// Project statuses accepted in frontmatter.
const (
	StatusActive   = "active"
	StatusPaused   = "paused"
	StatusArchived = "archived"
	StatusIdea     = "idea"
)

// ProjectLog is a dated changelog entry, identified as
// "<project-slug>/logs/<YYYY-MM-DD>-<title-slug>.md".
type ProjectLog struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Tags  []string `json:"tags,omitempty"`
	Body  string   `json:"-"`
}

// Post is a blog post loaded from blog/<slug>.md.
type Post struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	PubDate     time.Time  `json:"pub_date"`
	UpdatedDate *time.Time `json:"updated_date,omitempty"`
	Draft       bool       `json:"draft,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Body        string     `json:"-"`
}

// Social is one entry of socials.yaml.
type Social struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
	Icon string `json:"icon,omitempty" yaml:"icon"`
}

// EntryMetadata is the lightweight listing returned by storage walks.
type EntryMetadata struct {
	// Path is relative to the content root.
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SiteInfo is the site-wide metadata shown in page headers and feeds.
type SiteInfo struct {
	Title       string `json:"title" yaml:"title"`
	Author      string `json:"author,omitempty" yaml:"author"`
	Description string `json:"description,omitempty" yaml:"description"`
	BaseURL     string `json:"base_url,omitempty" yaml:"base_url"`
}
