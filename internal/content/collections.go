package content

import (
	"cmp"
	"slices"
	"strings"

	"github.com/starford/atelier/internal/models"
	"github.com/starford/atelier/internal/projectlog"
)

// PublishedPosts drops drafts and orders the rest by publication date,
// newest first. Posts sharing a date keep their input order.
func PublishedPosts(posts []models.Post) []models.Post {
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if !p.Draft {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Post) int {
		return b.PubDate.Compare(a.PubDate)
	})
	return out
}

// PostSlug is the post id without its .md extension.
func PostSlug(id string) string {
	return strings.TrimSuffix(id, ".md")
}

// LogsFor returns the logs belonging to slug, newest first. Undated logs
// follow the dated ones, ordered by id.
func LogsFor(slug string, logs []models.ProjectLog) []models.ProjectLog {
	var out []models.ProjectLog
	for _, l := range logs {
		if projectlog.LogSlug(l.ID) == slug {
			out = append(out, l)
		}
	}
	slices.SortStableFunc(out, func(a, b models.ProjectLog) int {
		da, okA := projectlog.LogDate(a.ID)
		db, okB := projectlog.LogDate(b.ID)
		switch {
		case okA && okB:
			if c := db.Compare(da); c != 0 {
				return c
			}
		case okA:
			return -1
		case okB:
			return 1
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// ProjectsByOrder sorts projects by their frontmatter order, then title.
// It is the fallback ordering for pages that do not rank by activity.
func ProjectsByOrder(projects []models.Project) []models.Project {
	out := slices.Clone(projects)
	slices.SortStableFunc(out, func(a, b models.Project) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	})
	return out
}

// FilterByTag keeps projects carrying tag. An empty tag keeps everything.
func FilterByTag(projects []projectlog.Annotated, tag string) []projectlog.Annotated {
	if tag == "" {
		return projects
	}
	var out []projectlog.Annotated
	for _, p := range projects {
		if HasTag(p.Tags, tag) {
			out = append(out, p)
		}
	}
	return out
}

// HasTag reports whether tags contains tag, ignoring case.
func HasTag(tags []string, tag string) bool {
	return slices.ContainsFunc(tags, func(t string) bool {
		return strings.EqualFold(t, tag)
	})
}
