// Package projectlog orders projects by their most recent changelog entry
// and picks the project to flag as live.
//
// Logs are tied to projects purely by id: a log "lathe/logs/2025-01-10-x.md"
// belongs to the project whose id is "lathe/index.md". The date comes from
// the log's file name, never from its content. Log names without a valid
// leading date are ignored rather than reported.
package projectlog

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/starford/atelier/internal/models"
)

// NoneSlug is returned by LatestActiveSlug when no project has a dated log.
const NoneSlug = "none"

const dateLayout = "2006-01-02"

var logDateRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-`)

// Annotated is a project paired with the date of its newest log.
type Annotated struct {
	models.Project
	LatestLogDate *time.Time `json:"latest_log_date,omitempty"`
}

// ProjectSlug strips a trailing "/index.md" or "/index" from a project id.
func ProjectSlug(id string) string {
	if s, ok := strings.CutSuffix(id, "/index.md"); ok {
		return s
	}
	if s, ok := strings.CutSuffix(id, "/index"); ok {
		return s
	}
	return id
}

// LogSlug returns the part of a log id before the first "/logs/", or "" if
// the id has no logs segment. Nested ids keep every leading segment, the
// same way ProjectSlug does.
func LogSlug(id string) string {
	i := strings.Index(id, "/logs/")
	if i <= 0 {
		return ""
	}
	return id[:i]
}

// LogDate extracts the YYYY-MM-DD prefix of the final path segment of a
// log id. The prefix must be followed by '-' and be a real calendar date.
func LogDate(id string) (time.Time, bool) {
	name := id
	if i := strings.LastIndexByte(id, '/'); i >= 0 {
		name = id[i+1:]
	}
	m := logDateRe.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	d, err := time.Parse(dateLayout, m[1])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// LatestLogDates maps each project slug to the date of its newest log.
// Logs without a slug or a parseable date contribute nothing.
func LatestLogDates(logs []models.ProjectLog) map[string]time.Time {
	out := make(map[string]time.Time)
	for _, l := range logs {
		slug := LogSlug(l.ID)
		if slug == "" {
			continue
		}
		d, ok := LogDate(l.ID)
		if !ok {
			continue
		}
		if cur, seen := out[slug]; !seen || d.After(cur) {
			out[slug] = d
		}
	}
	return out
}

// SortByLatestLog annotates every project with its newest log date and
// orders the result newest first. Projects without a dated log come last,
// keeping their input order. The input slices are not modified.
func SortByLatestLog(projects []models.Project, logs []models.ProjectLog) []Annotated {
	latest := LatestLogDates(logs)
	out := make([]Annotated, len(projects))
	for i, p := range projects {
		out[i] = Annotated{Project: cloneProject(p)}
		if d, ok := latest[ProjectSlug(p.ID)]; ok {
			out[i].LatestLogDate = &d
		}
	}
	slices.SortStableFunc(out, compareLatest)
	return out
}

func compareLatest(a, b Annotated) int {
	switch {
	case a.LatestLogDate == nil && b.LatestLogDate == nil:
		return 0
	case a.LatestLogDate == nil:
		return 1
	case b.LatestLogDate == nil:
		return -1
	}
	// Descending.
	return b.LatestLogDate.Compare(*a.LatestLogDate)
}

// LatestActiveSlug returns the slug of the most recently active project, or
// NoneSlug when there are no projects or none has a dated log.
func LatestActiveSlug(projects []models.Project, logs []models.ProjectLog) string {
	slug, ok := latestActive(projects, logs)
	if !ok {
		return NoneSlug
	}
	return slug
}

func latestActive(projects []models.Project, logs []models.ProjectLog) (string, bool) {
	sorted := SortByLatestLog(projects, logs)
	if len(sorted) == 0 || sorted[0].LatestLogDate == nil {
		return "", false
	}
	return ProjectSlug(sorted[0].ID), true
}

// MarkLatestLive returns a copy of projects in which the most recently
// active project has Live set. Every other project is copied unchanged.
// When no project has a dated log the copy equals the input.
func MarkLatestLive(projects []models.Project, logs []models.ProjectLog) []models.Project {
	out := make([]models.Project, len(projects))
	for i, p := range projects {
		out[i] = cloneProject(p)
	}
	slug, ok := latestActive(projects, logs)
	if !ok {
		return out
	}
	for i := range out {
		if ProjectSlug(out[i].ID) == slug {
			out[i].Live = true
			break
		}
	}
	return out
}

func cloneProject(p models.Project) models.Project {
	p.Tags = slices.Clone(p.Tags)
	return p
}
