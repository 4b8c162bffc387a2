// Package parser splits Markdown content into YAML frontmatter and body and
// extracts titles, tags, and [[wikilinks]].
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Links       []string
	Tags        []string
	Title       string

	rawFrontmatter []byte
}

// Parse extracts frontmatter, body, wikilinks, and tags from raw Markdown.
// Missing or invalid frontmatter is not an error: the whole input becomes
// the body.
func Parse(data []byte) (*Result, error) {
	raw, fm, body := splitFrontmatter(data)

	return &Result{
		Frontmatter:    fm,
		Body:           body,
		Links:          extractLinks(body),
		Tags:           extractTags(body, fm),
		Title:          deriveTitle(fm, body),
		rawFrontmatter: raw,
	}, nil
}

// HasFrontmatter reports whether a valid frontmatter block was found.
func (r *Result) HasFrontmatter() bool {
	return r.rawFrontmatter != nil
}

// Decode unmarshals the frontmatter block into v. It is a no-op when the
// document has no frontmatter.
func (r *Result) Decode(v any) error {
	if r.rawFrontmatter == nil {
		return nil
	}
	if err := yaml.Unmarshal(r.rawFrontmatter, v); err != nil {
		return fmt.Errorf("parser: decode frontmatter: %w", err)
	}
	return nil
}

// SetField returns the document with the frontmatter key set to value.
// Other keys keep their order; a missing key is appended.
func (r *Result) SetField(key, value string) ([]byte, error) {
	var doc yaml.Node
	if r.rawFrontmatter != nil {
		if err := yaml.Unmarshal(r.rawFrontmatter, &doc); err != nil {
			return nil, fmt.Errorf("parser: decode frontmatter: %w", err)
		}
	}
	var m *yaml.Node
	if len(doc.Content) == 1 && doc.Content[0].Kind == yaml.MappingNode {
		m = doc.Content[0]
	} else {
		m = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}

	val := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
	replaced := false
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = val
			replaced = true
			break
		}
	}
	if !replaced {
		m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, val)
	}

	fm, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("parser: encode frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	buf.WriteString(r.Body)
	return buf.Bytes(), nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- lines)
// from the body.
func splitFrontmatter(data []byte) ([]byte, map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, nil, string(data)
	}

	block := rest[:idx]
	after := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(after), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return nil, nil, string(data)
	}
	if fm == nil {
		// "---\n---" is an empty but valid block.
		fm = map[string]any{}
	}
	return block, fm, body
}

// extractLinks returns deduplicated wikilink targets with aliases removed.
func extractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		target, _, _ := strings.Cut(m[1], "|")
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// extractTags merges the frontmatter "tags" list with inline #tags.
func extractTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	switch v := fm["tags"].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			add(s)
		}
	}

	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// deriveTitle prefers the frontmatter title, then the first H1.
func deriveTitle(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
