// Package reports holds the canned WIP analytics queries.
//
// Each report is an embedded SQL file. The relation is not hard-coded: the
// {{relation}} placeholder is replaced with the quoted relation name when the
// SQL is rendered, so reports follow whatever name the loader was configured with.
package reports

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapwip/internal/adapter"
)

//go:embed sql/*.sql
var files embed.FS

// Placeholder is replaced by the quoted relation identifier.
const Placeholder = "{{relation}}"

// order is the presentation order; reports not listed sort after it by name.
var order = []string{
	"portfolio-health",
	"margin-distribution",
	"at-risk",
	"regional",
	"top-customers",
	"service-type",
	"pm-leaderboard",
	"large-projects",
	"status-distribution",
	"financial-summary",
	"top-contracts",
	"period",
}

// Report is one canned query.
type Report struct {
	Name        string
	Title       string
	Description string
	query       string
}

// SQL renders the report against relation.
func (r *Report) SQL(relation string) string {
	return strings.ReplaceAll(r.query, Placeholder, adapter.QuoteIdentifier(relation))
}

var catalog = mustLoad()

// List returns every report in presentation order.
func List() []*Report {
	out := make([]*Report, len(catalog))
	copy(out, catalog)
	return out
}

// Names returns the report names in presentation order.
func Names() []string {
	names := make([]string, len(catalog))
	for i, r := range catalog {
		names[i] = r.Name
	}
	return names
}

// Get returns the named report.
func Get(name string) (*Report, error) {
	for _, r := range catalog {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, fmt.Errorf("unknown report %q (available: %s)", name, strings.Join(Names(), ", "))
}

func mustLoad() []*Report {
	entries, err := files.ReadDir("sql")
	if err != nil {
		panic(fmt.Sprintf("reports: read embedded sql: %v", err))
	}

	out := make([]*Report, 0, len(entries))
	for _, e := range entries {
		data, err := files.ReadFile("sql/" + e.Name())
		if err != nil {
			panic(fmt.Sprintf("reports: read %s: %v", e.Name(), err))
		}
		out = append(out, parse(strings.TrimSuffix(e.Name(), ".sql"), string(data)))
	}

	rank := make(map[string]int, len(order))
	for i, name := range order {
		rank[name] = i
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, iok := rank[out[i].Name]
		rj, jok := rank[out[j].Name]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return out[i].Name < out[j].Name
		}
	})
	return out
}

// parse reads the leading "-- key: value" comment lines as metadata.
func parse(name, text string) *Report {
	r := &Report{Name: name, Title: name}
	var body []string
	header := true
	for _, line := range strings.Split(text, "\n") {
		if header {
			if rest, ok := strings.CutPrefix(line, "--"); ok {
				key, value, found := strings.Cut(rest, ":")
				if found {
					switch strings.TrimSpace(key) {
					case "title":
						r.Title = strings.TrimSpace(value)
					case "description":
						r.Description = strings.TrimSpace(value)
					}
				}
				continue
			}
			header = false
		}
		body = append(body, line)
	}
	r.query = strings.TrimSpace(strings.Join(body, "\n"))
	return r
}
