// Package naming turns a cluster of tracks into a theme name, a short
// description and a characteristics summary.
package naming

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Naming is the output for one cluster.
type Naming struct {
	Name            string
	Description     string
	Characteristics Characteristics
}

// Namer evaluates the naming rules in priority order.
type Namer struct {
	enriched []rule
	local    []rule
	log      *zap.Logger
}

// New returns a Namer with the standard rule cascade.
func New(log *zap.Logger) *Namer {
	return &Namer{enriched: enrichedRules, local: localRules, log: log.Named("naming")}
}

// Name names the cluster with the given id. The name is never empty.
func (n *Namer) Name(id int, members []Member) Naming {
	return n.NameDistinct(id, members, nil)
}

// NameDistinct is Name, but a rule whose name is already in taken is passed
// over for the next one. The numbered fallback is unique per id.
func (n *Namer) NameDistinct(id int, members []Member, taken map[string]bool) Naming {
	c := newCluster(id, members)

	name, ruleName := n.evaluate(c, taken)
	n.log.Debug("named cluster",
		zap.Int("cluster", id),
		zap.Int("tracks", c.size()),
		zap.String("rule", ruleName),
		zap.String("name", name))

	ch := c.characteristics()
	return Naming{
		Name:            name,
		Description:     Describe(ch),
		Characteristics: ch,
	}
}

func (n *Namer) evaluate(c *cluster, taken map[string]bool) (string, string) {
	var rules []rule
	if c.enriched > 0 {
		rules = append(rules, n.enriched...)
	}
	rules = append(rules, n.local...)

	for _, r := range rules {
		if name, ok := r.apply(c); ok && strings.TrimSpace(name) != "" && !taken[name] {
			return name, r.name
		}
	}
	name, _ := numberedRule(c)
	return name, "numbered"
}

// Describe writes a one-paragraph description ending with the track count,
// e.g. "Music spanning 2015-2018. Featuring Rock. 6 tracks total."
func Describe(ch Characteristics) string {
	var parts []string

	if len(ch.YearRange) == 2 {
		if ch.YearRange[0] == ch.YearRange[1] {
			parts = append(parts, fmt.Sprintf("Music from %d", ch.YearRange[0]))
		} else {
			parts = append(parts, fmt.Sprintf("Music spanning %d-%d", ch.YearRange[0], ch.YearRange[1]))
		}
	}
	if len(ch.TopGenres) > 0 {
		parts = append(parts, "featuring "+strings.Join(ch.TopGenres[:min(2, len(ch.TopGenres))], ", "))
	}
	if len(ch.TopArtists) > 1 {
		parts = append(parts, fmt.Sprintf("including tracks by %s and others", ch.TopArtists[0]))
	}

	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(capitalize(p))
		sb.WriteString(". ")
	}
	fmt.Fprintf(&sb, "%d tracks total.", ch.TrackCount)
	return sb.String()
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
