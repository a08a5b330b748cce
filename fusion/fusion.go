// Package fusion correlates approved intelligence reports into events.
//
// Clustering is deterministic: given the same report set and configuration,
// the same clusters, confidence scores, and event identifiers come out on
// every run. There is no randomness and no order dependence; ties break on
// the lowest report ID.
package fusion

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ravenfield/copx/classify"
	"github.com/ravenfield/copx/geo"
	"github.com/ravenfield/copx/intel"
)

// CompatibilityRule names how intelligence types corroborate.
type CompatibilityRule string

const (
	// CompatAllSource treats every discipline as corroborating every
	// other: SIGINT confirming HUMINT is the point of fusion.
	CompatAllSource CompatibilityRule = "ALL_SOURCE"
	// CompatSameType clusters only reports of identical type.
	CompatSameType CompatibilityRule = "SAME_TYPE"
)

// DefaultEventType is the type assigned to synthesized events.
const DefaultEventType = "FUSED_INTELLIGENCE"

// Config are the fusion tunables. The corroboration curve is configuration,
// not a constant: operational calibration differs per deployment.
type Config struct {
	// RadiusMeters is the clustering distance threshold, boundary
	// inclusive.
	RadiusMeters float64 `mapstructure:"radius_meters"`
	// Window is the maximum event-time separation between two reports in
	// the same cluster.
	Window time.Duration `mapstructure:"window"`
	// Compatibility selects the type-corroboration rule.
	Compatibility CompatibilityRule `mapstructure:"compatibility"`
	// BonusPerSource is the confidence added per corroborating source
	// beyond the first. The total is capped by MaxBonus and the final
	// confidence saturates at 1.0, so the curve is monotone in cluster
	// size.
	BonusPerSource float64 `mapstructure:"bonus_per_source"`
	// MaxBonus caps the accumulated corroboration bonus.
	MaxBonus float64 `mapstructure:"max_bonus"`
	// EventType overrides the type of synthesized events.
	EventType string `mapstructure:"event_type"`
}

// DefaultConfig returns the shipped tunables: 5 km radius, 24 h window,
// all-source corroboration.
func DefaultConfig() Config {
	return Config{
		RadiusMeters:   5000,
		Window:         24 * time.Hour,
		Compatibility:  CompatAllSource,
		BonusPerSource: 0.1,
		MaxBonus:       0.3,
		EventType:      DefaultEventType,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.RadiusMeters <= 0 {
		c.RadiusMeters = d.RadiusMeters
	}
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.Compatibility == "" {
		c.Compatibility = d.Compatibility
	}
	if c.BonusPerSource < 0 {
		c.BonusPerSource = 0
	}
	if c.MaxBonus <= 0 {
		c.MaxBonus = d.MaxBonus
	}
	if c.EventType == "" {
		c.EventType = d.EventType
	}
	return c
}

func (c Config) compatible(a, b intel.IntelType) bool {
	if c.Compatibility == CompatSameType {
		return a == b
	}
	return true
}

// Fuse clusters the given reports and synthesizes one event per cluster.
// Reports lacking a location form singleton clusters: nothing corroborates
// a sighting that cannot be placed. The caller supplies approved reports
// only; fusion itself does not re-check status.
func Fuse(reports []*intel.Report, cfg Config, now time.Time) []*intel.Event {
	cfg = cfg.withDefaults()
	if len(reports) == 0 {
		return nil
	}

	// Sort by ID so cluster membership and ordering never depend on the
	// caller's slice order.
	sorted := make([]*intel.Report, len(reports))
	copy(sorted, reports)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	clusters := cluster(sorted, cfg)

	events := make([]*intel.Event, 0, len(clusters))
	for _, members := range clusters {
		events = append(events, synthesize(members, cfg, now))
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].SourceReports[0] < events[j].SourceReports[0]
	})
	return events
}

// cluster partitions the sorted reports by transitive proximity. Two
// reports link when they are within the radius, within the time window,
// and type-compatible; clusters are the connected components.
func cluster(sorted []*intel.Report, cfg Config) [][]*intel.Report {
	parent := make([]int, len(sorted))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(i, j int) {
		ri, rj := find(i), find(j)
		if ri != rj {
			if ri > rj {
				ri, rj = rj, ri
			}
			parent[rj] = ri
		}
	}

	for i := 0; i < len(sorted); i++ {
		if sorted[i].Location == nil {
			continue
		}
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].Location == nil {
				continue
			}
			if linked(sorted[i], sorted[j], cfg) {
				union(i, j)
			}
		}
	}

	byRoot := make(map[int][]*intel.Report)
	var roots []int
	for i, r := range sorted {
		root := find(i)
		if _, seen := byRoot[root]; !seen {
			roots = append(roots, root)
		}
		byRoot[root] = append(byRoot[root], r)
	}
	sort.Ints(roots)

	out := make([][]*intel.Report, 0, len(roots))
	for _, root := range roots {
		out = append(out, byRoot[root])
	}
	return out
}

func linked(a, b *intel.Report, cfg Config) bool {
	if !cfg.compatible(a.Type, b.Type) {
		return false
	}
	gap := a.EventTime.Sub(b.EventTime)
	if gap < 0 {
		gap = -gap
	}
	if gap > cfg.Window {
		return false
	}
	return geo.WithinRadius(*a.Location, *b.Location, cfg.RadiusMeters)
}

// synthesize builds the event for one cluster. Members arrive sorted by ID.
func synthesize(members []*intel.Report, cfg Config, now time.Time) *intel.Event {
	ids := make([]string, len(members))
	points := make([]geo.Point, 0, len(members))
	types := make(map[intel.IntelType]bool)
	minTime, maxTime := members[0].EventTime, members[0].EventTime
	level := classify.Unclassified
	var confidenceSum float64

	for i, r := range members {
		ids[i] = r.ID
		if r.Location != nil {
			points = append(points, *r.Location)
		}
		types[r.Type] = true
		if r.EventTime.Before(minTime) {
			minTime = r.EventTime
		}
		if r.EventTime.After(maxTime) {
			maxTime = r.EventTime
		}
		level = classify.Max(level, r.Classification)
		confidenceSum += r.Confidence
	}

	mean := confidenceSum / float64(len(members))
	bonus := cfg.BonusPerSource * float64(len(members)-1)
	if bonus > cfg.MaxBonus {
		bonus = cfg.MaxBonus
	}
	confidence := mean + bonus
	if confidence > 1.0 {
		confidence = 1.0
	}

	var location *geo.Point
	if c, ok := geo.Centroid(points); ok {
		location = &c
	}

	end := maxTime
	ev := &intel.Event{
		ID:             eventID(ids),
		Type:           cfg.EventType,
		Title:          eventTitle(types),
		Description:    eventDescription(members),
		StartTime:      minTime,
		EndTime:        &end,
		Location:       location,
		Confidence:     confidence,
		Classification: level,
		Status:         intel.EventPending,
		SourceReports:  ids,
		Fusion: &intel.FusionRecord{
			ReportIDs:      ids,
			RadiusMeters:   cfg.RadiusMeters,
			WindowSeconds:  int64(cfg.Window / time.Second),
			Compatibility:  string(cfg.Compatibility),
			MeanConfidence: mean,
			Corroboration:  bonus,
			FusedAt:        now,
		},
		CreatedAt: now,
	}
	return ev
}

// eventID derives a stable identifier from the member report IDs, so
// re-running fusion over the same picture is idempotent.
func eventID(memberIDs []string) string {
	sum := sha256.Sum256([]byte(strings.Join(memberIDs, "\x00")))
	return "fused-" + hex.EncodeToString(sum[:8])
}

func eventTitle(types map[intel.IntelType]bool) string {
	names := make([]string, 0, len(types))
	for t := range types {
		names = append(names, string(t))
	}
	sort.Strings(names)
	if len(names) == 1 {
		return fmt.Sprintf("Fused Intelligence: %s Correlation", names[0])
	}
	return fmt.Sprintf("Fused Intelligence: %s Correlation", strings.Join(names, " + "))
}

func eventDescription(members []*intel.Report) string {
	titles := make([]string, len(members))
	for i, r := range members {
		titles[i] = r.Title
	}
	return fmt.Sprintf("Correlated from %d report(s): %s", len(members), strings.Join(titles, "; "))
}
