// Package clustering partitions feature vectors into groups of similar
// tracks with k-means.
package clustering

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/muesli/clusters"
	"go.uber.org/zap"

	"github.com/justestif/go-library-themes/internal/features"
)

// Algorithms understood by Partitioner. Anything else runs as auto.
const (
	AlgorithmAuto   = "auto"
	AlgorithmKMeans = "kmeans"
)

const (
	// MinClusterSize is the smallest group kept after partitioning.
	MinClusterSize = 5
	// MaxGroups caps how many groups survive selection.
	MaxGroups = 20
)

// ErrTooFewObservations is returned when there is nothing to partition.
var ErrTooFewObservations = errors.New("too few observations to cluster")

// Options configures a Partitioner.
type Options struct {
	Algorithm string
	Requested int   // desired number of groups before size filtering
	Seed      int64 // used by auto
}

// Group is one partition label and the indices of its members in the input.
type Group struct {
	Label   int
	Members []int
	Center  clusters.Coordinates // in standardized space
}

// Size is the member count.
func (g Group) Size() int { return len(g.Members) }

// Partitioner standardizes vectors and assigns each one a label.
type Partitioner struct {
	opts Options
	log  *zap.Logger
}

// New returns a Partitioner.
func New(opts Options, log *zap.Logger) *Partitioner {
	return &Partitioner{opts: opts, log: log.Named("clustering")}
}

// ClusterCount is min(requested, max(2, n/5)), never more than n.
func ClusterCount(n, requested int) int {
	k := min(requested, max(2, n/5))
	return max(1, min(k, n))
}

// trackObservation ties a vector to its index in the input.
type trackObservation struct {
	index  int
	coords clusters.Coordinates
}

func (o trackObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o trackObservation) Distance(point clusters.Coordinates) float64 {
	return squaredDistance(o.coords, point)
}

// Partition clusters vectors and returns every non-empty group ordered by
// label. A numerically degenerate result is an error; callers treat it as
// "no themes for this run".
func (p *Partitioner) Partition(vectors []features.Vector) ([]Group, error) {
	if len(vectors) < 2 {
		return nil, fmt.Errorf("%d vectors: %w", len(vectors), ErrTooFewObservations)
	}

	scaled, err := Standardize(vectors)
	if err != nil {
		return nil, fmt.Errorf("standardizing: %w", err)
	}

	obs := make(clusters.Observations, len(scaled))
	for i, v := range scaled {
		obs[i] = trackObservation{index: i, coords: v}
	}

	k := ClusterCount(len(obs), p.opts.Requested)

	var cc clusters.Clusters
	switch p.opts.Algorithm {
	case AlgorithmKMeans:
		cc, err = partitionKMeans(obs, k)
	default:
		var inertia float64
		cc, inertia = newSeeded(p.opts.Seed).partition(obs, k)
		p.log.Debug("k-means converged", zap.Int("k", k), zap.Float64("inertia", inertia))
	}
	if err != nil {
		return nil, fmt.Errorf("partitioning %d vectors into %d groups: %w", len(obs), k, err)
	}

	groups := make([]Group, 0, len(cc))
	for label, c := range cc {
		if len(c.Observations) == 0 {
			continue
		}
		if !finite(c.Center) {
			return nil, fmt.Errorf("group %d has a non-finite center", label)
		}
		g := Group{Label: label, Center: c.Center}
		for _, o := range c.Observations {
			if to, ok := o.(trackObservation); ok {
				g.Members = append(g.Members, to.index)
			}
		}
		slices.Sort(g.Members)
		groups = append(groups, g)
	}
	return groups, nil
}

// Select drops groups smaller than minSize, orders the rest by descending
// size (label breaks ties) and keeps at most limit.
func Select(groups []Group, minSize, limit int) []Group {
	kept := make([]Group, 0, len(groups))
	for _, g := range groups {
		if g.Size() >= minSize {
			kept = append(kept, g)
		}
	}
	slices.SortStableFunc(kept, func(a, b Group) int {
		if a.Size() != b.Size() {
			return b.Size() - a.Size()
		}
		return a.Label - b.Label
	})
	if len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

func finite(c clusters.Coordinates) bool {
	for _, x := range c {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
