package clustering

import (
	"math"
	"math/rand/v2"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

const (
	restarts      = 10
	maxIterations = 300
	tolerance     = 1e-4
)

// partitionKMeans delegates to muesli/kmeans. Its initial centers come from
// the global random source, so labels vary between runs.
func partitionKMeans(obs clusters.Observations, k int) (clusters.Clusters, error) {
	return kmeans.New().Partition(obs, k)
}

// seeded is a reproducible k-means: k-means++ seeding, Lloyd iterations and
// the lowest-inertia result of several restarts, all drawn from one seed.
type seeded struct {
	rng *rand.Rand
}

func newSeeded(seed int64) *seeded {
	return &seeded{rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)))}
}

func (s *seeded) partition(obs clusters.Observations, k int) (clusters.Clusters, float64) {
	var (
		best        clusters.Clusters
		bestInertia = math.Inf(1)
	)
	for range restarts {
		cc := s.lloyd(obs, s.initialCenters(obs, k))
		if in := inertia(cc); in < bestInertia {
			best, bestInertia = cc, in
		}
	}
	return best, bestInertia
}

// initialCenters picks the first center uniformly and each next one with
// probability proportional to its squared distance from the nearest chosen
// center.
func (s *seeded) initialCenters(obs clusters.Observations, k int) clusters.Clusters {
	cc := make(clusters.Clusters, 0, k)
	first := obs[s.rng.IntN(len(obs))].Coordinates()
	cc = append(cc, clusters.Cluster{Center: clone(first)})

	dist := make([]float64, len(obs))
	for len(cc) < k {
		var total float64
		for i, o := range obs {
			dist[i] = o.Distance(cc[cc.Nearest(o)].Center)
			total += dist[i]
		}

		next := len(obs) - 1
		if total > 0 {
			target := s.rng.Float64() * total
			for i, d := range dist {
				target -= d
				if target < 0 {
					next = i
					break
				}
			}
		} else {
			// All points coincide with a center already.
			next = s.rng.IntN(len(obs))
		}
		cc = append(cc, clusters.Cluster{Center: clone(obs[next].Coordinates())})
	}
	return cc
}

func (s *seeded) lloyd(obs clusters.Observations, cc clusters.Clusters) clusters.Clusters {
	labels := make([]int, len(obs))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIterations; iter++ {
		changes := 0
		cc.Reset()
		for i, o := range obs {
			n := cc.Nearest(o)
			cc[n].Append(o)
			if labels[i] != n {
				labels[i] = n
				changes++
			}
		}
		refillEmpty(obs, cc, labels)

		shift := 0.0
		for i := range cc {
			prev := clone(cc[i].Center)
			cc[i].Recenter()
			shift += squaredDistance(prev, cc[i].Center)
		}
		if changes == 0 || shift <= tolerance*tolerance {
			break
		}
	}

	// Final assignment against the settled centers.
	cc.Reset()
	for _, o := range obs {
		n := cc.Nearest(o)
		cc[n].Append(o)
	}
	return cc
}

// refillEmpty moves the point farthest from its center into each empty
// cluster, taking only from clusters that keep at least one member.
func refillEmpty(obs clusters.Observations, cc clusters.Clusters, labels []int) {
	for ci := range cc {
		if len(cc[ci].Observations) > 0 {
			continue
		}
		far, farDist := -1, -1.0
		for i, o := range obs {
			from := labels[i]
			if len(cc[from].Observations) < 2 {
				continue
			}
			if d := o.Distance(cc[from].Center); d > farDist {
				far, farDist = i, d
			}
		}
		if far < 0 {
			return
		}
		from := labels[far]
		cc[from].Observations = remove(cc[from].Observations, obs[far])
		cc[ci].Append(obs[far])
		labels[far] = ci
	}
}

func remove(list clusters.Observations, o clusters.Observation) clusters.Observations {
	target := o.(trackObservation).index
	out := list[:0]
	for _, x := range list {
		if x.(trackObservation).index != target {
			out = append(out, x)
		}
	}
	return out
}

func inertia(cc clusters.Clusters) float64 {
	var sum float64
	for _, c := range cc {
		for _, o := range c.Observations {
			sum += squaredDistance(o.Coordinates(), c.Center)
		}
	}
	return sum
}

func clone(c clusters.Coordinates) clusters.Coordinates {
	out := make(clusters.Coordinates, len(c))
	copy(out, c)
	return out
}
