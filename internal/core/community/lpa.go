// Package community partitions the whole network into densely connected
// clusters using asynchronous label propagation.
package community

import (
	"math/rand"
	"sort"

	"github.com/archivegraph/lattice/internal/core/graph"
)

// Detector runs label propagation over a snapshot.
type Detector struct {
	MaxRounds int
}

func NewDetector() *Detector {
	return &Detector{
		MaxRounds: 20, // propagation almost always converges well before this
	}
}

// Partition maps every node (by display name) to an opaque integer label,
// with per-label member counts. Labels are not persisted; they are
// recomputed per request against the current snapshot.
type Partition struct {
	Labels map[string]int `json:"labels"`
	Sizes  map[int]int    `json:"sizes"`
}

// Detect assigns community labels by asynchronous label propagation.
//
// Each node starts with its own label (its index in lexicographic id
// order). Rounds visit nodes in an order shuffled by a seed-fixed RNG; each
// node adopts the plurality label among its neighbors, breaking ties toward
// the lowest label value. Propagation stops after a changeless round or
// MaxRounds. The same seed against the same snapshot always yields the same
// partition.
//
// Isolated nodes are never visited by the vote, so they keep their own
// label and form singleton communities.
func (d *Detector) Detect(ix *graph.Index, seed int64) Partition {
	ids := ix.IDs() // sorted
	labels := make(map[string]int, len(ids))
	for i, id := range ids {
		labels[id] = i
	}

	order := make([]string, len(ids))
	copy(order, ids)
	rng := rand.New(rand.NewSource(seed))

	for round := 0; round < d.MaxRounds; round++ {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		changes := 0
		for _, u := range order {
			nbrs := ix.Neighbors(u)
			if len(nbrs) == 0 {
				continue
			}

			counts := make(map[int]int, len(nbrs))
			for _, v := range nbrs {
				counts[labels[v]]++
			}

			best := labels[u]
			bestCount := -1
			for label, count := range counts {
				if count > bestCount || (count == bestCount && label < best) {
					best = label
					bestCount = count
				}
			}

			if labels[u] != best {
				labels[u] = best
				changes++
			}
		}

		if changes == 0 {
			break
		}
	}

	p := Partition{
		Labels: make(map[string]int, len(labels)),
		Sizes:  make(map[int]int),
	}
	for id, label := range labels {
		p.Labels[ix.DisplayID(id)] = label
		p.Sizes[label]++
	}
	return p
}

// Members groups the partition back into per-community display-name lists,
// largest community first.
func (p Partition) Members() [][]string {
	byLabel := make(map[int][]string)
	for id, label := range p.Labels {
		byLabel[label] = append(byLabel[label], id)
	}

	out := make([][]string, 0, len(byLabel))
	for _, members := range byLabel {
		sort.Strings(members)
		out = append(out, members)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i][0] < out[j][0]
	})
	return out
}
