package community

import (
	"github.com/archivegraph/lattice/internal/core/graph"
)

// CountComponents returns the number of connected components in the whole
// snapshot, isolated nodes included. Used for network-level statistics.
func CountComponents(ix *graph.Index) int {
	visited := make(map[string]bool, ix.Order())
	count := 0

	for _, id := range ix.IDs() {
		if visited[id] {
			continue
		}
		count++
		visited[id] = true
		queue := []string{id}
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			for _, v := range ix.Neighbors(u) {
				if !visited[v] {
					visited[v] = true
					queue = append(queue, v)
				}
			}
		}
	}
	return count
}
