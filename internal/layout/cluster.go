package layout

import (
	"cmp"
	"slices"
	"time"
)

// Cluster is a maximal set of same-day items connected through pairwise
// intersection. Items are in lane order: start, then id, then end.
type Cluster struct {
	Date  time.Time
	Items []Item
}

// compareItems is the deterministic order used for clustering and lanes.
func compareItems(a, b Item) int {
	return cmp.Or(
		a.Date.Compare(b.Date),
		cmp.Compare(a.Start, b.Start),
		cmp.Compare(a.ID, b.ID),
		cmp.Compare(a.End, b.End),
	)
}

// Clusters partitions items into overlap clusters, date by date.
//
// Two items are connected when their intervals intersect, and a cluster is
// the transitive closure of that relation. For intervals sorted by start the
// closure is a single sweep: the current cluster continues while the next
// start is before the furthest end seen so far.
func Clusters(items []Item) []Cluster {
	if len(items) == 0 {
		return nil
	}

	sorted := slices.Clone(items)
	slices.SortFunc(sorted, compareItems)

	var clusters []Cluster
	cur := Cluster{Date: sorted[0].Date, Items: []Item{sorted[0]}}
	reach := sorted[0].End

	for _, it := range sorted[1:] {
		if it.Date.Equal(cur.Date) && it.Start < reach {
			cur.Items = append(cur.Items, it)
			reach = max(reach, it.End)
			continue
		}
		clusters = append(clusters, cur)
		cur = Cluster{Date: it.Date, Items: []Item{it}}
		reach = it.End
	}
	clusters = append(clusters, cur)

	return clusters
}
