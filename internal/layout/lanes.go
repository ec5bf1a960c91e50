package layout

import "slices"

// Assignment is the lane an item occupies inside its cluster.
// 0 <= Lane < LaneCount, and LaneCount is shared by the whole cluster.
type Assignment struct {
	Item      Item
	Lane      int
	LaneCount int
}

// AssignLanes gives every item of a cluster a lane.
// Items that overlap in time never share a lane.
func AssignLanes(c Cluster, strategy LaneStrategy) []Assignment {
	items := slices.Clone(c.Items)
	slices.SortFunc(items, compareItems)

	out := make([]Assignment, len(items))
	if strategy == LanesPacked {
		packLanes(items, out)
		return out
	}

	for i, it := range items {
		out[i] = Assignment{Item: it, Lane: i, LaneCount: len(items)}
	}
	return out
}

// packLanes is an active-interval sweep: each item takes the lowest lane
// whose last occupant has already ended.
func packLanes(items []Item, out []Assignment) {
	var laneEnds []int
	for i, it := range items {
		lane := -1
		for l, end := range laneEnds {
			if end <= it.Start {
				lane = l
				break
			}
		}
		if lane < 0 {
			lane = len(laneEnds)
			laneEnds = append(laneEnds, 0)
		}
		laneEnds[lane] = it.End
		out[i] = Assignment{Item: it, Lane: lane}
	}

	for i := range out {
		out[i].LaneCount = len(laneEnds)
	}
}
