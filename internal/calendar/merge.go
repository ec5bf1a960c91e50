package calendar

import (
	"cmp"
	"slices"
)

// Merge combines events from multiple sources into a single slice sorted by
// start time. Ties are broken by UID so that the order is stable across syncs.
func Merge(eventSets ...[]Event) []Event {
	var all []Event
	for _, events := range eventSets {
		all = append(all, events...)
	}

	slices.SortFunc(all, func(a, b Event) int {
		return cmp.Or(
			a.Start.Compare(b.Start),
			cmp.Compare(a.UID, b.UID),
		)
	})

	return all
}
