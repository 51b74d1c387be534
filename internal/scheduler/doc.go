// Package scheduler builds conflict-free weekly timetables with a greedy,
// most-constrained-first placement over a fixed Monday-Friday, eight slot grid.
//
// A run is a pure computation: every call to Schedule creates its own
// occupancy state, so concurrent calls share nothing. Teachers and rooms are
// tried in the order the caller supplied them and the first free candidate
// wins, which makes the output reproducible for identical input.
package scheduler
