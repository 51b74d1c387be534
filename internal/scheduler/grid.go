package scheduler

import "strings"

// Days is the fixed teaching week, in placement order.
var Days = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// TimeSlots are the eight contiguous one-hour slots of a teaching day, in placement order.
var TimeSlots = []string{
	"09:00-10:00",
	"10:00-11:00",
	"11:00-12:00",
	"12:00-13:00",
	"13:00-14:00",
	"14:00-15:00",
	"15:00-16:00",
	"16:00-17:00",
}

// CanonicalDay maps a weekday name to its entry in Days, ignoring case and
// surrounding whitespace.
func CanonicalDay(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, day := range Days {
		if strings.EqualFold(day, name) {
			return day, true
		}
	}
	return "", false
}

// SlotIndex returns the position of slot in TimeSlots or -1.
func SlotIndex(slot string) int {
	for i, s := range TimeSlots {
		if s == slot {
			return i
		}
	}
	return -1
}
