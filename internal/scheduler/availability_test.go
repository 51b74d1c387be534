package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerCommitOccupiesAllResources(t *testing.T) {
	tracker := NewTracker()
	assert.True(t, tracker.TeacherFree("Ms. Rahma", "Monday", "09:00-10:00"))

	tracker.Commit("Ms. Rahma", "room-1", "10A", "Monday", "09:00-10:00")

	assert.False(t, tracker.TeacherFree("Ms. Rahma", "Monday", "09:00-10:00"))
	assert.False(t, tracker.RoomFree("room-1", "Monday", "09:00-10:00"))
	assert.False(t, tracker.ClassFree("10A", "Monday", "09:00-10:00"))

	assert.True(t, tracker.TeacherFree("Ms. Rahma", "Monday", "10:00-11:00"))
	assert.True(t, tracker.TeacherFree("Ms. Rahma", "Tuesday", "09:00-10:00"))
	assert.True(t, tracker.RoomFree("room-2", "Monday", "09:00-10:00"))
	assert.True(t, tracker.ClassFree("10B", "Monday", "09:00-10:00"))
}

func TestTrackerCommitSkipsEmptyKeys(t *testing.T) {
	tracker := NewTracker()
	tracker.Commit("Mr. Budi", "", "", "Friday", "16:00-17:00")

	assert.False(t, tracker.TeacherFree("Mr. Budi", "Friday", "16:00-17:00"))
	assert.True(t, tracker.RoomFree("", "Friday", "16:00-17:00"))
	assert.True(t, tracker.ClassFree("", "Friday", "16:00-17:00"))
}

func TestTrackersAreIndependentPerRun(t *testing.T) {
	first := NewTracker()
	second := NewTracker()
	first.Commit("Ms. Rahma", "room-1", "10A", "Monday", "09:00-10:00")

	assert.True(t, second.TeacherFree("Ms. Rahma", "Monday", "09:00-10:00"))
	assert.True(t, second.RoomFree("room-1", "Monday", "09:00-10:00"))
	assert.True(t, second.ClassFree("10A", "Monday", "09:00-10:00"))
}

func TestCanonicalDay(t *testing.T) {
	day, ok := CanonicalDay("  wednesday ")
	assert.True(t, ok)
	assert.Equal(t, "Wednesday", day)

	_, ok = CanonicalDay("Saturday")
	assert.False(t, ok)

	assert.Equal(t, 7, SlotIndex("16:00-17:00"))
	assert.Equal(t, -1, SlotIndex("17:00-18:00"))
}
