package scheduler

// occupancy maps entity -> day -> set of occupied time slots.
type occupancy map[string]map[string]map[string]struct{}

func (o occupancy) isFree(key, day, slot string) bool {
	_, taken := o[key][day][slot]
	return !taken
}

func (o occupancy) commit(key, day, slot string) {
	days, ok := o[key]
	if !ok {
		days = make(map[string]map[string]struct{})
		o[key] = days
	}
	slots, ok := days[day]
	if !ok {
		slots = make(map[string]struct{})
		days[day] = slots
	}
	slots[slot] = struct{}{}
}

// Tracker holds the teacher, room and class occupancy of a single run.
// Commits are never rolled back.
type Tracker struct {
	teachers occupancy
	rooms    occupancy
	classes  occupancy
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		teachers: make(occupancy),
		rooms:    make(occupancy),
		classes:  make(occupancy),
	}
}

// TeacherFree reports whether teacher has nothing committed at (day, slot).
func (t *Tracker) TeacherFree(teacher, day, slot string) bool {
	return t.teachers.isFree(teacher, day, slot)
}

// RoomFree reports whether the room identified by key is unused at (day, slot).
func (t *Tracker) RoomFree(key, day, slot string) bool {
	return t.rooms.isFree(key, day, slot)
}

// ClassFree reports whether class attends nothing at (day, slot).
func (t *Tracker) ClassFree(class, day, slot string) bool {
	return t.classes.isFree(class, day, slot)
}

// Commit marks (day, slot) occupied for the teacher, room and class together.
// Empty keys are skipped so partial commitments can be seeded.
func (t *Tracker) Commit(teacher, roomKey, class, day, slot string) {
	if teacher != "" {
		t.teachers.commit(teacher, day, slot)
	}
	if roomKey != "" {
		t.rooms.commit(roomKey, day, slot)
	}
	if class != "" {
		t.classes.commit(class, day, slot)
	}
}
