package models

// Room is a physical teaching space.
type Room struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name" validate:"required"`
	Capacity int    `json:"capacity" yaml:"capacity" validate:"required,min=1"`
}

// Key returns the identity used to track room occupancy.
func (r Room) Key() string {
	if r.ID != "" {
		return r.ID
	}
	return r.Name
}
