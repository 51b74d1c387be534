package models

// Subject is a catalog entry requiring a fixed number of weekly contact hours.
type Subject struct {
	Name         string `json:"name" yaml:"name" validate:"required"`
	HoursPerWeek int    `json:"hoursPerWeek" yaml:"hoursPerWeek" validate:"required,min=1"`
}
