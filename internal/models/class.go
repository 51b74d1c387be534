package models

// ClassInfo is a group of students that must attend every listed subject.
type ClassInfo struct {
	Name         string   `json:"name" yaml:"name" validate:"required"`
	Subjects     []string `json:"subjects" yaml:"subjects" validate:"omitempty,dive,required"`
	StudentCount int      `json:"studentCount" yaml:"studentCount" validate:"required,min=1"`
}
