package model

import (
	"time"
)

const (
	// DefaultProjectID is the built-in project created by the first migration
	DefaultProjectID = "default"

	// AllProjectsID is the read-only pseudo-project that aggregates everything
	AllProjectsID = "__all__"
)

// Project groups collections
type Project struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	IsDefault   bool      `json:"isDefault" yaml:"isDefault"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// IsAllProjects returns true for the aggregate sentinel
func (p *Project) IsAllProjects() bool {
	return p.ID == AllProjectsID
}

// AllProjects returns the read-path sentinel project
func AllProjects() Project {
	return Project{ID: AllProjectsID, Name: "All Projects"}
}

// ProjectPatch lists the project fields that may be updated
type ProjectPatch struct {
	Name        *string
	Description *string
}
