package model

import (
	"time"
)

const defaultCollectionSuffix = "-unsorted"

// Collection is a named bucket of items, owned by a primary project and optionally
// shared with others
type Collection struct {
	ID               string    `json:"id" yaml:"id"`
	Name             string    `json:"name" yaml:"name"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
	IsDefault        bool      `json:"isDefault" yaml:"isDefault"`
	PrimaryProjectID string    `json:"primaryProjectId" yaml:"primaryProjectId"`
	ProjectIDs       []string  `json:"projectIds" yaml:"projectIds"`
	Color            string    `json:"color,omitempty" yaml:"color,omitempty"`

	// Computed fields (not stored)
	ItemCount int `json:"-" yaml:"-"`
}

// DefaultCollectionID returns the id of the "Unsorted" collection for a project
func DefaultCollectionID(projectID string) string {
	return projectID + defaultCollectionSuffix
}

// InProject returns true if the collection is visible in the project
func (c *Collection) InProject(projectID string) bool {
	if projectID == AllProjectsID {
		return true
	}
	for _, id := range c.ProjectIDs {
		if id == projectID {
			return true
		}
	}
	return false
}

// CollectionPatch lists the collection fields that may be updated
type CollectionPatch struct {
	Name  *string
	Color *string
}
