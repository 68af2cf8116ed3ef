package entity

import (
	"time"

	"github.com/aquila-docs/aquila/constants"
)

// PMSection is one chapter or section node in a publication structure tree.
type PMSection struct {
	Title    string      `json:"title"`
	DMCs     []string    `json:"dmcs,omitempty"`
	Children []PMSection `json:"children,omitempty"`
}

// PublicationModule groups data modules into a publishable structure.
// It references data modules by DMC; it never owns them.
type PublicationModule struct {
	PMCode    string                      `json:"pm_code"`
	Title     string                      `json:"title"`
	DMList    []string                    `json:"dm_list,omitempty"` // ordered DMCs
	Structure []PMSection                 `json:"structure,omitempty"`
	Status    constants.PublicationStatus `json:"status"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}
