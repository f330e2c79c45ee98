package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	// TaskID identifies one federation round dispatched to the stations.
	TaskID ID
	// StationID identifies one data station within a collaboration.
	StationID ID
)

// String conversions for domain IDs
func (id TaskID) String() string    { return ID(id).String() }
func (id StationID) String() string { return ID(id).String() }

// NewTaskID creates a fresh task handle.
func NewTaskID() TaskID { return TaskID(NewID()) }

// ParseStationID parses a string into StationID
func ParseStationID(s string) (StationID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("station ID cannot be empty")
	}
	return StationID(s), nil
}
