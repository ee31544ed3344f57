// Package models - checklist.go defines the persisted checklist record and
// the sources a submission can arrive from.
package models

import "time"

// Submission sources for a checklist record
const (
	SourceDirect = "direct"
	SourceLink   = "link"
)

// Checklist is a completed (or auto-saved) inspection form. Data holds the
// form fields as submitted; the server does not interpret them beyond
// requiring a non-empty object.
type Checklist struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	Source    string         `json:"source"`
	LinkToken string         `json:"linkToken,omitempty"`
	AutoSave  bool           `json:"autoSave,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
