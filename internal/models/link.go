// Package models - link.go defines the single-use checklist link record and
// its lifecycle states.
package models

import "time"

// Link is a single-use token that lets a technician submit one checklist
// without an account. It moves through exactly one lifecycle:
// issued (Used=false), then either consumed (Used=true, ChecklistID set)
// or expired (ExpiresAt in the past).
type Link struct {
	Token       string         `json:"token"`
	Used        bool           `json:"used"`
	ChecklistID string         `json:"checklistId,omitempty"`
	CreatedBy   string         `json:"createdBy,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	ExpiresAt   time.Time      `json:"expiresAt"`
	UsedAt      *time.Time     `json:"usedAt,omitempty"`
}

// Expired reports whether the link's validity window has passed at now
func (l *Link) Expired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}
