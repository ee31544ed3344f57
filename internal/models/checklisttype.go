// Package models - checklisttype.go defines the checklist type catalog entry
// and the built-in types seeded on first read.
package models

import "time"

// Checklist type categories
const (
	CategoryElectrical  = "electrical"
	CategoryMaintenance = "maintenance"
	CategoryInspection  = "inspection"
)

// ChecklistType is a catalog entry describing one kind of inspection form
type ChecklistType struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DefaultChecklistTypes returns the built-in catalog seeded when no types
// exist yet. Timestamps are stamped at seed time by the caller.
func DefaultChecklistTypes() []ChecklistType {
	return []ChecklistType{
		{
			ID:          "rve",
			Name:        "Instalación RVE",
			Description: "Revisión de Medidores y Equipos",
			Category:    CategoryElectrical,
			IsActive:    true,
		},
		{
			ID:          "maintenance",
			Name:        "Mantenimiento Preventivo",
			Description: "Checklist de mantenimiento preventivo",
			Category:    CategoryMaintenance,
			IsActive:    true,
		},
		{
			ID:          "inspection",
			Name:        "Inspección de Seguridad",
			Description: "Inspección de seguridad eléctrica",
			Category:    CategoryInspection,
			IsActive:    true,
		},
	}
}
