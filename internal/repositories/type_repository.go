// type_repository.go implements the checklist type catalog. The whole
// catalog lives under a single key as a JSON array; on first read the three
// built-in types are seeded. Seeding uses a compare-and-swap against the
// absent key so concurrent first readers write the defaults exactly once.
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/checklist-rve/checklist-rve/internal/kv"
	"github.com/checklist-rve/checklist-rve/internal/models"
)

const checklistTypesKey = "checklist_types"

// TypeRepository stores the checklist type catalog
type TypeRepository struct {
	store kv.Store
}

// NewTypeRepository creates a TypeRepository
func NewTypeRepository(store kv.Store) *TypeRepository {
	return &TypeRepository{store: store}
}

// List returns the catalog, seeding the built-in types when none exist yet
func (r *TypeRepository) List(ctx context.Context) ([]models.ChecklistType, error) {
	raw, found, err := r.store.Get(ctx, checklistTypesKey)
	if err != nil {
		return nil, fmt.Errorf("fetching checklist types: %w", err)
	}
	if found {
		return decodeTypes(raw)
	}

	now := time.Now().UTC()
	defaults := models.DefaultChecklistTypes()
	for i := range defaults {
		defaults[i].CreatedAt = now
		defaults[i].UpdatedAt = now
	}

	seeded, err := json.Marshal(defaults)
	if err != nil {
		return nil, fmt.Errorf("encoding checklist types: %w", err)
	}

	// A concurrent reader may have seeded between our read and this write.
	// Set would silently clobber its catalog, so write only if the key is
	// still absent and fall back to re-reading when someone else won.
	written, err := r.store.SetNX(ctx, checklistTypesKey, seeded)
	if err != nil {
		return nil, fmt.Errorf("seeding checklist types: %w", err)
	}
	if !written {
		raw, _, err := r.store.Get(ctx, checklistTypesKey)
		if err != nil {
			return nil, fmt.Errorf("fetching checklist types: %w", err)
		}
		return decodeTypes(raw)
	}
	return defaults, nil
}

// Create appends a new type to the catalog. The id, name, and description
// are required and the id must not collide with a stored type.
func (r *TypeRepository) Create(ctx context.Context, t models.ChecklistType) (*models.ChecklistType, error) {
	if t.ID == "" || t.Name == "" || t.Description == "" {
		return nil, fmt.Errorf("%w: id, name and description are required", ErrInvalidInput)
	}

	types, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, existing := range types {
		if existing.ID == t.ID {
			return nil, fmt.Errorf("%w: checklist type %s", ErrAlreadyExists, t.ID)
		}
	}

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := r.put(ctx, append(types, t)); err != nil {
		return nil, err
	}
	return &t, nil
}

// TypeUpdate carries the fields that may change on a catalog entry.
// Nil pointers leave the stored value untouched.
type TypeUpdate struct {
	Name        *string
	Description *string
	Category    *string
	IsActive    *bool
}

// Update merges the provided fields over the stored type and refreshes its
// update timestamp.
func (r *TypeRepository) Update(ctx context.Context, id string, upd TypeUpdate) (*models.ChecklistType, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}

	types, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range types {
		if types[i].ID != id {
			continue
		}
		if upd.Name != nil && *upd.Name != "" {
			types[i].Name = *upd.Name
		}
		if upd.Description != nil && *upd.Description != "" {
			types[i].Description = *upd.Description
		}
		if upd.Category != nil && *upd.Category != "" {
			types[i].Category = *upd.Category
		}
		if upd.IsActive != nil {
			types[i].IsActive = *upd.IsActive
		}
		types[i].UpdatedAt = time.Now().UTC()

		if err := r.put(ctx, types); err != nil {
			return nil, err
		}
		return &types[i], nil
	}

	return nil, fmt.Errorf("%w: checklist type %s", ErrNotFound, id)
}

func (r *TypeRepository) put(ctx context.Context, types []models.ChecklistType) error {
	raw, err := json.Marshal(types)
	if err != nil {
		return fmt.Errorf("encoding checklist types: %w", err)
	}
	if err := r.store.Set(ctx, checklistTypesKey, raw); err != nil {
		return fmt.Errorf("storing checklist types: %w", err)
	}
	return nil
}

func decodeTypes(raw []byte) ([]models.ChecklistType, error) {
	var types []models.ChecklistType
	if err := json.Unmarshal(raw, &types); err != nil {
		return nil, fmt.Errorf("decoding checklist types: %w", err)
	}
	return types, nil
}
