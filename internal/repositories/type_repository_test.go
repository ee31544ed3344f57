package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/checklist-rve/checklist-rve/internal/kv"
	"github.com/checklist-rve/checklist-rve/internal/models"
)

func newTypeRepo() (*TypeRepository, *kv.MemoryStore) {
	store := kv.NewMemoryStore()
	return NewTypeRepository(store), store
}

// ---------------------------------------------------------------------------
// List / seeding
// ---------------------------------------------------------------------------

func TestListTypesSeedsDefaults(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTypeRepo()

	types, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(types) != 3 {
		t.Fatalf("List() returned %d types, want 3 defaults", len(types))
	}

	wantIDs := map[string]string{
		"rve":         "Instalación RVE",
		"maintenance": "Mantenimiento Preventivo",
		"inspection":  "Inspección de Seguridad",
	}
	for _, typ := range types {
		wantName, ok := wantIDs[typ.ID]
		if !ok {
			t.Errorf("unexpected default type %q", typ.ID)
			continue
		}
		if typ.Name != wantName {
			t.Errorf("type %s name = %q, want %q", typ.ID, typ.Name, wantName)
		}
		if !typ.IsActive {
			t.Errorf("type %s not active", typ.ID)
		}
		if typ.CreatedAt.IsZero() {
			t.Errorf("type %s missing timestamps", typ.ID)
		}
	}
}

// Repeated reads against an empty store must seed the defaults exactly once
func TestListTypesSeedingIdempotent(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTypeRepo()

	first, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	second, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("List() sizes = %d, %d, want 3 and 3", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || !first[i].CreatedAt.Equal(second[i].CreatedAt) {
			t.Errorf("second List() differs at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestListTypesSeedingConcurrent(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTypeRepo()

	const readers = 16
	var wg sync.WaitGroup
	results := make([][]models.ChecklistType, readers)

	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			types, err := repo.List(ctx)
			if err != nil {
				t.Errorf("List() error = %v", err)
				return
			}
			results[n] = types
		}(i)
	}
	wg.Wait()

	for n, types := range results {
		if len(types) != 3 {
			t.Errorf("reader %d saw %d types, want 3", n, len(types))
		}
	}
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCreateType(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTypeRepo()

	created, err := repo.Create(ctx, models.ChecklistType{
		ID:          "solar",
		Name:        "Instalación Solar",
		Description: "Checklist de paneles solares",
		Category:    models.CategoryElectrical,
		IsActive:    true,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("timestamps not stamped")
	}

	types, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(types) != 4 {
		t.Errorf("List() returned %d types, want 4", len(types))
	}
}

func TestCreateTypeValidation(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTypeRepo()

	tests := []struct {
		name string
		typ  models.ChecklistType
	}{
		{"missing id", models.ChecklistType{Name: "X", Description: "Y"}},
		{"missing name", models.ChecklistType{ID: "x", Description: "Y"}},
		{"missing description", models.ChecklistType{ID: "x", Name: "X"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := repo.Create(ctx, tt.typ); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Create() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestCreateTypeDuplicate(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTypeRepo()

	// "rve" is one of the seeded defaults
	_, err := repo.Create(ctx, models.ChecklistType{
		ID:          "rve",
		Name:        "Otro RVE",
		Description: "duplicado",
	})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("Create() error = %v, want ErrAlreadyExists", err)
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestUpdateType(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTypeRepo()

	name := "Instalación RVE v2"
	inactive := false
	updated, err := repo.Update(ctx, "rve", TypeUpdate{Name: &name, IsActive: &inactive})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != name {
		t.Errorf("Name = %q, want %q", updated.Name, name)
	}
	if updated.IsActive {
		t.Error("IsActive = true, want false")
	}
	// Untouched fields survive the merge
	if updated.Description != "Revisión de Medidores y Equipos" {
		t.Errorf("Description changed unexpectedly: %q", updated.Description)
	}
}

func TestUpdateTypeNotFound(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTypeRepo()

	name := "X"
	if _, err := repo.Update(ctx, "nuclear", TypeUpdate{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
	if _, err := repo.Update(ctx, "", TypeUpdate{Name: &name}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Update() with empty id error = %v, want ErrInvalidInput", err)
	}
}
