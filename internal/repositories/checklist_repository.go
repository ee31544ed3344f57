// checklist_repository.go implements the checklist record store. Records are
// stored one key per record with an enumeration index list alongside; the
// record write and the index write are separate operations, so List treats
// the records as the source of truth and skips index entries whose record is
// gone.
package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/checklist-rve/checklist-rve/internal/kv"
	"github.com/checklist-rve/checklist-rve/internal/models"
)

const checklistsIndexKey = "checklists"

// ChecklistRepository stores inspection submissions in the key-value store
type ChecklistRepository struct {
	store kv.Store
}

// NewChecklistRepository creates a ChecklistRepository
func NewChecklistRepository(store kv.Store) *ChecklistRepository {
	return &ChecklistRepository{store: store}
}

// NewChecklist describes a submission to persist
type NewChecklist struct {
	Type      string
	Data      map[string]any
	Source    string
	LinkToken string
	AutoSave  bool
}

// Create mints an id, stamps timestamps, stores the record, and appends the
// id to the enumeration index.
func (r *ChecklistRepository) Create(ctx context.Context, in NewChecklist) (*models.Checklist, error) {
	if len(in.Data) == 0 {
		return nil, fmt.Errorf("%w: checklist data is required", ErrInvalidInput)
	}
	if in.Source == "" {
		in.Source = models.SourceDirect
	}

	now := time.Now().UTC()
	record := &models.Checklist{
		ID:        NewChecklistID(),
		Type:      in.Type,
		Data:      in.Data,
		Source:    in.Source,
		LinkToken: in.LinkToken,
		AutoSave:  in.AutoSave,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.put(ctx, record); err != nil {
		return nil, err
	}
	if err := r.store.LPush(ctx, checklistsIndexKey, record.ID); err != nil {
		return nil, fmt.Errorf("indexing checklist: %w", err)
	}

	return record, nil
}

// Get looks up a record by id
func (r *ChecklistRepository) Get(ctx context.Context, id string) (*models.Checklist, error) {
	raw, found, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching checklist %s: %w", id, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: checklist %s", ErrNotFound, id)
	}

	var record models.Checklist
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decoding checklist %s: %w", id, err)
	}
	return &record, nil
}

// Update replaces the stored payload and refreshes the update timestamp.
// The id, source, link token, and creation timestamp are immutable.
func (r *ChecklistRepository) Update(ctx context.Context, id string, data map[string]any, autoSave bool) (*models.Checklist, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: checklist data is required", ErrInvalidInput)
	}

	record, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	record.Data = data
	record.AutoSave = autoSave
	record.UpdatedAt = time.Now().UTC()

	if err := r.put(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Delete removes the record and every occurrence of its id from the
// enumeration index.
func (r *ChecklistRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}

	if err := r.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting checklist %s: %w", id, err)
	}
	if err := r.store.LRem(ctx, checklistsIndexKey, id); err != nil {
		return fmt.Errorf("removing checklist %s from index: %w", id, err)
	}
	return nil
}

// List returns every record reachable through the enumeration index,
// newest first. Dangling index entries are skipped.
func (r *ChecklistRepository) List(ctx context.Context) ([]models.Checklist, error) {
	ids, err := r.store.LRange(ctx, checklistsIndexKey)
	if err != nil {
		return nil, fmt.Errorf("listing checklists: %w", err)
	}

	records := make([]models.Checklist, 0, len(ids))
	for _, id := range ids {
		record, err := r.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		records = append(records, *record)
	}
	return records, nil
}

// Count returns the number of indexed records
func (r *ChecklistRepository) Count(ctx context.Context) (int, error) {
	ids, err := r.store.LRange(ctx, checklistsIndexKey)
	if err != nil {
		return 0, fmt.Errorf("counting checklists: %w", err)
	}
	return len(ids), nil
}

func (r *ChecklistRepository) put(ctx context.Context, record *models.Checklist) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding checklist %s: %w", record.ID, err)
	}
	if err := r.store.Set(ctx, record.ID, raw); err != nil {
		return fmt.Errorf("storing checklist %s: %w", record.ID, err)
	}
	return nil
}
