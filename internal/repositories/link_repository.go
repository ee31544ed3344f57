// link_repository.go implements the single-use link manager. A link moves
// through exactly one lifecycle: issued, then either consumed or expired.
// The issued-to-consumed transition is a compare-and-swap on the full stored
// record, so two concurrent resolve calls can never both claim the same
// token. The checklist record is only written after the claim succeeds,
// which keeps record creation at-most-once as well.
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

const (
	linkKeyPrefix       = "link_"
	activeLinksIndexKey = "active_links"

	// resolveRetries bounds the claim loop when a concurrent writer touched
	// the link between our read and our swap
	resolveRetries = 3
)

// LinkRepository issues and consumes single-use checklist links
type LinkRepository struct {
	store      kv.Store
	checklists *ChecklistRepository
	ttl        time.Duration
}

// NewLinkRepository creates a LinkRepository. ttl is the validity window
// stamped on issued links.
func NewLinkRepository(store kv.Store, checklists *ChecklistRepository, ttl time.Duration) *LinkRepository {
	return &LinkRepository{store: store, checklists: checklists, ttl: ttl}
}

func linkKey(token string) string {
	return linkKeyPrefix + token
}

// Issue creates a new link in the issued state and appends its token to the
// active-links index.
func (r *LinkRepository) Issue(ctx context.Context, checklistType, createdBy string, metadata map[string]any) (*models.Link, error) {
	if checklistType == "" {
		checklistType = "rve"
	}

	now := time.Now().UTC()
	link := &models.Link{
		Token:     NewLinkToken(),
		Used:      false,
		CreatedBy: createdBy,
		Metadata:  metadata,
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
	}
	if link.Metadata == nil {
		link.Metadata = map[string]any{}
	}
	link.Metadata["checklistType"] = checklistType

	raw, err := json.Marshal(link)
	if err != nil {
		return nil, fmt.Errorf("encoding link: %w", err)
	}
	if err := r.store.Set(ctx, linkKey(link.Token), raw); err != nil {
		return nil, fmt.Errorf("storing link: %w", err)
	}
	if err := r.store.LPush(ctx, activeLinksIndexKey, link.Token); err != nil {
		return nil, fmt.Errorf("indexing link: %w", err)
	}

	return link, nil
}

// Validate returns the link for token without mutating it. It fails with
// ErrNotFound for unknown tokens, ErrLinkUsed for consumed links, and
// ErrLinkExpired once the validity window has passed.
func (r *LinkRepository) Validate(ctx context.Context, token string) (*models.Link, error) {
	link, _, err := r.get(ctx, token)
	if err != nil {
		return nil, err
	}
	if link.Used {
		return nil, fmt.Errorf("%w: %s", ErrLinkUsed, token)
	}
	if link.Expired(time.Now().UTC()) {
		return nil, fmt.Errorf("%w: %s", ErrLinkExpired, token)
	}
	return link, nil
}

// Resolve consumes the link and creates the checklist record it gated.
// The transition is claimed with a compare-and-swap before the record is
// written, so at most one resolve per token ever succeeds.
func (r *LinkRepository) Resolve(ctx context.Context, token string, data map[string]any, checklistType string) (*models.Checklist, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: checklist data is required", ErrInvalidInput)
	}

	for attempt := 0; attempt < resolveRetries; attempt++ {
		link, raw, err := r.get(ctx, token)
		if err != nil {
			return nil, err
		}
		if link.Used {
			return nil, fmt.Errorf("%w: %s", ErrLinkUsed, token)
		}
		now := time.Now().UTC()
		if link.Expired(now) {
			return nil, fmt.Errorf("%w: %s", ErrLinkExpired, token)
		}

		if checklistType == "" {
			if t, ok := link.Metadata["checklistType"].(string); ok {
				checklistType = t
			}
		}

		// Mint the record id up front so the claim and the record agree
		checklistID := NewChecklistID()

		claimed := *link
		claimed.Used = true
		claimed.ChecklistID = checklistID
		claimed.UsedAt = &now

		claimedRaw, err := json.Marshal(&claimed)
		if err != nil {
			return nil, fmt.Errorf("encoding link: %w", err)
		}

		swapped, err := r.store.CompareAndSwap(ctx, linkKey(token), raw, claimedRaw)
		if err != nil {
			return nil, fmt.Errorf("claiming link %s: %w", token, err)
		}
		if !swapped {
			// Lost the race; re-read and either report consumption or retry
			continue
		}

		record := &models.Checklist{
			ID:        checklistID,
			Type:      checklistType,
			Data:      data,
			Source:    models.SourceLink,
			LinkToken: token,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := r.checklists.put(ctx, record); err != nil {
			return nil, err
		}
		if err := r.store.LPush(ctx, checklistsIndexKey, record.ID); err != nil {
			return nil, fmt.Errorf("indexing checklist: %w", err)
		}
		return record, nil
	}

	// Every attempt found the link changed under us; by now it is consumed
	return nil, fmt.Errorf("%w: %s", ErrLinkUsed, token)
}

// ListActive returns every link still present in the active-links index
func (r *LinkRepository) ListActive(ctx context.Context) ([]models.Link, error) {
	tokens, err := r.store.LRange(ctx, activeLinksIndexKey)
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}

	links := make([]models.Link, 0, len(tokens))
	for _, token := range tokens {
		link, _, err := r.get(ctx, token)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		links = append(links, *link)
	}
	return links, nil
}

// Sweep prunes the active-links index, removing tokens whose link is
// consumed or past its validity window. Link records themselves are kept
// for audit. Returns the number of tokens pruned.
func (r *LinkRepository) Sweep(ctx context.Context, now time.Time) (int, error) {
	tokens, err := r.store.LRange(ctx, activeLinksIndexKey)
	if err != nil {
		return 0, fmt.Errorf("listing links: %w", err)
	}

	pruned := 0
	for _, token := range tokens {
		link, _, err := r.get(ctx, token)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// Dangling index entry
				if err := r.store.LRem(ctx, activeLinksIndexKey, token); err != nil {
					return pruned, fmt.Errorf("pruning link %s: %w", token, err)
				}
				pruned++
				continue
			}
			return pruned, err
		}
		if link.Used || link.Expired(now) {
			if err := r.store.LRem(ctx, activeLinksIndexKey, token); err != nil {
				return pruned, fmt.Errorf("pruning link %s: %w", token, err)
			}
			pruned++
		}
	}
	return pruned, nil
}

// CountActive returns the number of indexed links
func (r *LinkRepository) CountActive(ctx context.Context) (int, error) {
	tokens, err := r.store.LRange(ctx, activeLinksIndexKey)
	if err != nil {
		return 0, fmt.Errorf("counting links: %w", err)
	}
	return len(tokens), nil
}

func (r *LinkRepository) get(ctx context.Context, token string) (*models.Link, []byte, error) {
	raw, found, err := r.store.Get(ctx, linkKey(token))
	if err != nil {
		return nil, nil, fmt.Errorf("fetching link %s: %w", token, err)
	}
	if !found {
		return nil, nil, fmt.Errorf("%w: link %s", ErrNotFound, token)
	}

	var link models.Link
	if err := json.Unmarshal(raw, &link); err != nil {
		return nil, nil, fmt.Errorf("decoding link %s: %w", token, err)
	}
	if link.Token == "" {
		link.Token = token
	}
	return &link, raw, nil
}
