// Package catalog implements drag-and-drop reordering of catalog lists.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/KAYner2/Theame-sub000/internal/store"
)

var (
	ErrOutOfRange = errors.New("index out of range")
	ErrDuplicate  = errors.New("duplicate id")
	ErrEmpty      = errors.New("empty id list")
)

// Move returns a copy of ids with the element at from moved to to, as a sortable list does on drop.
func Move(ids []string, from, to int) ([]string, error) {
	if from < 0 || from >= len(ids) || to < 0 || to >= len(ids) {
		return nil, fmt.Errorf("%w: from=%d to=%d len=%d", ErrOutOfRange, from, to, len(ids))
	}
	out := make([]string, 0, len(ids))
	moved := ids[from]
	for i, id := range ids {
		if i != from {
			out = append(out, id)
		}
	}
	out = append(out[:to], append([]string{moved}, out[to:]...)...)
	return out, nil
}

// SortOrderWriter persists positions; store.Store satisfies it.
type SortOrderWriter interface {
	UpdateSortOrder(ctx context.Context, kind string, ids []string) error
}

type Reorderer struct {
	Store SortOrderWriter
}

// Apply writes sort_order = index for every id of kind.
func (r *Reorderer) Apply(ctx context.Context, kind string, ids []string) error {
	if !store.ValidKind(kind) {
		return fmt.Errorf("%w: %q", store.ErrUnknownKind, kind)
	}
	if len(ids) == 0 {
		return ErrEmpty
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return fmt.Errorf("%w: blank id", ErrDuplicate)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicate, id)
		}
		seen[id] = struct{}{}
	}
	return r.Store.UpdateSortOrder(ctx, kind, ids)
}
