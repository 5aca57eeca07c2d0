package app

import (
	"context"

	"manualpilot/internal/model"
	"manualpilot/internal/vectorstore"
)

// ManualService exposes the manual library: listing and deletion. Deleting a
// manual removes all of its chunks with it.
type ManualService struct {
	store vectorstore.Store
}

func NewManualService(store vectorstore.Store) *ManualService {
	return &ManualService{store: store}
}

func (s *ManualService) List(ctx context.Context) ([]model.Manual, error) {
	return s.store.ListManuals(ctx)
}

func (s *ManualService) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return vectorstore.ErrManualNotFound
	}
	return s.store.DeleteManual(ctx, id)
}
