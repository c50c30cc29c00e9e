package memory

import (
	"context"
	"testing"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

func TestSaveGetReturnsIndependentCopies(t *testing.T) {
	store := New()
	ctx := context.Background()
	draft := &domain.Draft{
		ID:         "d-1",
		Source:     &domain.DocumentSource{Kind: domain.SourceFile, Data: []byte("pdf")},
		Categories: []string{"budget"},
	}
	if err := store.Save(ctx, draft); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	draft.Categories[0] = "changed"
	draft.Source.Data[0] = 'X'

	got, err := store.Get(ctx, "d-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Categories[0] != "budget" || string(got.Source.Data) != "pdf" {
		t.Fatalf("stored draft was mutated through caller: %+v", got)
	}
}

func TestGetMissingDraft(t *testing.T) {
	_, err := New().Get(context.Background(), "nope")
	if !domain.IsKind(err, domain.ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}
}

func TestLockIsExclusiveUntilReleased(t *testing.T) {
	store := New()
	ctx := context.Background()

	unlock, err := store.Lock(ctx, "d-1")
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if _, err := store.Lock(ctx, "d-1"); !domain.IsKind(err, domain.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if other, err := store.Lock(ctx, "d-2"); err != nil {
		t.Fatalf("locks must be per draft, got %v", err)
	} else {
		other()
	}

	unlock()
	unlock()
	relock, err := store.Lock(ctx, "d-1")
	if err != nil {
		t.Fatalf("Lock() after release error = %v", err)
	}
	relock()
}

func TestDeleteRemovesDraft(t *testing.T) {
	store := New()
	ctx := context.Background()
	_ = store.Save(ctx, &domain.Draft{ID: "d-1"})
	if err := store.Delete(ctx, "d-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "d-1"); !domain.IsKind(err, domain.ErrDraftNotFound) {
		t.Fatalf("expected deleted draft to be gone, got %v", err)
	}
}
