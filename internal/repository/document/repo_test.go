package document

import (
	"context"
	"errors"
	"testing"

	"github.com/paperbase/semsearch/internal/domain"
)

func TestSaveAndGetRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)

	doc := domain.Document{
		ID:                 "doc-1",
		OwnerID:            "user-1",
		Name:               "passport_scan.pdf",
		Description:        "scanned passport",
		Category:           "identity",
		DocType:            "pdf",
		Embedding:          "[0.1,0.2]",
		EmbeddingGenerated: true,
	}
	if err := repo.Save(context.Background(), &doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Get(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != doc {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, doc)
	}
}

func TestGetNotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestFindMissingEmbeddings(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	seed := []domain.Document{
		{ID: "a", OwnerID: "u1", Name: "a.pdf"},
		{ID: "b", OwnerID: "u1", Name: "b.pdf", Embedding: "[1]", EmbeddingGenerated: true},
		{ID: "c", OwnerID: "u1", Name: "c.pdf"},
		{ID: "d", OwnerID: "u2", Name: "d.pdf"},
	}
	for i := range seed {
		if err := repo.Save(ctx, &seed[i]); err != nil {
			t.Fatalf("Save %s: %v", seed[i].ID, err)
		}
	}

	missing, err := repo.FindMissingEmbeddings(ctx, "u1")
	if err != nil {
		t.Fatalf("FindMissingEmbeddings: %v", err)
	}
	if len(missing) != 2 || missing[0].ID != "a" || missing[1].ID != "c" {
		t.Errorf("unexpected candidates: %+v", missing)
	}

	generated, err := repo.FindGenerated(ctx, "u1")
	if err != nil {
		t.Fatalf("FindGenerated: %v", err)
	}
	if len(generated) != 1 || generated[0].ID != "b" {
		t.Errorf("unexpected generated set: %+v", generated)
	}
}

func TestSearchByName(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	seed := []domain.Document{
		{ID: "a", OwnerID: "u1", Name: "Passport_Scan.pdf"},
		{ID: "b", OwnerID: "u1", Name: "invoice-march.pdf"},
		{ID: "c", OwnerID: "u1", Name: "old passport.jpg"},
	}
	for i := range seed {
		if err := repo.Save(ctx, &seed[i]); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	hits, err := repo.SearchByName(ctx, "u1", "PASSPORT")
	if err != nil {
		t.Fatalf("SearchByName: %v", err)
	}
	if len(hits) != 2 || hits[0].ID != "a" || hits[1].ID != "c" {
		t.Errorf("unexpected hits: %+v", hits)
	}

	empty, err := repo.SearchByName(ctx, "u1", "   ")
	if err != nil {
		t.Fatalf("SearchByName blank: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("blank query should match nothing, got %+v", empty)
	}
}

func TestFindAllStoreFailure(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.smembersFn = func(_ context.Context, _ string) ([]string, error) {
		return nil, errors.New("connection refused")
	}

	if _, err := repo.FindAll(context.Background(), "u1"); err == nil {
		t.Fatal("store failure must surface as a component-level error")
	}
}

func TestListOwners(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	seed := []domain.Document{
		{ID: "a", OwnerID: "u2", Name: "a.pdf"},
		{ID: "b", OwnerID: "u1", Name: "b.pdf"},
		{ID: "c", OwnerID: "u1", Name: "c.pdf"},
	}
	for i := range seed {
		if err := repo.Save(ctx, &seed[i]); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	owners, err := repo.ListOwners(ctx)
	if err != nil {
		t.Fatalf("ListOwners: %v", err)
	}
	if len(owners) != 2 || owners[0] != "u1" || owners[1] != "u2" {
		t.Errorf("unexpected owners: %v", owners)
	}
}

func TestDeleteRemovesOwnerIndex(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	doc := domain.Document{ID: "a", OwnerID: "u1", Name: "a.pdf"}
	if err := repo.Save(ctx, &doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	all, err := repo.FindAll(ctx, "u1")
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected empty owner set after delete, got %+v", all)
	}
}
