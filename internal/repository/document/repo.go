// Package document persists documents as Redis hashes with a per-owner id set.
package document

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/paperbase/semsearch/internal/domain"
)

const (
	docKeyPrefix   = "semsearch:doc:"
	ownerKeyPrefix = "semsearch:owner:"
)

// store is the consumer interface for documents (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the document store collaborator used by the pipeline and
// the search engines.
type Repo struct {
	store store
}

// New creates a document repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Save persists a document. The embedding text and the generated flag are
// written in the same HSET, so the flag can never observe a half-written
// vector.
func (r *Repo) Save(ctx context.Context, doc *domain.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	if err := r.store.HSet(ctx, docKey(doc.ID), docToFields(doc)); err != nil {
		return fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	if err := r.store.SAdd(ctx, ownerKey(doc.OwnerID), doc.ID); err != nil {
		return fmt.Errorf("index document %s for owner %s: %w", doc.ID, doc.OwnerID, err)
	}
	return nil
}

// Get returns a document by ID.
func (r *Repo) Get(ctx context.Context, id string) (domain.Document, error) {
	fields, err := r.store.HGetAll(ctx, docKey(id))
	if err != nil {
		return domain.Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	if len(fields) == 0 {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	return docFromFields(id, fields), nil
}

// Delete removes a document and its owner-set entry.
func (r *Repo) Delete(ctx context.Context, id string) error {
	doc, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.Del(ctx, docKey(id)); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if err := r.store.SRem(ctx, ownerKey(doc.OwnerID), id); err != nil {
		return fmt.Errorf("unindex document %s: %w", id, err)
	}
	return nil
}

// FindAll returns every document of an owner, id-sorted for determinism.
func (r *Repo) FindAll(ctx context.Context, ownerID string) ([]domain.Document, error) {
	return r.findFiltered(ctx, ownerID, func(_ domain.Document) bool { return true })
}

// FindMissingEmbeddings returns the owner's documents without a generated
// embedding, the fill-gaps pipeline candidate set.
func (r *Repo) FindMissingEmbeddings(ctx context.Context, ownerID string) ([]domain.Document, error) {
	return r.findFiltered(ctx, ownerID, func(d domain.Document) bool {
		return !d.EmbeddingGenerated
	})
}

// FindGenerated returns the owner's documents that carry a generated
// embedding, the semantic-search candidate set.
func (r *Repo) FindGenerated(ctx context.Context, ownerID string) ([]domain.Document, error) {
	return r.findFiltered(ctx, ownerID, func(d domain.Document) bool {
		return d.EmbeddingGenerated
	})
}

// SearchByName returns the owner's documents whose display name contains the
// query, case-insensitive.
func (r *Repo) SearchByName(ctx context.Context, ownerID, query string) ([]domain.Document, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, nil
	}
	return r.findFiltered(ctx, ownerID, func(d domain.Document) bool {
		return strings.Contains(strings.ToLower(d.Name), needle)
	})
}

func (r *Repo) findFiltered(
	ctx context.Context, ownerID string, keep func(domain.Document) bool,
) ([]domain.Document, error) {
	ids, err := r.store.SMembers(ctx, ownerKey(ownerID))
	if err != nil {
		return nil, fmt.Errorf("list documents for owner %s: %w", ownerID, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(id)
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch documents for owner %s: %w", ownerID, err)
	}

	docs := make([]domain.Document, 0, len(ids))
	for i, fields := range hashes {
		if len(fields) == 0 {
			// Stale set entry; the document hash was removed out-of-band.
			continue
		}
		doc := docFromFields(ids[i], fields)
		if keep(doc) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// ListOwners returns every owner with at least one indexed document,
// id-sorted. The background fill-gaps worker iterates this set.
func (r *Repo) ListOwners(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, ownerKeyPrefix+"*:docs")
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}

	owners := make([]string, 0, len(keys))
	for _, key := range keys {
		id := strings.TrimSuffix(strings.TrimPrefix(key, ownerKeyPrefix), ":docs")
		if id != "" {
			owners = append(owners, id)
		}
	}
	sort.Strings(owners)
	return owners, nil
}

func docKey(id string) string {
	return docKeyPrefix + id
}

func ownerKey(ownerID string) string {
	return ownerKeyPrefix + ownerID + ":docs"
}
