package index

import (
	"context"
	"errors"

	"github.com/kailas-cloud/itemdex/internal/db"
	"github.com/kailas-cloud/itemdex/internal/domain"
	"github.com/kailas-cloud/itemdex/internal/domain/search/query"
)

// buildIndex declares the item index: exact id, text name and category each
// with a keyword sub-field, integer year and two timestamps.
func buildIndex(name, prefix string) (*db.IndexDefinition, error) {
	return db.NewIndex(name).
		OnJSON().
		Prefix(prefix).
		Tag(query.FieldID).
		TextWithKeyword(query.FieldName, query.FieldNameKeyword, true).
		TextWithKeyword(query.FieldCategory, query.FieldCategoryKeyword, false).
		SortableNumeric(query.FieldYear).
		Date(query.FieldCreatedAt).
		Date(query.FieldUpdatedAt).
		Build()
}

// EnsureIndex creates the item index unless it already exists.
// Losing a creation race to another process is not an error.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.name)
	if err != nil {
		return domain.NewIndexError(domain.OpEnsureIndex, "", err)
	}
	if exists {
		return nil
	}

	def, err := buildIndex(r.name, r.prefix)
	if err != nil {
		return domain.NewIndexError(domain.OpEnsureIndex, "", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return domain.NewIndexError(domain.OpEnsureIndex, "", err)
	}
	return nil
}
