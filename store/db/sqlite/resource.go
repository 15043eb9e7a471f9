package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/atelierhq/atelier/store"
)

func (d *DB) CreateResource(ctx context.Context, create *store.Resource) (*store.Resource, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}

	stmt := `
		INSERT INTO resource (
			id, name, url, description, category_id, tags,
			rating_quality, rating_usability, rating_visual, rating_count,
			curator_note, is_featured, created_ts, view_count, favorite_count
		)
		VALUES (` + placeholders(15) + `)
	`
	_, err := d.db.ExecContext(ctx, stmt,
		create.ID,
		create.Name,
		create.URL,
		create.Description,
		create.CategoryID,
		joinTags(create.Tags),
		create.Rating.Quality,
		create.Rating.Usability,
		create.Rating.Visual,
		create.Rating.Count,
		create.CuratorNote,
		create.IsFeatured,
		create.CreatedTs,
		create.ViewCount,
		create.FavoriteCount,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create resource")
	}
	return create, nil
}

func (d *DB) ListResources(ctx context.Context, find *store.FindResource) ([]*store.Resource, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.CategoryID != nil {
		where, args = append(where, "category_id = ?"), append(args, *find.CategoryID)
	}
	if find.Featured != nil {
		where, args = append(where, "is_featured = ?"), append(args, *find.Featured)
	}
	if find.MinRating != nil {
		where, args = append(where, "(rating_quality + rating_usability + rating_visual) / 3 >= ?"), append(args, *find.MinRating)
	}

	query := `
		SELECT
			id, name, url, description, category_id, tags,
			rating_quality, rating_usability, rating_visual, rating_count,
			curator_note, is_featured, created_ts, view_count, favorite_count
		FROM resource
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts ASC, id ASC
	`
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list resources")
	}
	defer rows.Close()

	list := []*store.Resource{}
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, resource)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) UpdateResource(ctx context.Context, update *store.UpdateResource) error {
	set, args := []string{}, []any{}

	if update.Name != nil {
		set, args = append(set, "name = ?"), append(args, *update.Name)
	}
	if update.URL != nil {
		set, args = append(set, "url = ?"), append(args, *update.URL)
	}
	if update.Description != nil {
		set, args = append(set, "description = ?"), append(args, *update.Description)
	}
	if update.CategoryID != nil {
		set, args = append(set, "category_id = ?"), append(args, *update.CategoryID)
	}
	if update.Tags != nil {
		set, args = append(set, "tags = ?"), append(args, joinTags(update.Tags))
	}
	if update.CuratorNote != nil {
		set, args = append(set, "curator_note = ?"), append(args, *update.CuratorNote)
	}
	if update.IsFeatured != nil {
		set, args = append(set, "is_featured = ?"), append(args, *update.IsFeatured)
	}
	if update.ViewCount != nil {
		set, args = append(set, "view_count = ?"), append(args, *update.ViewCount)
	}
	if update.FavoriteCount != nil {
		set, args = append(set, "favorite_count = ?"), append(args, *update.FavoriteCount)
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, update.ID)
	stmt := "UPDATE resource SET " + strings.Join(set, ", ") + " WHERE id = ?"
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to update resource")
	}
	return nil
}

func (d *DB) DeleteResource(ctx context.Context, delete *store.DeleteResource) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM resource WHERE id = ?", delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete resource")
	}
	return nil
}

// UpsertResourceEmbedding is NOT supported for SQLite.
// Vector storage requires PostgreSQL with the pgvector extension; the
// in-memory semantic index is used instead.
func (d *DB) UpsertResourceEmbedding(_ context.Context, _ string, _ string, _ []float32) error {
	return store.ErrVectorSearchUnsupported
}

// SearchResourcesByVector is NOT supported for SQLite.
func (d *DB) SearchResourcesByVector(_ context.Context, _ []float32, _ int) ([]*store.Resource, []float32, error) {
	return nil, nil, store.ErrVectorSearchUnsupported
}

// GetResourceEmbedding is NOT supported for SQLite.
func (d *DB) GetResourceEmbedding(_ context.Context, _ string, _ string) ([]float32, error) {
	return nil, store.ErrVectorSearchUnsupported
}

// CountResourceEmbeddings is NOT supported for SQLite.
func (d *DB) CountResourceEmbeddings(_ context.Context, _ string) (int, error) {
	return 0, store.ErrVectorSearchUnsupported
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResource(row rowScanner) (*store.Resource, error) {
	var resource store.Resource
	var tags string
	err := row.Scan(
		&resource.ID,
		&resource.Name,
		&resource.URL,
		&resource.Description,
		&resource.CategoryID,
		&tags,
		&resource.Rating.Quality,
		&resource.Rating.Usability,
		&resource.Rating.Visual,
		&resource.Rating.Count,
		&resource.CuratorNote,
		&resource.IsFeatured,
		&resource.CreatedTs,
		&resource.ViewCount,
		&resource.FavoriteCount,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan resource")
	}
	resource.Tags = splitTags(tags)
	return &resource, nil
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
