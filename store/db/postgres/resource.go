package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/atelierhq/atelier/store"
)

// placeholder returns the n-th PostgreSQL placeholder ($1, $2, ...).
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func placeholders(n int) string {
	list := []string{}
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}

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
		strings.Join(create.Tags, ","),
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
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.CategoryID != nil {
		where, args = append(where, "category_id = "+placeholder(len(args)+1)), append(args, *find.CategoryID)
	}
	if find.Featured != nil {
		where, args = append(where, "is_featured = "+placeholder(len(args)+1)), append(args, *find.Featured)
	}
	if find.MinRating != nil {
		where, args = append(where, "(rating_quality + rating_usability + rating_visual) / 3 >= "+placeholder(len(args)+1)), append(args, *find.MinRating)
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
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list resources")
	}
	defer rows.Close()

	list := []*store.Resource{}
	for rows.Next() {
		var resource store.Resource
		var tags string
		err := rows.Scan(
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
		if tags != "" {
			resource.Tags = strings.Split(tags, ",")
		}
		list = append(list, &resource)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) UpdateResource(ctx context.Context, update *store.UpdateResource) error {
	set, args := []string{}, []any{}

	if update.Name != nil {
		set, args = append(set, "name = "+placeholder(len(args)+1)), append(args, *update.Name)
	}
	if update.URL != nil {
		set, args = append(set, "url = "+placeholder(len(args)+1)), append(args, *update.URL)
	}
	if update.Description != nil {
		set, args = append(set, "description = "+placeholder(len(args)+1)), append(args, *update.Description)
	}
	if update.CategoryID != nil {
		set, args = append(set, "category_id = "+placeholder(len(args)+1)), append(args, *update.CategoryID)
	}
	if update.Tags != nil {
		set, args = append(set, "tags = "+placeholder(len(args)+1)), append(args, strings.Join(update.Tags, ","))
	}
	if update.CuratorNote != nil {
		set, args = append(set, "curator_note = "+placeholder(len(args)+1)), append(args, *update.CuratorNote)
	}
	if update.IsFeatured != nil {
		set, args = append(set, "is_featured = "+placeholder(len(args)+1)), append(args, *update.IsFeatured)
	}
	if update.ViewCount != nil {
		set, args = append(set, "view_count = "+placeholder(len(args)+1)), append(args, *update.ViewCount)
	}
	if update.FavoriteCount != nil {
		set, args = append(set, "favorite_count = "+placeholder(len(args)+1)), append(args, *update.FavoriteCount)
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, update.ID)
	stmt := "UPDATE resource SET " + strings.Join(set, ", ") + " WHERE id = " + placeholder(len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to update resource")
	}
	return nil
}

func (d *DB) DeleteResource(ctx context.Context, delete *store.DeleteResource) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM resource WHERE id = $1", delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete resource")
	}
	return nil
}
