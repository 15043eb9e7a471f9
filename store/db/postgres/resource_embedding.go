package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/atelierhq/atelier/store"
)

// UpsertResourceEmbedding inserts or updates a resource embedding.
func (d *DB) UpsertResourceEmbedding(ctx context.Context, resourceID string, model string, embedding []float32) error {
	stmt := `
		INSERT INTO resource_embedding (resource_id, embedding, model, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (resource_id, model)
		DO UPDATE SET
			embedding = EXCLUDED.embedding,
			updated_ts = EXCLUDED.updated_ts
	`
	now := time.Now().Unix()
	vector := pgvector.NewVector(embedding)
	if _, err := d.db.ExecContext(ctx, stmt, resourceID, vector, model, now); err != nil {
		return errors.Wrap(err, "failed to upsert resource embedding")
	}
	return nil
}

// GetResourceEmbedding returns the stored embedding for a resource, or
// nil if none exists.
func (d *DB) GetResourceEmbedding(ctx context.Context, resourceID string, model string) ([]float32, error) {
	var vector pgvector.Vector
	err := d.db.QueryRowContext(ctx,
		"SELECT embedding FROM resource_embedding WHERE resource_id = $1 AND model = $2",
		resourceID, model,
	).Scan(&vector)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get resource embedding")
	}
	return vector.Slice(), nil
}

// CountResourceEmbeddings returns the number of stored embeddings for
// the given model.
func (d *DB) CountResourceEmbeddings(ctx context.Context, model string) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM resource_embedding WHERE model = $1", model,
	).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count resource embeddings")
	}
	return count, nil
}

// SearchResourcesByVector performs cosine-similarity search through
// pgvector. The <=> operator returns cosine distance, so similarity is
// 1 - distance.
func (d *DB) SearchResourcesByVector(ctx context.Context, embedding []float32, limit int) ([]*store.Resource, []float32, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT
			r.id, r.name, r.url, r.description, r.category_id, r.tags,
			r.rating_quality, r.rating_usability, r.rating_visual, r.rating_count,
			r.curator_note, r.is_featured, r.created_ts, r.view_count, r.favorite_count,
			1 - (e.embedding <=> $1) AS similarity
		FROM resource_embedding e
		JOIN resource r ON r.id = e.resource_id
		ORDER BY e.embedding <=> $1
		LIMIT $2
	`

	rows, err := d.db.QueryContext(ctx, query, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to search resources by vector")
	}
	defer rows.Close()

	resources := []*store.Resource{}
	scores := []float32{}
	for rows.Next() {
		var resource store.Resource
		var tags string
		var similarity float32
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
			&similarity,
		)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to scan resource with score")
		}
		if tags != "" {
			resource.Tags = strings.Split(tags, ",")
		}
		resources = append(resources, &resource)
		scores = append(scores, similarity)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return resources, scores, nil
}
