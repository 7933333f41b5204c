package models

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepo runs the lodging writes that must commit or roll back as a unit.
type PostgresRepo struct {
	pool *pgxpool.Pool
}

func PostgresNewRepo(pool *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{pool: pool}
}

func (pg *PostgresRepo) CreateLodging(ctx context.Context, lodging *Lodging, imageURLs []string) (int64, error) {
	tx, err := pg.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	var lodgingID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO hospedaje (name, brief_description, long_description, latitud, longitud, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		lodging.Name, lodging.BriefDescription, lodging.LongDescription,
		lodging.Latitud, lodging.Longitud, lodging.UserID,
	).Scan(&lodgingID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert lodging: %v", err)
	}

	for _, imageURL := range imageURLs {
		var imageID int64
		if err := tx.QueryRow(ctx,
			`INSERT INTO image (base64image, name) VALUES ($1, $2) RETURNING id`,
			imageURL, lodging.Name,
		).Scan(&imageID); err != nil {
			return 0, fmt.Errorf("failed to insert lodging image: %v", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO hospedaje_images (hospedaje_id, image_id) VALUES ($1, $2)`,
			lodgingID, imageID,
		); err != nil {
			return 0, fmt.Errorf("failed to link lodging image: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit lodging: %v", err)
	}
	lodging.ID = lodgingID
	return lodgingID, nil
}

func (pg *PostgresRepo) DeleteLodging(ctx context.Context, lodgingID int64) ([]string, error) {
	tx, err := pg.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT image_id FROM hospedaje_images WHERE hospedaje_id = $1`, lodgingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find lodging images: %v", err)
	}
	imageIDs, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to read lodging images: %v", err)
	}

	var urls []string
	if len(imageIDs) > 0 {
		rows, err := tx.Query(ctx, `SELECT base64image FROM image WHERE id = ANY($1)`, imageIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to find image urls: %v", err)
		}
		urls, err = pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return nil, fmt.Errorf("failed to read image urls: %v", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM hospedaje_images WHERE hospedaje_id = $1`, lodgingID); err != nil {
		return nil, fmt.Errorf("failed to unlink lodging images: %v", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM hospedaje WHERE id = $1`, lodgingID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete lodging: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("lodging %d: %w", lodgingID, ErrNotFound)
	}
	if len(imageIDs) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM image WHERE id = ANY($1)`, imageIDs); err != nil {
			return nil, fmt.Errorf("failed to delete lodging images: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit lodging delete: %v", err)
	}
	return urls, nil
}
