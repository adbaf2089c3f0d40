package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mmeshcher/cursos-bot/internal/model"
)

// CreateCollection сохраняет новую коллекцию каталога.
func (r *PostgresRepository) CreateCollection(ctx context.Context, c *model.Collection) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO collections (id, name) VALUES ($1, $2) RETURNING created_at`,
		c.ID, c.Name,
	).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// ListCollections возвращает коллекции вместе с товарами.
func (r *PostgresRepository) ListCollections(ctx context.Context) ([]model.Collection, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at FROM collections ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("select collections: %w", err)
	}
	defer rows.Close()

	var res []model.Collection
	index := make(map[string]int)
	for rows.Next() {
		var c model.Collection
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		c.Items = []model.Item{}
		index[c.ID] = len(res)
		res = append(res, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	itemRows, err := r.pool.Query(ctx,
		`SELECT id, collection_id, name, description, price_cents, image FROM items ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		it, err := scanItem(itemRows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if i, ok := index[it.CollectionID]; ok {
			res[i].Items = append(res[i].Items, *it)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

func scanItem(row pgx.Row) (*model.Item, error) {
	var (
		it         model.Item
		priceCents int64
	)
	if err := row.Scan(&it.ID, &it.CollectionID, &it.Name, &it.Description, &priceCents, &it.Image); err != nil {
		return nil, err
	}
	it.Price = fromCents(priceCents)
	return &it, nil
}

// AddItem добавляет товар в коллекцию.
func (r *PostgresRepository) AddItem(ctx context.Context, it *model.Item) error {
	cents, err := toCents(it.Price)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO items (id, collection_id, name, description, price_cents, image) VALUES ($1, $2, $3, $4, $5, $6)`,
		it.ID, it.CollectionID, it.Name, it.Description, cents, it.Image,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return ErrCollectionNotFound
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// GetItem возвращает товар каталога.
func (r *PostgresRepository) GetItem(ctx context.Context, id string) (*model.Item, error) {
	it, err := scanItem(r.pool.QueryRow(ctx,
		`SELECT id, collection_id, name, description, price_cents, image FROM items WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// DeleteItem удаляет товар каталога.
func (r *PostgresRepository) DeleteItem(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// IncrementVisits увеличивает счётчик посещений и возвращает новое значение.
func (r *PostgresRepository) IncrementVisits(ctx context.Context, name string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO visits (name, count) VALUES ($1, 1)
		 ON CONFLICT (name) DO UPDATE SET count = visits.count + 1, updated_at = now()
		 RETURNING count`,
		name,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("increment visits: %w", err)
	}
	return count, nil
}

// GetVisits возвращает текущее значение счётчика посещений.
func (r *PostgresRepository) GetVisits(ctx context.Context, name string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT count FROM visits WHERE name = $1`, name).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get visits: %w", err)
	}
	return count, nil
}
