package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/cursos-bot/internal/model"
)

const orderColumns = `id, title, price_cents, price_label, name, surname, email, phone, channel,
	payment_method, proof_reference, proof_date, status, confirmed, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o          model.Order
		priceCents int64
		channel    string
		status     string
	)

	err := row.Scan(
		&o.ID, &o.Title, &priceCents, &o.PriceLabel, &o.Name, &o.Surname, &o.Email, &o.Phone, &channel,
		&o.PaymentMethod, &o.Proof.Reference, &o.Proof.Date, &status, &o.Confirmed, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Price = fromCents(priceCents)
	o.Channel = model.Channel(channel)
	o.Status = model.OrderStatus(status)

	return &o, nil
}

// CreateOrder сохраняет новый заказ и заполняет его временные метки.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	cents, err := toCents(o.Price)
	if err != nil {
		return err
	}

	err = r.withRetry(ctx, func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO orders (id, title, price_cents, price_label, name, surname, email, phone, channel,
				payment_method, proof_reference, proof_date, status, confirmed)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			 RETURNING created_at, updated_at`,
			o.ID, o.Title, cents, o.PriceLabel, o.Name, o.Surname, o.Email, o.Phone, string(o.Channel),
			o.PaymentMethod, o.Proof.Reference, o.Proof.Date, string(o.Status), o.Confirmed,
		).Scan(&o.CreatedAt, &o.UpdatedAt)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrOrderExists, o.ID)
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// GetOrder возвращает заказ по идентификатору.
func (r *PostgresRepository) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	var o *model.Order
	err := r.withRetry(ctx, func() error {
		var err error
		o, err = scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// ListOrders возвращает все заказы, начиная с самых новых.
func (r *PostgresRepository) ListOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order

	err := r.withRetry(ctx, func() error {
		orders = orders[:0]

		rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			o, err := scanOrder(rows)
			if err != nil {
				return fmt.Errorf("scan order: %w", err)
			}
			orders = append(orders, *o)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}

	return orders, nil
}

// UpdateOrderStatus переводит заказ из статуса from в статус to.
// Если статус успел измениться, возвращает ErrOrderStatusChanged.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, id string, from, to model.OrderStatus) (*model.Order, error) {
	var o *model.Order
	err := r.withRetry(ctx, func() error {
		var err error
		o, err = scanOrder(r.pool.QueryRow(ctx,
			`UPDATE orders SET status = $3, updated_at = now()
			 WHERE id = $1 AND status = $2
			 RETURNING `+orderColumns,
			id, string(from), string(to),
		))
		return err
	})
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	if _, err := r.GetOrder(ctx, id); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s", ErrOrderStatusChanged, id)
}

// ConfirmOrder отмечает заказ как подтверждённый покупателем.
func (r *PostgresRepository) ConfirmOrder(ctx context.Context, id string) (*model.Order, error) {
	var o *model.Order
	err := r.withRetry(ctx, func() error {
		var err error
		o, err = scanOrder(r.pool.QueryRow(ctx,
			`UPDATE orders SET confirmed = TRUE, updated_at = now() WHERE id = $1 RETURNING `+orderColumns,
			id,
		))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("confirm order: %w", err)
	}
	return o, nil
}
