package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/cursos-bot/internal/model"
)

var leadColumns = []string{
	"phone", "name", "first_seen", "last_seen", "last_message", "history", "emotion", "last_intent",
	"product_of_interest", "product_purchased", "order_id", "payment_proof", "payment_method",
	"payment_status", "email", "surname", "access_password", "awaiting_proof", "awaiting_payment_method",
	"language", "access_notified_at", "created_at", "updated_at",
}

var leadReturning = "RETURNING " + strings.Join(leadColumns, ", ")

func scanLead(row pgx.Row) (*model.Lead, error) {
	var (
		l       model.Lead
		history []byte
		status  string
	)

	err := row.Scan(
		&l.Phone, &l.Name, &l.FirstSeen, &l.LastSeen, &l.LastMessage, &history, &l.Emotion, &l.LastIntent,
		&l.ProductOfInterest, &l.ProductPurchased, &l.OrderID, &l.PaymentProof, &l.PaymentMethod,
		&status, &l.Email, &l.Surname, &l.AccessPassword, &l.AwaitingProof, &l.AwaitingPaymentMethod,
		&l.Language, &l.AccessNotifiedAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.PaymentStatus = model.PaymentStatus(status)
	if err := json.Unmarshal(history, &l.History); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	if l.History == nil {
		l.History = []model.Interaction{}
	}

	return &l, nil
}

// patchColumns переводит частичное обновление в набор колонок для squirrel.
func patchColumns(p model.LeadPatch) map[string]any {
	cols := make(map[string]any)

	setString := func(col string, v *string) {
		if v != nil {
			cols[col] = *v
		}
	}
	setBool := func(col string, v *bool) {
		if v != nil {
			cols[col] = *v
		}
	}

	setString("name", p.Name)
	setString("last_message", p.LastMessage)
	setString("emotion", p.Emotion)
	setString("last_intent", p.LastIntent)
	setString("product_of_interest", p.ProductOfInterest)
	setString("product_purchased", p.ProductPurchased)
	setString("order_id", p.OrderID)
	setString("payment_proof", p.PaymentProof)
	setString("payment_method", p.PaymentMethod)
	setString("email", p.Email)
	setString("surname", p.Surname)
	setString("language", p.Language)
	setBool("awaiting_proof", p.AwaitingProof)
	setBool("awaiting_payment_method", p.AwaitingPaymentMethod)

	if p.LastSeen != nil {
		cols["last_seen"] = *p.LastSeen
	}
	if p.PaymentStatus != nil {
		cols["payment_status"] = string(*p.PaymentStatus)
	}

	return cols
}

// newLeadColumns возвращает значения по умолчанию для нового контакта, дополненные patch.
func newLeadColumns(phone string, p model.LeadPatch, now time.Time) map[string]any {
	cols := map[string]any{
		"phone":          phone,
		"name":           model.DefaultLeadName,
		"emotion":        "neutral",
		"history":        []byte("[]"),
		"first_seen":     now,
		"last_seen":      now,
		"payment_status": string(model.PaymentStatusPending),
	}
	for k, v := range patchColumns(p) {
		cols[k] = v
	}
	return cols
}

// FindLead возвращает контакт по номеру телефона.
func (r *PostgresRepository) FindLead(ctx context.Context, phone string) (*model.Lead, error) {
	return r.selectLead(ctx, psql.Select(leadColumns...).From("leads").Where(squirrel.Eq{"phone": phone}))
}

// FindLeadByOrderID возвращает контакт, связанный с заказом. Для старых записей, где
// вместо идентификатора хранилось название покупки, сравнивается и product_purchased.
func (r *PostgresRepository) FindLeadByOrderID(ctx context.Context, orderID string) (*model.Lead, error) {
	return r.selectLead(ctx, psql.Select(leadColumns...).
		From("leads").
		Where(squirrel.Or{
			squirrel.Eq{"order_id": orderID},
			squirrel.Eq{"product_purchased": orderID},
		}).
		OrderByClause("(order_id = ?) DESC", orderID).
		OrderBy("updated_at DESC").
		Limit(1))
}

func (r *PostgresRepository) selectLead(ctx context.Context, q squirrel.SelectBuilder) (*model.Lead, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lead query: %w", err)
	}

	var l *model.Lead
	err = r.withRetry(ctx, func() error {
		var err error
		l, err = scanLead(r.pool.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("select lead: %w", err)
	}
	return l, nil
}

// upsertLeadQuery вставляет контакт и ничего не возвращает, если номер уже занят.
func upsertLeadQuery(phone string, p model.LeadPatch, now time.Time) (string, []any, error) {
	return psql.Insert("leads").
		SetMap(newLeadColumns(phone, p, now)).
		Suffix("ON CONFLICT (phone) DO NOTHING " + leadReturning).
		ToSql()
}

// UpsertLead создаёт контакт, если его ещё нет. Существующий контакт возвращается без изменений.
func (r *PostgresRepository) UpsertLead(ctx context.Context, phone string, p model.LeadPatch) (*model.Lead, bool, error) {
	query, args, err := upsertLeadQuery(phone, p, time.Now().UTC())
	if err != nil {
		return nil, false, fmt.Errorf("build upsert lead: %w", err)
	}

	var l *model.Lead
	err = r.withRetry(ctx, func() error {
		var err error
		l, err = scanLead(r.pool.QueryRow(ctx, query, args...))
		return err
	})
	if err == nil {
		return l, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("upsert lead: %w", err)
	}

	l, err = r.FindLead(ctx, phone)
	if err != nil {
		return nil, false, err
	}
	return l, false, nil
}

// updateLeadQuery вставляет контакт, а при конфликте перезаписывает только поля из p.
func updateLeadQuery(phone string, p model.LeadPatch, now time.Time) (string, []any, error) {
	changed := patchColumns(p)
	names := make([]string, 0, len(changed))
	for col := range changed {
		names = append(names, col)
	}
	sort.Strings(names)

	sets := make([]string, 0, len(names)+1)
	for _, col := range names {
		sets = append(sets, col+" = EXCLUDED."+col)
	}
	sets = append(sets, "updated_at = now()")

	return psql.Insert("leads").
		SetMap(newLeadColumns(phone, p, now)).
		Suffix("ON CONFLICT (phone) DO UPDATE SET " + strings.Join(sets, ", ") + " " + leadReturning).
		ToSql()
}

// UpdateLeadFields сливает переданные поля с контактом, создавая его при отсутствии.
func (r *PostgresRepository) UpdateLeadFields(ctx context.Context, phone string, p model.LeadPatch) (*model.Lead, error) {
	query, args, err := updateLeadQuery(phone, p, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("build update lead: %w", err)
	}

	var l *model.Lead
	err = r.withRetry(ctx, func() error {
		var err error
		l, err = scanLead(r.pool.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update lead: %w", err)
	}
	return l, nil
}

func markVerifiedQuery(phone string, v model.Verification) (string, []any, error) {
	return psql.Update("leads").
		Set("payment_status", string(model.PaymentStatusVerified)).
		Set("product_purchased", squirrel.Expr("COALESCE(NULLIF(?, ''), product_purchased)", v.ProductLabel)).
		Set("access_password", v.Password).
		Set("access_notified_at", nil).
		Set("last_seen", squirrel.Expr("now()")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"phone": phone}).
		Where(squirrel.Or{
			squirrel.Eq{"payment_status": string(model.PaymentStatusPending)},
			squirrel.Eq{"access_notified_at": nil},
		}).
		Suffix(leadReturning).
		ToSql()
}

// MarkVerified подтверждает оплату контакта и сохраняет выданный пароль.
// Запись обновляется, только пока оплата не подтверждена или доступ ещё не был доставлен;
// иначе возвращается ErrAlreadyVerified.
func (r *PostgresRepository) MarkVerified(ctx context.Context, phone string, v model.Verification) (*model.Lead, error) {
	query, args, err := markVerifiedQuery(phone, v)
	if err != nil {
		return nil, fmt.Errorf("build mark verified: %w", err)
	}

	var l *model.Lead
	err = r.withRetry(ctx, func() error {
		var err error
		l, err = scanLead(r.pool.QueryRow(ctx, query, args...))
		return err
	})
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("mark verified: %w", err)
	}

	if _, err := r.FindLead(ctx, phone); err != nil {
		return nil, err
	}
	return nil, ErrAlreadyVerified
}

// MarkAccessNotified фиксирует доставку сообщения с доступом.
func (r *PostgresRepository) MarkAccessNotified(ctx context.Context, phone string) error {
	var tag int64
	err := r.withRetry(ctx, func() error {
		res, err := r.pool.Exec(ctx,
			`UPDATE leads SET access_notified_at = now(), updated_at = now() WHERE phone = $1`,
			phone,
		)
		tag = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("mark access notified: %w", err)
	}
	if tag == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// AppendInteraction добавляет запись в историю контакта, сохраняя не более
// model.MaxInteractions последних записей. Строка контакта блокируется на время обновления.
func (r *PostgresRepository) AppendInteraction(ctx context.Context, phone string, in model.Interaction) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var raw []byte
		err = tx.QueryRow(ctx, `SELECT history FROM leads WHERE phone = $1 FOR UPDATE`, phone).Scan(&raw)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrLeadNotFound
			}
			return fmt.Errorf("lock lead: %w", err)
		}

		var history []model.Interaction
		if err := json.Unmarshal(raw, &history); err != nil {
			return fmt.Errorf("decode history: %w", err)
		}

		history = append(history, in)
		if len(history) > model.MaxInteractions {
			history = history[len(history)-model.MaxInteractions:]
		}

		encoded, err := json.Marshal(history)
		if err != nil {
			return fmt.Errorf("encode history: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE leads SET history = $2, emotion = $3, last_intent = $4, updated_at = now() WHERE phone = $1`,
			phone, encoded, in.Emotion, in.Intent,
		)
		if err != nil {
			return fmt.Errorf("update history: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// ListLeadsByPaymentStatus возвращает контакты с указанным статусом оплаты, начиная с недавно обновлённых.
func (r *PostgresRepository) ListLeadsByPaymentStatus(ctx context.Context, status model.PaymentStatus) ([]model.Lead, error) {
	query, args, err := psql.Select(leadColumns...).
		From("leads").
		Where(squirrel.Eq{"payment_status": string(status)}).
		OrderBy("updated_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list leads: %w", err)
	}

	var leads []model.Lead
	err = r.withRetry(ctx, func() error {
		leads = leads[:0]

		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			l, err := scanLead(rows)
			if err != nil {
				return fmt.Errorf("scan lead: %w", err)
			}
			leads = append(leads, *l)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("select leads: %w", err)
	}

	return leads, nil
}
