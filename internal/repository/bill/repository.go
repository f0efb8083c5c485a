package repository

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swaggyasy/tff-socket-server/internal/model"
)

type repository struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

func NewBillRepository(pool *pgxpool.Pool) *repository {
	return &repository{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *repository) Create(ctx context.Context, bill *model.Bill) error {
	if bill.BillCode == "" {
		return errors.New("empty bill code")
	}

	q := r.sb.
		Insert("bills").
		Columns("bill_code", "external_reference_no", "amount_cents", "payor_name", "payor_email", "payor_phone", "status").
		Values(bill.BillCode, bill.ExternalReferenceNo, bill.AmountCents, bill.PayorName, bill.PayorEmail, bill.PayorPhone, bill.Status).
		Suffix("RETURNING created_at, updated_at")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return err
	}

	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&bill.CreatedAt, &bill.UpdatedAt); err != nil {
		return err
	}

	return nil
}

func (r *repository) BillByCode(ctx context.Context, billCode string) (*model.Bill, error) {
	q := r.sb.
		Select("bill_code", "external_reference_no", "amount_cents", "payor_name", "payor_email", "payor_phone", "status", "created_at", "updated_at").
		From("bills").
		Where(sq.Eq{"bill_code": billCode})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var bill model.Bill
	err = r.pool.QueryRow(ctx, sqlStr, args...).Scan(
		&bill.BillCode,
		&bill.ExternalReferenceNo,
		&bill.AmountCents,
		&bill.PayorName,
		&bill.PayorEmail,
		&bill.PayorPhone,
		&bill.Status,
		&bill.CreatedAt,
		&bill.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrBillNotFound
		}
		return nil, err
	}

	return &bill, nil
}

// UpdateStatus moves the bill from one status to another in a single
// compare-and-set statement. Concurrent deliveries race on the status
// predicate, so at most one transition out of a given status commits;
// the loser gets ErrBillConflict and must not act on the transition.
func (r *repository) UpdateStatus(ctx context.Context, billCode string, from, to model.PaymentStatus) error {
	q := r.sb.
		Update("bills").
		Set("status", to).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"bill_code": billCode, "status": from})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return err
	}

	ct, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return model.ErrBillConflict
	}

	return nil
}
