package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/ligue-growth/internal/entity"
)

type OrderRepository struct {
	DB *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{DB: db}
}

const orderColumns = `id, gateway_order_id, correlation_token, account_id, plan_id, coupon_code,
	original_amount, discount_amount, amount, currency, status, payment_id, verified_at,
	created_at, updated_at`

func (r *OrderRepository) Create(ctx context.Context, o *entity.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.DB.ExecContext(ctx, query,
		o.ID,
		nullString(o.GatewayOrderID),
		o.CorrelationToken,
		o.AccountID,
		o.PlanID,
		nullString(o.CouponCode),
		o.OriginalAmount,
		o.DiscountAmount,
		o.Amount,
		o.Currency,
		o.Status,
		nullString(o.PaymentID),
		o.VerifiedAt,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrDuplicate
		}
		return err
	}
	return nil
}

// FindByToken treats a token that is not a UUID as unknown; the column is
// typed and Postgres would reject the cast.
func (r *OrderRepository) FindByToken(ctx context.Context, token string) (*entity.Order, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, entity.ErrOrderNotFound
	}
	return r.findOne(ctx, `correlation_token = $1`, token)
}

func (r *OrderRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*entity.Order, error) {
	if gatewayOrderID == "" {
		return nil, entity.ErrOrderNotFound
	}
	return r.findOne(ctx, `gateway_order_id = $1`, gatewayOrderID)
}

func (r *OrderRepository) findOne(ctx context.Context, cond string, arg any) (*entity.Order, error) {
	order, err := scanOrder(r.DB.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+cond, arg))
	if err != nil {
		return nil, notFound(err, entity.ErrOrderNotFound)
	}
	return order, nil
}

// MarkVerified settles any order that is not verified yet. A signed capture
// wins over an earlier failure or expiry.
func (r *OrderRepository) MarkVerified(ctx context.Context, id, paymentID string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE orders
		SET status = 'verified', payment_id = $2, verified_at = $3, updated_at = $3
		WHERE id = $1 AND status <> 'verified'
	`, id, nullString(paymentID), at)
	if err != nil {
		return err
	}
	return casResult(res,
		rowExists(ctx, r.DB, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id),
		entity.ErrStaleStatus, entity.ErrOrderNotFound)
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to entity.OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $3, updated_at = NOW(),
			payment_id = CASE WHEN $3 = 'verified' THEN payment_id END,
			verified_at = CASE WHEN $3 = 'verified' THEN verified_at END
		WHERE id = $1 AND status = $2
	`
	res, err := r.DB.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return err
	}
	return casResult(res,
		rowExists(ctx, r.DB, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id),
		entity.ErrStaleStatus, entity.ErrOrderNotFound)
}

func (r *OrderRepository) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE orders SET status = 'expired', updated_at = NOW()
		WHERE status = 'created' AND created_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func scanOrder(row rowScanner) (*entity.Order, error) {
	var (
		o                                     entity.Order
		gatewayOrderID, couponCode, paymentID sql.NullString
		verifiedAt                            sql.NullTime
	)
	err := row.Scan(
		&o.ID,
		&gatewayOrderID,
		&o.CorrelationToken,
		&o.AccountID,
		&o.PlanID,
		&couponCode,
		&o.OriginalAmount,
		&o.DiscountAmount,
		&o.Amount,
		&o.Currency,
		&o.Status,
		&paymentID,
		&verifiedAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.GatewayOrderID = fromNull(gatewayOrderID)
	o.CouponCode = fromNull(couponCode)
	o.PaymentID = fromNull(paymentID)
	if verifiedAt.Valid {
		t := verifiedAt.Time
		o.VerifiedAt = &t
	}
	return &o, nil
}
