package database

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/xavierca1/ligue-growth/internal/entity"
)

type CouponRepository struct {
	DB *sql.DB
}

func NewCouponRepository(db *sql.DB) *CouponRepository {
	return &CouponRepository{DB: db}
}

func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*entity.Coupon, error) {
	query := `
		SELECT code, discount_type, discount_value, plan_ids, expires_at, active, max_redemptions, redemptions
		FROM coupons WHERE code = $1
	`
	var c entity.Coupon
	var expiresAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, entity.NormalizeCouponCode(code)).Scan(
		&c.Code,
		&c.DiscountType,
		&c.DiscountValue,
		pq.Array(&c.PlanIDs),
		&expiresAt,
		&c.Active,
		&c.MaxRedemptions,
		&c.Redemptions,
	)
	if err != nil {
		return nil, notFound(err, entity.ErrCouponNotFound)
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		c.ExpiresAt = &t
	}
	return &c, nil
}

// Save upserts a coupon. Used by seeding and the admin tooling.
func (r *CouponRepository) Save(ctx context.Context, c *entity.Coupon) error {
	query := `
		INSERT INTO coupons (code, discount_type, discount_value, plan_ids, expires_at, active, max_redemptions, redemptions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (code) DO UPDATE SET
			discount_type = EXCLUDED.discount_type,
			discount_value = EXCLUDED.discount_value,
			plan_ids = EXCLUDED.plan_ids,
			expires_at = EXCLUDED.expires_at,
			active = EXCLUDED.active,
			max_redemptions = EXCLUDED.max_redemptions
	`
	_, err := r.DB.ExecContext(ctx, query,
		entity.NormalizeCouponCode(c.Code),
		c.DiscountType,
		c.DiscountValue,
		pq.Array(c.PlanIDs),
		c.ExpiresAt,
		c.Active,
		c.MaxRedemptions,
		c.Redemptions,
	)
	return err
}

// IncrementRedemptions counts a paid order. The limit is enforced when the
// coupon is quoted, never against an order that is already paid.
func (r *CouponRepository) IncrementRedemptions(ctx context.Context, code string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE coupons SET redemptions = redemptions + 1 WHERE code = $1`,
		entity.NormalizeCouponCode(code))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrCouponNotFound
	}
	return nil
}
