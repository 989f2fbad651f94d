package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/myatlin/shwecart/internal/domain/promotion"
)

// Promotions come back newest first, equal timestamps broken on id, so the
// resolver's latest-created-wins tie-break matches the iteration order.
const listPromotionsForItemSQL = `SELECT id, item_id, discount, promo_code, title, expires_at, created_at
	FROM promotions WHERE item_id = $1 ORDER BY created_at DESC, id DESC`

const upsertPromotionSQL = `INSERT INTO promotions (id, item_id, discount, promo_code, title, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		item_id = EXCLUDED.item_id,
		discount = EXCLUDED.discount,
		promo_code = EXCLUDED.promo_code,
		title = EXCLUDED.title,
		expires_at = EXCLUDED.expires_at`

var _ promotion.Repository = (*PromotionRepository)(nil)

// PromotionRepository implements promotion.Repository backed by PostgreSQL.
type PromotionRepository struct {
	pool *pgxpool.Pool
}

// NewPromotionRepository returns a PromotionRepository that uses the given pool.
func NewPromotionRepository(pool *pgxpool.Pool) *PromotionRepository {
	return &PromotionRepository{pool: pool}
}

// ListForItem returns every promotion targeting the item, newest first.
func (r *PromotionRepository) ListForItem(ctx context.Context, itemID string) ([]promotion.Promotion, error) {
	rows, err := r.pool.Query(ctx, listPromotionsForItemSQL, itemID)
	if err != nil {
		return nil, collabErr(err, promotion.ErrUnavailable, "listing promotions")
	}
	return pgx.CollectRows(rows, scanPromotion)
}

// Upsert inserts or replaces a promotion. Used by the seed and ingest
// commands; the pricing core itself never writes promotions.
func (r *PromotionRepository) Upsert(ctx context.Context, p *promotion.Promotion) error {
	_, err := r.pool.Exec(ctx, upsertPromotionSQL,
		p.ID, p.ItemID, p.Discount, p.PromoCode, p.Title, p.ExpiresAt,
	)
	if err != nil {
		return collabErr(err, promotion.ErrUnavailable, "upserting promotion")
	}
	return nil
}

func scanPromotion(row pgx.CollectableRow) (promotion.Promotion, error) {
	var p promotion.Promotion
	err := row.Scan(&p.ID, &p.ItemID, &p.Discount, &p.PromoCode, &p.Title, &p.ExpiresAt, &p.CreatedAt)
	return p, err
}
