package repository

import (
	"context"
	"database/sql"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/domain/session/model"
)

// SubscriptionRepository resolves a user's subscription tier, the fact the
// Session Controller's concurrency cap (spec.md §4.B) is keyed on.
type SubscriptionRepository struct {
	db *sql.DB
}

// NewSubscriptionRepository constructs a SubscriptionRepository over db.
func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Tier returns userID's subscription tier, defaulting to free for users
// with no recorded subscription row rather than failing the request.
func (r *SubscriptionRepository) Tier(ctx context.Context, userID string) (model.Tier, error) {
	var tier string
	err := r.db.QueryRowContext(ctx, `SELECT tier FROM subscriptions WHERE user_id = ?`, userID).Scan(&tier)
	if err == sql.ErrNoRows {
		return model.TierFree, nil
	}
	if err != nil {
		return model.TierFree, err
	}

	switch model.Tier(tier) {
	case model.TierPremium:
		return model.TierPremium, nil
	case model.TierFamily:
		return model.TierFamily, nil
	default:
		return model.TierFree, nil
	}
}

// IsPremium reports whether userID's tier is premium or family, the
// distinction spec.md §4.A's preload cap and §4.C's free-tier filter key
// on (they don't distinguish premium from family).
func (r *SubscriptionRepository) IsPremium(ctx context.Context, userID string) (bool, error) {
	tier, err := r.Tier(ctx, userID)
	if err != nil {
		return false, err
	}
	return tier == model.TierPremium || tier == model.TierFamily, nil
}

// SetTier inserts or replaces userID's subscription tier.
func (r *SubscriptionRepository) SetTier(ctx context.Context, userID string, tier model.Tier) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (user_id, tier) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET tier = excluded.tier
	`, userID, string(tier))
	return err
}
