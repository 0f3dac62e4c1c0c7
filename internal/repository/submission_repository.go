package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"submissions-service/internal/models"
	"submissions-service/internal/products"
)

// Cache TTL constants
const (
	SubmissionCacheTTL     = 10 * time.Minute
	SubmissionListCacheTTL = 5 * time.Minute
	PriceCacheTTL          = 15 * time.Minute
)

var (
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// SubmissionRepositoryInterface defines data access for the bulk pipeline
// and the dashboard endpoints over committed orders.
type SubmissionRepositoryInterface interface {
	GetUnitPrices(ctx context.Context, tenantID string) (map[products.ProductType]int, error)
	GetWallet(ctx context.Context, tenantID, clientID string) (*models.Wallet, error)
	CommitBatch(ctx context.Context, tenantID, clientID string, batchID uuid.UUID, orders []*models.CampaignOrder) (int, error)
	ListSubmissions(ctx context.Context, tenantID, clientID string, limit, offset int) ([]models.CampaignOrder, int64, error)
	GetSubmission(ctx context.Context, tenantID string, id uuid.UUID) (*models.CampaignOrder, error)
	UpdateSubmissionStatus(ctx context.Context, tenantID string, id uuid.UUID, status models.SubmissionStatus) error
	ListWalletTransactions(ctx context.Context, tenantID, clientID string, limit, offset int) ([]models.WalletTransaction, int64, error)
}

type SubmissionRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

var _ SubmissionRepositoryInterface = (*SubmissionRepository)(nil)

func NewSubmissionRepository(db *gorm.DB, redisClient *redis.Client) *SubmissionRepository {
	return &SubmissionRepository{db: db, redis: redisClient}
}

func (r *SubmissionRepository) invalidateSubmissionCaches(ctx context.Context, tenantID string) {
	if r.redis == nil {
		return
	}
	pattern := fmt.Sprintf("submissions:list:%s:*", tenantID)
	keys, _ := r.redis.Keys(ctx, pattern).Result()
	if len(keys) > 0 {
		r.redis.Del(ctx, keys...)
	}
}

// GetUnitPrices returns the active per-unit price of every product that
// has pricing configured for the tenant. Missing products are simply
// absent from the map; the validator reports them as a batch condition.
func (r *SubmissionRepository) GetUnitPrices(ctx context.Context, tenantID string) (map[products.ProductType]int, error) {
	cacheKey := fmt.Sprintf("submissions:prices:%s", tenantID)
	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			prices := make(map[products.ProductType]int)
			if err := json.Unmarshal([]byte(val), &prices); err == nil {
				return prices, nil
			}
		}
	}

	var rows []models.ProductPrice
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	prices := make(map[products.ProductType]int, len(rows))
	for _, p := range rows {
		prices[p.ProductType] = p.UnitPrice
	}

	if r.redis != nil {
		if data, err := json.Marshal(prices); err == nil {
			r.redis.Set(ctx, cacheKey, data, PriceCacheTTL)
		}
	}
	return prices, nil
}

// GetWallet retrieves a client's wallet. The balance read here is
// advisory only; CommitBatch re-reads it under lock.
func (r *SubmissionRepository) GetWallet(ctx context.Context, tenantID, clientID string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND client_id = ?", tenantID, clientID).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

// CommitBatch commits one bulk submission as a single transaction: the
// wallet row is locked, the balance is re-checked against the aggregate
// cost, every order is created, one debit ledger entry is written and the
// balance updated. Any failure rolls everything back; partial state is
// never observable. Returns the new balance.
func (r *SubmissionRepository) CommitBatch(ctx context.Context, tenantID, clientID string, batchID uuid.UUID, orders []*models.CampaignOrder) (int, error) {
	totalCost := 0
	for _, order := range orders {
		totalCost += order.PointCost
	}

	var newBalance int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wallet models.Wallet
		if err := tx.Where("tenant_id = ? AND client_id = ?", tenantID, clientID).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&wallet).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWalletNotFound
			}
			return err
		}

		// Safety net against races: the balance the caller saw may be
		// stale by the time we commit.
		if wallet.Balance < totalCost {
			return ErrInsufficientBalance
		}

		for _, order := range orders {
			order.TenantID = tenantID
			order.ClientID = clientID
			order.BatchID = batchID
			if err := tx.Create(order).Error; err != nil {
				return fmt.Errorf("creating order for row %d: %w", order.SourceRow, err)
			}
		}

		balanceBefore := wallet.Balance
		balanceAfter := balanceBefore - totalCost

		description := fmt.Sprintf("bulk submission of %d orders", len(orders))
		ledger := &models.WalletTransaction{
			TenantID:      tenantID,
			WalletID:      wallet.ID,
			Type:          models.TransactionTypeBulkDebit,
			Amount:        totalCost,
			BalanceBefore: balanceBefore,
			BalanceAfter:  balanceAfter,
			BatchID:       &batchID,
			Description:   &description,
			CreatedAt:     time.Now(),
		}
		if err := tx.Create(ledger).Error; err != nil {
			return err
		}

		if err := tx.Model(&wallet).Updates(map[string]interface{}{
			"balance":    balanceAfter,
			"updated_at": time.Now(),
		}).Error; err != nil {
			return err
		}

		newBalance = balanceAfter
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.invalidateSubmissionCaches(ctx, tenantID)
	return newBalance, nil
}

// ListSubmissions retrieves committed orders for a client with caching.
// SECURITY: Always requires tenantID to prevent cross-tenant access.
func (r *SubmissionRepository) ListSubmissions(ctx context.Context, tenantID, clientID string, limit, offset int) ([]models.CampaignOrder, int64, error) {
	cacheKey := fmt.Sprintf("submissions:list:%s:%s:%d:%d", tenantID, clientID, limit, offset)

	type listResult struct {
		Orders []models.CampaignOrder `json:"orders"`
		Total  int64                  `json:"total"`
	}

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var result listResult
			if err := json.Unmarshal([]byte(val), &result); err == nil {
				return result.Orders, result.Total, nil
			}
		}
	}

	var orders []models.CampaignOrder
	var total int64
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	query.Model(&models.CampaignOrder{}).Count(&total)
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(listResult{Orders: orders, Total: total}); err == nil {
			r.redis.Set(ctx, cacheKey, data, SubmissionListCacheTTL)
		}
	}
	return orders, total, nil
}

// GetSubmission retrieves one committed order with tenant isolation.
func (r *SubmissionRepository) GetSubmission(ctx context.Context, tenantID string, id uuid.UUID) (*models.CampaignOrder, error) {
	cacheKey := fmt.Sprintf("submissions:order:%s:%s", tenantID, id)
	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var order models.CampaignOrder
			if err := json.Unmarshal([]byte(val), &order); err == nil {
				return &order, nil
			}
		}
	}

	var order models.CampaignOrder
	err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(order); err == nil {
			r.redis.Set(ctx, cacheKey, data, SubmissionCacheTTL)
		}
	}
	return &order, nil
}

// UpdateSubmissionStatus updates one order's lifecycle status.
func (r *SubmissionRepository) UpdateSubmissionStatus(ctx context.Context, tenantID string, id uuid.UUID, status models.SubmissionStatus) error {
	result := r.db.WithContext(ctx).Model(&models.CampaignOrder{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubmissionNotFound
	}
	if r.redis != nil {
		r.redis.Del(ctx, fmt.Sprintf("submissions:order:%s:%s", tenantID, id))
	}
	r.invalidateSubmissionCaches(ctx, tenantID)
	return nil
}

// ListWalletTransactions retrieves the ledger for a client, newest first.
func (r *SubmissionRepository) ListWalletTransactions(ctx context.Context, tenantID, clientID string, limit, offset int) ([]models.WalletTransaction, int64, error) {
	wallet, err := r.GetWallet(ctx, tenantID, clientID)
	if err != nil {
		return nil, 0, err
	}

	var transactions []models.WalletTransaction
	var total int64
	query := r.db.WithContext(ctx).Where("tenant_id = ? AND wallet_id = ?", tenantID, wallet.ID)
	query.Model(&models.WalletTransaction{}).Count(&total)
	err = query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&transactions).Error
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}
