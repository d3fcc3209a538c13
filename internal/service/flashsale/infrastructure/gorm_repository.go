package infrastructure

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"flashmall/internal/pkg/pagination"
	"flashmall/internal/service/flashsale/domain"
)

// GormCampaignRepository 是 CampaignRepository 的 GORM 实现。
type GormCampaignRepository struct {
	db *gorm.DB
}

func NewGormCampaignRepository(db *gorm.DB) *GormCampaignRepository {
	return &GormCampaignRepository{db: db}
}

func (r *GormCampaignRepository) Create(ctx context.Context, campaign *domain.Campaign) error {
	model := toCampaignModel(campaign)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return pkgerrors.Wrap(err, "create flash sale")
	}
	campaign.CreatedAt = model.CreatedAt
	campaign.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *GormCampaignRepository) FindByID(ctx context.Context, id string) (*domain.Campaign, error) {
	var model CampaignModel
	err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCampaignNotFound
		}
		return nil, pkgerrors.Wrap(err, "find flash sale")
	}
	return toDomainCampaign(&model), nil
}

func (r *GormCampaignRepository) FindLive(ctx context.Context, now time.Time) (*domain.Campaign, error) {
	var model CampaignModel
	err := r.db.WithContext(ctx).Preload("Items").
		Where("status = ? AND start_time <= ? AND end_time > ?", string(domain.StatusActive), now, now).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "find live flash sale")
	}
	return toDomainCampaign(&model), nil
}

func (r *GormCampaignRepository) FindUpcoming(ctx context.Context, now time.Time) ([]*domain.Campaign, error) {
	var models []*CampaignModel
	err := r.db.WithContext(ctx).Preload("Items").
		Where("end_time > ?", now).
		Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "find upcoming flash sales")
	}
	campaigns := make([]*domain.Campaign, len(models))
	for i, m := range models {
		campaigns[i] = toDomainCampaign(m)
	}
	return campaigns, nil
}

func (r *GormCampaignRepository) Search(ctx context.Context, filter domain.CampaignFilter, q pagination.Query) ([]*domain.Campaign, int64, error) {
	q.Normalize()
	tx := r.db.WithContext(ctx).Model(&CampaignModel{})
	if filter.Name != "" {
		tx = tx.Where("name = ?", filter.Name)
	}
	if filter.StartTimeAfter != nil {
		tx = tx.Where("start_time > ?", *filter.StartTimeAfter)
	}
	if filter.EndTimeAfter != nil {
		tx = tx.Where("end_time > ?", *filter.EndTimeAfter)
	}
	if filter.ItemID != "" {
		tx = tx.Where("id IN (?)",
			r.db.Model(&CampaignItemModel{}).Select("campaign_id").Where("item_id = ?", filter.ItemID))
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "count flash sales")
	}

	var models []*CampaignModel
	err := tx.Preload("Items").
		Order(orderClause(q, "start_time")).
		Limit(q.PerPage).Offset(q.Offset()).
		Find(&models).Error
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "search flash sales")
	}
	campaigns := make([]*domain.Campaign, len(models))
	for i, m := range models {
		campaigns[i] = toDomainCampaign(m)
	}
	return campaigns, total, nil
}

func (r *GormCampaignRepository) Update(ctx context.Context, campaign *domain.Campaign) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&CampaignModel{}).Where("id = ?", campaign.ID).Updates(map[string]interface{}{
			"name":       campaign.Name,
			"status":     string(campaign.Status),
			"start_time": campaign.StartTime,
			"end_time":   campaign.EndTime,
		})
		if res.Error != nil {
			return pkgerrors.Wrap(res.Error, "update flash sale")
		}
		if res.RowsAffected == 0 {
			return domain.ErrCampaignNotFound
		}

		// 商品配置整体替换
		if err := tx.Where("campaign_id = ?", campaign.ID).Delete(&CampaignItemModel{}).Error; err != nil {
			return pkgerrors.Wrap(err, "clear flash sale items")
		}
		model := toCampaignModel(campaign)
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return pkgerrors.Wrap(err, "replace flash sale items")
			}
		}
		return nil
	})
}

// Delete 软删除，重复删除同一个档期不报错。
func (r *GormCampaignRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&CampaignModel{})
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "delete flash sale")
	}
	return nil
}

// Allocate 对单行限量执行条件原子增减：结果不允许为负。
func (r *GormCampaignRepository) Allocate(ctx context.Context, campaignID, itemID string, delta int64) error {
	res := r.db.WithContext(ctx).Model(&CampaignItemModel{}).
		Where("campaign_id = ? AND item_id = ? AND flash_sale_quantity + ? >= 0", campaignID, itemID, delta).
		Update("flash_sale_quantity", gorm.Expr("flash_sale_quantity + ?", delta))
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "allocate flash sale quantity")
	}
	if res.RowsAffected == 0 {
		var count int64
		r.db.WithContext(ctx).Model(&CampaignItemModel{}).
			Where("campaign_id = ? AND item_id = ?", campaignID, itemID).Count(&count)
		if count == 0 {
			return domain.ErrAllocationNotFound
		}
		return domain.ErrAllocationExhausted
	}
	return nil
}

// campaignSortColumns 排序字段白名单, 防止外部输入直接进 ORDER BY。
var campaignSortColumns = map[string]string{
	"createdAt": "created_at",
	"name":      "name",
	"startTime": "start_time",
	"endTime":   "end_time",
}

func orderClause(q pagination.Query, fallback string) string {
	col, ok := campaignSortColumns[q.SortBy]
	if !ok {
		col = fallback
	}
	return col + " " + q.SortType
}
