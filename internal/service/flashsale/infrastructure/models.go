package infrastructure

import (
	"time"

	"gorm.io/gorm"

	"flashmall/internal/service/flashsale/domain"
)

// CampaignModel 是闪购档期在数据库中的表示。
// 档期只做软删除，历史订单引用的档期必须一直可查。
type CampaignModel struct {
	ID        string              `gorm:"primaryKey;size:36"`
	Name      string              `gorm:"size:255"`
	Status    string              `gorm:"size:16;index"`
	StartTime time.Time           `gorm:"index"`
	EndTime   time.Time           `gorm:"index"`
	Items     []CampaignItemModel `gorm:"foreignKey:CampaignID"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (CampaignModel) TableName() string {
	return "flash_sales"
}

// CampaignItemModel 是档期内单个商品的限量折扣行。
type CampaignItemModel struct {
	ID                int64  `gorm:"primaryKey;autoIncrement"`
	CampaignID        string `gorm:"size:36;uniqueIndex:idx_campaign_item"`
	ItemID            string `gorm:"size:36;uniqueIndex:idx_campaign_item"`
	FlashSaleQuantity int64
	DiscountPercent   int
}

func (CampaignItemModel) TableName() string {
	return "flash_sale_items"
}

func toCampaignModel(c *domain.Campaign) *CampaignModel {
	items := make([]CampaignItemModel, len(c.Items))
	for i, alloc := range c.Items {
		items[i] = CampaignItemModel{
			CampaignID:        c.ID,
			ItemID:            alloc.ItemID,
			FlashSaleQuantity: alloc.FlashSaleQuantity,
			DiscountPercent:   alloc.DiscountPercent,
		}
	}
	return &CampaignModel{
		ID:        c.ID,
		Name:      c.Name,
		Status:    string(c.Status),
		StartTime: c.StartTime,
		EndTime:   c.EndTime,
		Items:     items,
	}
}

func toDomainCampaign(m *CampaignModel) *domain.Campaign {
	items := make([]domain.ItemAllocation, len(m.Items))
	for i, row := range m.Items {
		items[i] = domain.ItemAllocation{
			ItemID:            row.ItemID,
			FlashSaleQuantity: row.FlashSaleQuantity,
			DiscountPercent:   row.DiscountPercent,
		}
	}
	return &domain.Campaign{
		ID:        m.ID,
		Name:      m.Name,
		Status:    domain.Status(m.Status),
		StartTime: m.StartTime,
		EndTime:   m.EndTime,
		Items:     items,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
