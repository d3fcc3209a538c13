package infrastructure

import (
	"strings"
	"time"

	"flashmall/internal/service/voucher/domain"
)

// VoucherModel 是 Voucher 聚合在数据库中的表示。
// 适用品类集合以逗号分隔串存储, 读写两侧统一经 mapper 转换。
type VoucherModel struct {
	ID                 string `gorm:"primaryKey;size:36"`
	Name               string `gorm:"size:255"`
	Code               string `gorm:"uniqueIndex;size:64"`
	DiscountPercent    int
	EligibleCategories string `gorm:"size:1024"`
	EligibilityRule    string `gorm:"size:2048"`
	Quantity           int
	StartTime          *time.Time
	EndTime            *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (VoucherModel) TableName() string {
	return "vouchers"
}

func toVoucherModel(v *domain.Voucher) *VoucherModel {
	m := &VoucherModel{
		ID:                 v.ID,
		Name:               v.Name,
		Code:               v.Code,
		DiscountPercent:    v.DiscountPercent,
		EligibleCategories: strings.Join(v.EligibleCategories, ","),
		EligibilityRule:    v.EligibilityRule,
		Quantity:           v.Quantity,
		CreatedAt:          v.CreatedAt,
		UpdatedAt:          v.UpdatedAt,
	}
	if !v.StartTime.IsZero() {
		t := v.StartTime
		m.StartTime = &t
	}
	if !v.EndTime.IsZero() {
		t := v.EndTime
		m.EndTime = &t
	}
	return m
}

func toDomainVoucher(m *VoucherModel) *domain.Voucher {
	v := &domain.Voucher{
		ID:              m.ID,
		Name:            m.Name,
		Code:            m.Code,
		DiscountPercent: m.DiscountPercent,
		EligibilityRule: m.EligibilityRule,
		Quantity:        m.Quantity,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.EligibleCategories != "" {
		v.EligibleCategories = strings.Split(m.EligibleCategories, ",")
	}
	if m.StartTime != nil {
		v.StartTime = *m.StartTime
	}
	if m.EndTime != nil {
		v.EndTime = *m.EndTime
	}
	return v
}
