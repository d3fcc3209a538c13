package application

import (
	"time"

	"flashmall/internal/pkg/pagination"
)

type CreateVoucherRequest struct {
	Name               string    `json:"nameVoucher"`
	Code               string    `json:"code"`
	DiscountPercent    int       `json:"discount"`
	EligibleCategories []string  `json:"categories"`
	EligibilityRule    string    `json:"eligibilityRule,omitempty"`
	Quantity           int       `json:"quantity"`
	StartTime          time.Time `json:"startTime,omitempty"`
	EndTime            time.Time `json:"endTime,omitempty"`
}

type UpdateVoucherRequest struct {
	Name               *string    `json:"nameVoucher,omitempty"`
	Code               *string    `json:"code,omitempty"`
	DiscountPercent    *int       `json:"discount,omitempty"`
	EligibleCategories []string   `json:"categories,omitempty"`
	EligibilityRule    *string    `json:"eligibilityRule,omitempty"`
	Quantity           *int       `json:"quantity,omitempty"`
	StartTime          *time.Time `json:"startTime,omitempty"`
	EndTime            *time.Time `json:"endTime,omitempty"`
}

// ListVouchersQuery 列表过滤条件。
type ListVouchersQuery struct {
	pagination.Query
	Name      string    `json:"nameVoucher"`
	Code      string    `json:"code"`
	Discount  int       `json:"discount"`
	StartTime time.Time `json:"startTime"`
}
