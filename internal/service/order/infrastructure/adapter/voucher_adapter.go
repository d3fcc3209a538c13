package adapter

import (
	"context"
	"errors"

	"flashmall/internal/service/order/domain/port"
	voucherapp "flashmall/internal/service/voucher/application"
	voucherdomain "flashmall/internal/service/voucher/domain"
)

// VoucherAdapter 把折扣券服务适配成订单引擎的 VoucherLedger 端口。
type VoucherAdapter struct {
	vouchers *voucherapp.VoucherService
}

func NewVoucherAdapter(vouchers *voucherapp.VoucherService) *VoucherAdapter {
	return &VoucherAdapter{vouchers: vouchers}
}

func (a *VoucherAdapter) FindValidByCode(ctx context.Context, code string) (*port.Voucher, error) {
	voucher, err := a.vouchers.FindValidByCode(ctx, code)
	if err != nil {
		return nil, mapVoucherError(err)
	}
	return &port.Voucher{
		ID:              voucher.ID,
		Code:            voucher.Code,
		DiscountPercent: voucher.DiscountPercent,
	}, nil
}

func (a *VoucherAdapter) CheckEligibility(ctx context.Context, voucherID, category string, quantity int64) error {
	voucher, err := a.vouchers.Get(ctx, voucherID)
	if err != nil {
		return mapVoucherError(err)
	}
	return mapVoucherError(a.vouchers.CheckEligibility(ctx, voucher, category, quantity))
}

func (a *VoucherAdapter) Redeem(ctx context.Context, voucherID string) error {
	return mapVoucherError(a.vouchers.Redeem(ctx, voucherID))
}

func (a *VoucherAdapter) Restore(ctx context.Context, voucherID string) error {
	return mapVoucherError(a.vouchers.Restore(ctx, voucherID))
}

func mapVoucherError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, voucherdomain.ErrVoucherInvalid), errors.Is(err, voucherdomain.ErrVoucherNotFound):
		return port.ErrVoucherInvalid
	case errors.Is(err, voucherdomain.ErrVoucherNotApplicable):
		return port.ErrVoucherNotApplicable
	case errors.Is(err, voucherdomain.ErrVoucherExhausted):
		return port.ErrVoucherExhausted
	default:
		return err
	}
}
