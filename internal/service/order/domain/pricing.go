// internal/service/order/domain/pricing.go
package domain

import "flashmall/internal/pkg/money"

// LineQuote 是定价器对一个订单行的计算结果。
type LineQuote struct {
	OriginCents    int64
	TotalCents     int64
	FlashApplied   bool
	VoucherApplied bool
}

// ResolveLinePrice 纯函数定价器, 无任何 I/O。
//
// 舍入策略: 折扣一律在"应用时"按分(最小货币单位)半数进位舍入——
// 闪购折扣作用在单价上再乘数量, 券折扣作用在行小计上。
// 全部价格计算只经过这一条路径, 保证 sum(line.TotalCents) 与订单
// 总价逐分相等。
func ResolveLinePrice(basePriceCents, quantity int64, flashPercent, voucherPercent int) LineQuote {
	quote := LineQuote{OriginCents: basePriceCents * quantity}

	unit := basePriceCents
	if flashPercent > 0 {
		unit = money.ApplyPercentDiscount(basePriceCents, flashPercent)
		quote.FlashApplied = true
	}
	quote.TotalCents = unit * quantity

	if voucherPercent > 0 {
		quote.TotalCents = money.ApplyPercentDiscount(quote.TotalCents, voucherPercent)
		quote.VoucherApplied = true
	}
	return quote
}
