package money

// 金额一律以最小货币单位（分）的 int64 表示，避免浮点误差。
// 折扣舍入策略：四舍五入到分（half-up），并且只在每次折扣生效时舍入一次。
// 所有需要算价的地方都必须经过这里，保证 sum(line) == total 严格成立。

// ApplyPercentDiscount 返回打折后的金额。
// pct 是折扣百分比（20 表示便宜 20%），调用方保证 0 <= pct <= 100。
func ApplyPercentDiscount(cents int64, pct int) int64 {
	if pct <= 0 {
		return cents
	}
	if pct >= 100 {
		return 0
	}
	return (cents*int64(100-pct) + 50) / 100
}

// PercentOff 返回折扣金额本身（原价减去折后价）。
func PercentOff(cents int64, pct int) int64 {
	return cents - ApplyPercentDiscount(cents, pct)
}
