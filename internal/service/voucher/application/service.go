package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"flashmall/internal/pkg/logger"
	"flashmall/internal/pkg/pagination"
	"flashmall/internal/service/voucher/domain"
)

// VoucherService 折扣券账本。对外提供管理面的增删改查,
// 以及订单链路消费的按码校验与条件原子核销。
type VoucherService struct {
	repo   domain.VoucherRepository
	rules  domain.RuleEngine
	tracer trace.Tracer
	now    func() time.Time
}

func NewVoucherService(repo domain.VoucherRepository, rules domain.RuleEngine, tracer trace.Tracer) *VoucherService {
	return &VoucherService{repo: repo, rules: rules, tracer: tracer, now: time.Now}
}

// WithClock 注入时钟，测试用。
func (s *VoucherService) WithClock(now func() time.Time) *VoucherService {
	s.now = now
	return s
}

func (s *VoucherService) Create(ctx context.Context, req *CreateVoucherRequest) (*domain.Voucher, error) {
	ctx, span := s.tracer.Start(ctx, "voucher.CreateVoucher")
	defer span.End()

	if req.Code == "" || req.Quantity < 0 {
		return nil, fmt.Errorf("invalid voucher: code and non-negative quantity are required")
	}

	voucher := &domain.Voucher{
		ID:                 uuid.New().String(),
		Name:               req.Name,
		Code:               req.Code,
		DiscountPercent:    req.DiscountPercent,
		EligibleCategories: req.EligibleCategories,
		EligibilityRule:    req.EligibilityRule,
		Quantity:           req.Quantity,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
	}
	if err := voucher.Validate(); err != nil {
		span.SetStatus(codes.Error, "voucher validation failed")
		return nil, err
	}
	if err := s.repo.Create(ctx, voucher); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("voucher.id", voucher.ID), attribute.String("voucher.code", voucher.Code))
	return voucher, nil
}

func (s *VoucherService) Get(ctx context.Context, id string) (*domain.Voucher, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *VoucherService) GetList(ctx context.Context, q *ListVouchersQuery) (pagination.Page[*domain.Voucher], error) {
	ctx, span := s.tracer.Start(ctx, "voucher.ListVouchers")
	defer span.End()

	q.Normalize()
	filter := domain.VoucherFilter{Name: q.Name, Code: q.Code, Discount: q.Discount, StartTime: q.StartTime}
	vouchers, total, err := s.repo.Search(ctx, filter, q.Query)
	if err != nil {
		span.RecordError(err)
		return pagination.Page[*domain.Voucher]{}, err
	}
	return pagination.NewPage(vouchers, total, q.Query), nil
}

func (s *VoucherService) Update(ctx context.Context, id string, req *UpdateVoucherRequest) (*domain.Voucher, error) {
	ctx, span := s.tracer.Start(ctx, "voucher.UpdateVoucher")
	defer span.End()

	if req.DiscountPercent != nil && (*req.DiscountPercent < 1 || *req.DiscountPercent > 99) {
		return nil, domain.ErrInvalidDiscount
	}
	if req.Code != nil && *req.Code == "" {
		return nil, fmt.Errorf("invalid voucher: code must not be empty")
	}
	patch := domain.VoucherPatch{
		Name:               req.Name,
		Code:               req.Code,
		DiscountPercent:    req.DiscountPercent,
		EligibleCategories: req.EligibleCategories,
		EligibilityRule:    req.EligibilityRule,
		Quantity:           req.Quantity,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
	}
	voucher, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return voucher, nil
}

func (s *VoucherService) Remove(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "voucher.RemoveVoucher")
	defer span.End()
	return s.repo.Delete(ctx, id)
}

// FindValidByCode 按码查券并校验当前时刻可兑换。
// 码不存在与券不在有效期统一归为 ErrVoucherInvalid;
// 券真实存在且在期内但次数用光, 返回 ErrVoucherExhausted 让调用方能区分。
func (s *VoucherService) FindValidByCode(ctx context.Context, code string) (*domain.Voucher, error) {
	ctx, span := s.tracer.Start(ctx, "voucher.FindValidByCode")
	defer span.End()

	voucher, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if err == domain.ErrVoucherNotFound {
			return nil, domain.ErrVoucherInvalid
		}
		span.RecordError(err)
		return nil, err
	}
	if !voucher.InWindow(s.now()) {
		span.SetStatus(codes.Error, "voucher outside its window")
		return nil, domain.ErrVoucherInvalid
	}
	if voucher.Quantity <= 0 {
		span.SetStatus(codes.Error, "voucher quantity drained")
		return nil, domain.ErrVoucherExhausted
	}
	return voucher, nil
}

// CheckEligibility 判定券对某一订单行是否适用。
// 券上挂了自定义规则表达式就走规则引擎, 否则退回品类集合判定。
// 规则评估出错按不适用处理, 并记录告警日志。
func (s *VoucherService) CheckEligibility(ctx context.Context, voucher *domain.Voucher, category string, quantity int64) error {
	if voucher.EligibilityRule != "" && s.rules != nil {
		ok, err := s.rules.Evaluate(voucher.EligibilityRule, domain.EligibilityFact{
			Category:           category,
			Quantity:           int(quantity),
			EligibleCategories: voucher.EligibleCategories,
		})
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("voucher_id", voucher.ID).Msg("eligibility rule evaluation failed")
			return domain.ErrVoucherNotApplicable
		}
		if !ok {
			return domain.ErrVoucherNotApplicable
		}
		return nil
	}
	if !voucher.EligibleFor(category) {
		return domain.ErrVoucherNotApplicable
	}
	return nil
}

// Redeem 核销一次: quantity 条件原子减一, 不足返回 ErrVoucherExhausted。
func (s *VoucherService) Redeem(ctx context.Context, id string) error {
	return s.repo.Allocate(ctx, id, -1)
}

// Restore 取消订单时回补一次兑换次数。
func (s *VoucherService) Restore(ctx context.Context, id string) error {
	return s.repo.Allocate(ctx, id, 1)
}
