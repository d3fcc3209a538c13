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
	"flashmall/internal/service/flashsale/domain"
	"flashmall/internal/service/flashsale/port"
)

// windowLockResource 是档期冲突校验的锁资源名。
// 冲突校验是先查再写，必须在锁内完成，否则两个并发创建都能通过校验。
const windowLockResource = "flashsale-window"

// 活动档期缓存的 TTL 上限。缓存只服务商品读路径的标注，
// 下单路径永远读权威仓储。
const liveCacheTTLCap = 30 * time.Second

// CampaignCache 缓存当前生效的档期，miss 与“确实没有档期”都用 ok=false 表达。
type CampaignCache interface {
	GetLive(ctx context.Context) (*domain.Campaign, bool, error)
	SetLive(ctx context.Context, campaign *domain.Campaign, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// ActiveAllocation 是某个商品此刻命中的闪购配置。
type ActiveAllocation struct {
	CampaignID      string
	CampaignName    string
	DiscountPercent int
	Remaining       int64
}

// FlashSaleService 是闪购注册表的应用服务。
type FlashSaleService struct {
	repo   domain.CampaignRepository
	items  port.ItemFinder
	locker port.Locker
	cache  CampaignCache
	tracer trace.Tracer
	now    func() time.Time
}

func NewFlashSaleService(repo domain.CampaignRepository, items port.ItemFinder, locker port.Locker, cache CampaignCache, tracer trace.Tracer) *FlashSaleService {
	return &FlashSaleService{repo: repo, items: items, locker: locker, cache: cache, tracer: tracer, now: time.Now}
}

// WithClock 注入时钟，测试用。
func (s *FlashSaleService) WithClock(now func() time.Time) *FlashSaleService {
	s.now = now
	return s
}

// Create 创建档期。商品必须存在、限量不得超过商品库存、折扣在合法区间，
// 且窗口不能与任何未结束的档期重叠。
func (s *FlashSaleService) Create(ctx context.Context, req *CreateCampaignRequest) (*domain.Campaign, error) {
	ctx, span := s.tracer.Start(ctx, "flashsale.CreateCampaign")
	defer span.End()

	campaign := &domain.Campaign{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Status:    domain.StatusActive,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Items:     toAllocations(req.Items),
	}
	if err := campaign.Validate(); err != nil {
		return nil, err
	}
	if len(campaign.Items) == 0 {
		return nil, fmt.Errorf("flash sale requires at least one item")
	}

	if err := s.validateAllocations(ctx, campaign.Items); err != nil {
		span.RecordError(err)
		return nil, err
	}

	// 冲突校验 + 落库必须在同一个临界区内
	err := s.locker.WithLock(ctx, windowLockResource, func() error {
		if err := s.checkWindowConflict(ctx, campaign, ""); err != nil {
			return err
		}
		return s.repo.Create(ctx, campaign)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "campaign creation failed")
		return nil, err
	}

	s.invalidateCache(ctx)
	span.SetAttributes(attribute.String("campaign.id", campaign.ID))
	return campaign, nil
}

// Update 部分更新档期，窗口变化时重新做冲突校验。
func (s *FlashSaleService) Update(ctx context.Context, id string, req *UpdateCampaignRequest) (*domain.Campaign, error) {
	ctx, span := s.tracer.Start(ctx, "flashsale.UpdateCampaign")
	defer span.End()

	campaign, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		campaign.Name = *req.Name
	}
	if req.Status != nil {
		campaign.Status = domain.Status(*req.Status)
	}
	if req.StartTime != nil {
		campaign.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		campaign.EndTime = *req.EndTime
	}
	if req.Items != nil {
		campaign.Items = toAllocations(req.Items)
		if err := s.validateAllocations(ctx, campaign.Items); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}
	if err := campaign.Validate(); err != nil {
		return nil, err
	}

	err = s.locker.WithLock(ctx, windowLockResource, func() error {
		if err := s.checkWindowConflict(ctx, campaign, campaign.ID); err != nil {
			return err
		}
		return s.repo.Update(ctx, campaign)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.invalidateCache(ctx)
	return campaign, nil
}

// Remove 软删除档期，幂等。历史订单仍持有档期 ID，所以不做物理删除。
func (s *FlashSaleService) Remove(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "flashsale.RemoveCampaign")
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

// GetList 分页查询档期。
func (s *FlashSaleService) GetList(ctx context.Context, q *ListCampaignsQuery) (pagination.Page[*domain.Campaign], error) {
	ctx, span := s.tracer.Start(ctx, "flashsale.ListCampaigns")
	defer span.End()

	q.Normalize()
	filter := domain.CampaignFilter{
		Name:           q.Name,
		ItemID:         q.ItemID,
		StartTimeAfter: q.StartTime,
		EndTimeAfter:   q.EndTime,
	}
	campaigns, total, err := s.repo.Search(ctx, filter, q.Query)
	if err != nil {
		span.RecordError(err)
		return pagination.Page[*domain.Campaign]{}, err
	}
	return pagination.NewPage(campaigns, total, q.Query), nil
}

// Get 按 ID 查询档期。
func (s *FlashSaleService) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	return s.repo.FindByID(ctx, id)
}

// FindLive 返回此刻正在进行的档期（可能为 nil），下单等权威路径使用。
func (s *FlashSaleService) FindLive(ctx context.Context, now time.Time) (*domain.Campaign, error) {
	return s.repo.FindLive(ctx, now)
}

// ActiveAllocation 返回某商品此刻命中的闪购配置，读权威仓储。
func (s *FlashSaleService) ActiveAllocation(ctx context.Context, itemID string, now time.Time) (*ActiveAllocation, error) {
	campaign, err := s.repo.FindLive(ctx, now)
	if err != nil {
		return nil, err
	}
	return pickAllocation(campaign, itemID), nil
}

// CachedAllocation 与 ActiveAllocation 语义相同，但优先走缓存。
// 只用于商品读路径的标注，允许短暂陈旧。
func (s *FlashSaleService) CachedAllocation(ctx context.Context, itemID string, now time.Time) (*ActiveAllocation, error) {
	campaign, err := s.cachedLive(ctx, now)
	if err != nil {
		return nil, err
	}
	return pickAllocation(campaign, itemID), nil
}

// Allocate 调整档期内某商品的剩余量，delta 为负表示下单占用。
func (s *FlashSaleService) Allocate(ctx context.Context, campaignID, itemID string, delta int64) error {
	ctx, span := s.tracer.Start(ctx, "flashsale.Allocate")
	defer span.End()
	span.SetAttributes(
		attribute.String("campaign.id", campaignID),
		attribute.String("item.id", itemID),
		attribute.Int64("delta", delta),
	)

	if err := s.repo.Allocate(ctx, campaignID, itemID, delta); err != nil {
		span.RecordError(err)
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *FlashSaleService) cachedLive(ctx context.Context, now time.Time) (*domain.Campaign, error) {
	if s.cache != nil {
		if campaign, ok, err := s.cache.GetLive(ctx); err == nil && ok {
			if campaign != nil && campaign.IsLive(now) {
				return campaign, nil
			}
		} else if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("flash sale cache read failed, falling back to repository")
		}
	}

	campaign, err := s.repo.FindLive(ctx, now)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && campaign != nil {
		ttl := campaign.EndTime.Sub(now)
		if ttl > liveCacheTTLCap {
			ttl = liveCacheTTLCap
		}
		if ttl > 0 {
			if err := s.cache.SetLive(ctx, campaign, ttl); err != nil {
				logger.Ctx(ctx).Warn().Err(err).Msg("flash sale cache write failed")
			}
		}
	}
	return campaign, nil
}

func (s *FlashSaleService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("flash sale cache invalidation failed")
	}
}

// checkWindowConflict 与所有未结束的档期比较窗口，excludeID 用于更新时跳过自身。
func (s *FlashSaleService) checkWindowConflict(ctx context.Context, campaign *domain.Campaign, excludeID string) error {
	upcoming, err := s.repo.FindUpcoming(ctx, s.now())
	if err != nil {
		return err
	}
	for _, existing := range upcoming {
		if existing.ID == excludeID {
			continue
		}
		if existing.Overlaps(campaign.StartTime, campaign.EndTime) {
			return domain.ErrWindowConflict
		}
	}
	return nil
}

// validateAllocations 校验每个商品存在且限量不超过当前库存。
func (s *FlashSaleService) validateAllocations(ctx context.Context, allocations []domain.ItemAllocation) error {
	for _, alloc := range allocations {
		item, err := s.items.FindOriginal(ctx, alloc.ItemID)
		if err != nil {
			return fmt.Errorf("item %s does not exist: %w", alloc.ItemID, err)
		}
		if alloc.FlashSaleQuantity > item.Stocks {
			return fmt.Errorf("flash sale quantity for item %s exceeds its stock", alloc.ItemID)
		}
	}
	return nil
}

func pickAllocation(campaign *domain.Campaign, itemID string) *ActiveAllocation {
	if campaign == nil {
		return nil
	}
	alloc := campaign.Allocation(itemID)
	if alloc == nil {
		return nil
	}
	return &ActiveAllocation{
		CampaignID:      campaign.ID,
		CampaignName:    campaign.Name,
		DiscountPercent: alloc.DiscountPercent,
		Remaining:       alloc.FlashSaleQuantity,
	}
}

func toAllocations(reqs []ItemAllocationRequest) []domain.ItemAllocation {
	allocations := make([]domain.ItemAllocation, len(reqs))
	for i, r := range reqs {
		allocations[i] = domain.ItemAllocation{
			ItemID:            r.ItemID,
			FlashSaleQuantity: r.FlashSaleQuantity,
			DiscountPercent:   r.DiscountPercent,
		}
	}
	return allocations
}
