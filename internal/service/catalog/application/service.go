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
	"flashmall/internal/pkg/money"
	"flashmall/internal/pkg/pagination"
	"flashmall/internal/service/catalog/domain"
	"flashmall/internal/service/catalog/port"
)

// ItemService 负责商品的增删改查，以及读路径上的闪购标注。
// 库存账本（CommitStock/ReleaseStock）直接透传给仓储的条件原子更新。
type ItemService struct {
	repo   domain.ItemRepository
	promos port.PromotionLookup
	tracer trace.Tracer
	now    func() time.Time
}

func NewItemService(repo domain.ItemRepository, promos port.PromotionLookup, tracer trace.Tracer) *ItemService {
	return &ItemService{repo: repo, promos: promos, tracer: tracer, now: time.Now}
}

// WithClock 注入时钟，测试用。
func (s *ItemService) WithClock(now func() time.Time) *ItemService {
	s.now = now
	return s
}

// Create 创建商品，初始 stocks = quantity，sold = 0。
func (s *ItemService) Create(ctx context.Context, req *CreateItemRequest) (*domain.Item, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.CreateItem")
	defer span.End()

	if req.Name == "" || req.PriceCents <= 0 || req.Quantity < 0 {
		return nil, fmt.Errorf("invalid item: name, price and quantity are required")
	}

	item := &domain.Item{
		ID:         uuid.New().String(),
		Name:       req.Name,
		BarCode:    req.BarCode,
		Category:   req.Category,
		PriceCents: req.PriceCents,
		Stocks:     req.Quantity,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("item.id", item.ID))
	return item, nil
}

// Get 返回带闪购标注的商品视图。
func (s *ItemService) Get(ctx context.Context, id string) (*domain.ItemView, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.GetItem")
	defer span.End()

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return s.annotate(ctx, item), nil
}

// GetOriginal 绕过闪购标注，返回商品的原始状态。
func (s *ItemService) GetOriginal(ctx context.Context, id string) (*domain.Item, error) {
	return s.repo.FindByID(ctx, id)
}

// GetList 分页查询商品，每个条目都会做闪购标注。
func (s *ItemService) GetList(ctx context.Context, q *ListItemsQuery) (pagination.Page[*domain.ItemView], error) {
	ctx, span := s.tracer.Start(ctx, "catalog.ListItems")
	defer span.End()

	q.Normalize()
	filter := domain.ItemFilter{Name: q.ItemName, Category: q.Category, PriceCents: q.PriceCents}
	items, total, err := s.repo.Search(ctx, filter, q.Query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "item search failed")
		return pagination.Page[*domain.ItemView]{}, err
	}

	views := make([]*domain.ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, s.annotate(ctx, item))
	}
	return pagination.NewPage(views, total, q.Query), nil
}

// Update 部分更新商品。
func (s *ItemService) Update(ctx context.Context, id string, req *UpdateItemRequest) (*domain.Item, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.UpdateItem")
	defer span.End()

	patch := domain.ItemPatch{
		Name:       req.Name,
		BarCode:    req.BarCode,
		Category:   req.Category,
		PriceCents: req.PriceCents,
		Stocks:     req.Stocks,
	}
	item, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return item, nil
}

// Remove 删除商品。有过销量的商品不允许删除，保证历史订单可追溯。
func (s *ItemService) Remove(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "catalog.RemoveItem")
	defer span.End()

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if item.Sold > 0 {
		span.SetStatus(codes.Error, "item has sales history")
		return domain.ErrItemHasSales
	}
	return s.repo.Delete(ctx, id)
}

// CommitStock 下单占用库存：stocks -= qty, sold += qty。
func (s *ItemService) CommitStock(ctx context.Context, id string, qty int64) error {
	return s.repo.CommitStock(ctx, id, qty)
}

// ReleaseStock 取消订单回补库存。
func (s *ItemService) ReleaseStock(ctx context.Context, id string, qty int64) error {
	return s.repo.ReleaseStock(ctx, id, qty)
}

// annotate 查询当前生效的闪购档期并叠加到商品视图上。
// 闪购查询失败只降级为无标注，不阻塞商品读取。
func (s *ItemService) annotate(ctx context.Context, item *domain.Item) *domain.ItemView {
	view := &domain.ItemView{Item: *item}
	if s.promos == nil {
		return view
	}
	promo, err := s.promos.ActiveAllocation(ctx, item.ID, s.now())
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("item_id", item.ID).Msg("flash sale lookup failed, serving unannotated item")
		return view
	}
	if promo == nil {
		return view
	}
	view.FlashSale = &domain.Promotion{
		CampaignID:      promo.CampaignID,
		CampaignName:    promo.CampaignName,
		DiscountPercent: promo.DiscountPercent,
		Remaining:       promo.Remaining,
		PriceCents:      money.ApplyPercentDiscount(item.PriceCents, promo.DiscountPercent),
	}
	return view
}
