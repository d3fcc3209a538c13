package adapter

import (
	"context"
	"errors"

	catalogapp "flashmall/internal/service/catalog/application"
	catalogdomain "flashmall/internal/service/catalog/domain"
	"flashmall/internal/service/order/domain/port"
)

// CatalogAdapter 把商品目录服务适配成订单引擎的 ItemCatalog 端口,
// 并把目录侧的领域错误翻译成端口错误。
type CatalogAdapter struct {
	items *catalogapp.ItemService
}

func NewCatalogAdapter(items *catalogapp.ItemService) *CatalogAdapter {
	return &CatalogAdapter{items: items}
}

func (a *CatalogAdapter) GetItemOriginal(ctx context.Context, itemID string) (*port.CatalogItem, error) {
	item, err := a.items.GetOriginal(ctx, itemID)
	if err != nil {
		return nil, mapCatalogError(err)
	}
	return &port.CatalogItem{
		ID:         item.ID,
		Name:       item.Name,
		Category:   item.Category,
		PriceCents: item.PriceCents,
		Stocks:     item.Stocks,
	}, nil
}

func (a *CatalogAdapter) CommitStock(ctx context.Context, itemID string, qty int64) error {
	return mapCatalogError(a.items.CommitStock(ctx, itemID, qty))
}

func (a *CatalogAdapter) ReleaseStock(ctx context.Context, itemID string, qty int64) error {
	return mapCatalogError(a.items.ReleaseStock(ctx, itemID, qty))
}

func mapCatalogError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, catalogdomain.ErrItemNotFound):
		return port.ErrItemNotFound
	case errors.Is(err, catalogdomain.ErrInsufficientStock):
		return port.ErrInsufficientStock
	default:
		return err
	}
}
