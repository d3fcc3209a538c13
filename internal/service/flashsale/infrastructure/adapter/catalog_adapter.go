package adapter

import (
	"context"

	catalogdomain "flashmall/internal/service/catalog/domain"
	"flashmall/internal/service/flashsale/port"
)

// CatalogItemAdapter 把商品仓储适配成闪购服务的 ItemFinder 端口。
// 直接依赖仓储而非商品应用服务, 避免与商品读路径的闪购标注形成环。
type CatalogItemAdapter struct {
	items catalogdomain.ItemRepository
}

func NewCatalogItemAdapter(items catalogdomain.ItemRepository) *CatalogItemAdapter {
	return &CatalogItemAdapter{items: items}
}

func (a *CatalogItemAdapter) FindOriginal(ctx context.Context, itemID string) (*port.CatalogItem, error) {
	item, err := a.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return &port.CatalogItem{ID: item.ID, Stocks: item.Stocks}, nil
}
