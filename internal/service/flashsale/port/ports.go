package port

import "context"

// CatalogItem 是闪购服务校验档期配置时需要的商品信息。
type CatalogItem struct {
	ID     string
	Stocks int64
}

// ItemFinder 是对商品目录的出站端口，返回未做闪购标注的原始商品。
type ItemFinder interface {
	FindOriginal(ctx context.Context, itemID string) (*CatalogItem, error)
}

// Locker 串行化“检查后写入”的临界区。
// 生产实现基于 ZooKeeper，保证多实例部署下档期冲突校验不会竞态。
type Locker interface {
	WithLock(ctx context.Context, resource string, fn func() error) error
}
