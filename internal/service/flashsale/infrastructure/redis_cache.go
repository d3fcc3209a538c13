package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"flashmall/internal/pkg/redis"
	"flashmall/internal/service/flashsale/domain"
)

const liveCampaignKey = "flashsale:live"

// RedisCampaignCache 缓存当前生效的档期，服务商品读路径。
// 写路径（创建/修改/占用限量）都会失效缓存。
type RedisCampaignCache struct {
	client *redis.Client
}

func NewRedisCampaignCache(client *redis.Client) *RedisCampaignCache {
	return &RedisCampaignCache{client: client}
}

func (c *RedisCampaignCache) GetLive(ctx context.Context) (*domain.Campaign, bool, error) {
	data, err := c.client.GetClient().Get(ctx, liveCampaignKey).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var campaign domain.Campaign
	if err := json.Unmarshal(data, &campaign); err != nil {
		// 缓存损坏按 miss 处理，同时清掉脏数据
		_ = c.Invalidate(ctx)
		return nil, false, nil
	}
	return &campaign, true, nil
}

func (c *RedisCampaignCache) SetLive(ctx context.Context, campaign *domain.Campaign, ttl time.Duration) error {
	data, err := json.Marshal(campaign)
	if err != nil {
		return err
	}
	return c.client.GetClient().Set(ctx, liveCampaignKey, data, ttl).Err()
}

func (c *RedisCampaignCache) Invalidate(ctx context.Context) error {
	return c.client.GetClient().Del(ctx, liveCampaignKey).Err()
}
