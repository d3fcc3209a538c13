package redis

import (
	goredis "github.com/redis/go-redis/v9"
)

// Client 在 go-redis 之上做了一层很薄的封装，统一连接的创建与关闭。
type Client struct {
	rdb *goredis.Client
}

// NewClient 创建并连接一个 redis 客户端。
func NewClient(addr string) *Client {
	return &Client{rdb: goredis.NewClient(&goredis.Options{Addr: addr})}
}

// GetClient 暴露底层客户端，供需要 pipeline 等高级特性的调用方使用。
func (c *Client) GetClient() *goredis.Client {
	return c.rdb
}

// Close 关闭底层连接。
func (c *Client) Close() error {
	return c.rdb.Close()
}
