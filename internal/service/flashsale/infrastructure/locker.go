package infrastructure

import (
	"context"
	"sync"

	"flashmall/internal/pkg/zookeeper"
)

// ZkLocker 基于 ZooKeeper 临时顺序节点实现 port.Locker，
// 用于多实例部署下串行化档期冲突校验。
type ZkLocker struct {
	conn *zookeeper.Conn
}

func NewZkLocker(conn *zookeeper.Conn) *ZkLocker {
	return &ZkLocker{conn: conn}
}

func (l *ZkLocker) WithLock(_ context.Context, resource string, fn func() error) error {
	lock := zookeeper.NewDistributedLock(l.conn, resource)
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()
	return fn()
}

// LocalLocker 是进程内的 Locker 实现，供测试和单实例运行使用。
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *LocalLocker) WithLock(_ context.Context, resource string, fn func() error) error {
	l.mu.Lock()
	lock, ok := l.locks[resource]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[resource] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn()
}
