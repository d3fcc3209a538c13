package zookeeper

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
)

const lockRoot = "/flashmall/locks" // 所有分布式锁的根节点

// Conn 是对 zk.Conn 的薄封装，集中连接参数。
type Conn struct {
	*zk.Conn
}

// Connect 建立到 ZooKeeper 集群的连接。
func Connect(servers []string) (*Conn, error) {
	conn, _, err := zk.Connect(servers, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to zookeeper: %w", err)
	}
	return &Conn{Conn: conn}, nil
}

// DistributedLock 是基于临时顺序节点的分布式锁。
// 用于串行化那些必须“检查后写入”的操作，例如闪购档期的冲突校验。
type DistributedLock struct {
	conn     *Conn
	path     string // 锁的路径，例如 /flashmall/locks/flashsale-window
	lockNode string // 成功获取锁后，自己创建的节点路径
}

// NewDistributedLock 创建一个新的分布式锁实例。
func NewDistributedLock(conn *Conn, resourceID string) *DistributedLock {
	ensurePath(conn, "/flashmall")
	ensurePath(conn, lockRoot)

	lockPath := lockRoot + "/" + resourceID
	ensurePath(conn, lockPath)

	return &DistributedLock{
		conn: conn,
		path: lockPath,
	}
}

func ensurePath(conn *Conn, path string) {
	exists, _, err := conn.Exists(path)
	if err == nil && exists {
		return
	}
	if _, createErr := conn.Create(path, []byte(""), 0, zk.WorldACL(zk.PermAll)); createErr != nil && createErr != zk.ErrNodeExists {
		panic(fmt.Sprintf("Failed to create lock node %s: %v", path, createErr))
	}
}

// Lock 尝试获取锁，获取不到则阻塞等待，最长 30s。
func (l *DistributedLock) Lock() error {
	// 1. 在锁路径下创建临时顺序节点
	nodePath, err := l.conn.CreateProtectedEphemeralSequential(l.path+"/lock-", []byte(""), zk.WorldACL(zk.PermAll))
	if err != nil {
		return fmt.Errorf("failed to create sequential node: %w", err)
	}
	l.lockNode = nodePath

	for {
		// 2. 获取锁路径下的所有子节点并排序
		children, _, err := l.conn.Children(l.path)
		if err != nil {
			return fmt.Errorf("failed to get children nodes: %w", err)
		}
		sort.Strings(children)

		// 3. 自己是最小节点则持有锁
		myNodeName := strings.TrimPrefix(l.lockNode, l.path+"/")
		if myNodeName == children[0] {
			return nil
		}

		// 4. 否则监听前一个节点
		prevNodeIndex := -1
		for i, child := range children {
			if child == myNodeName {
				prevNodeIndex = i - 1
				break
			}
		}
		if prevNodeIndex < 0 {
			return errors.New("cannot find previous node, something is wrong")
		}
		prevNodePath := l.path + "/" + children[prevNodeIndex]

		_, _, eventChan, err := l.conn.ExistsW(prevNodePath)
		if err != nil {
			// 前一个节点刚好被删除，重新竞争
			if err == zk.ErrNoNode {
				continue
			}
			return fmt.Errorf("failed to watch previous node: %w", err)
		}

		select {
		case event := <-eventChan:
			if event.Type == zk.EventNodeDeleted {
				continue
			}
		case <-time.After(30 * time.Second):
			return errors.New("timeout waiting for lock")
		}
	}
}

// Unlock 释放锁。
func (l *DistributedLock) Unlock() error {
	if l.lockNode == "" {
		return errors.New("no lock to unlock")
	}
	err := l.conn.Delete(l.lockNode, -1)
	if err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("failed to delete lock node: %w", err)
	}
	l.lockNode = ""
	return nil
}
