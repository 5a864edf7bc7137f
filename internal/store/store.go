// Package store 乐观资源仓：为单个父记录维护行项列表的本地副本，
// 在共享缓存与本地状态之间居中协调。变更立即反映到本地，随后以
// 服务端权威列表对账：成功后整体替换，失败时本地状态保持不动。
package store

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Item 可进仓的行项
type Item interface {
	ItemID() int
}

// State 仓状态机：Uninitialized → Loading → Ready
// Ready之后每次变更回到Ready
type State int

const (
	Uninitialized State = iota
	Loading
	Ready
)

// ListFunc 拉取父记录权威列表
type ListFunc[T Item] func(ctx context.Context, token string) ([]T, error)

// Config 仓配置
// Cache为nil时仓在生命周期内独占本地状态；非nil时共享缓存是事实来源，
// 本地只做镜像（显式注入，而非运行时猜测）
type Config[T Item] struct {
	List      ListFunc[T]
	Cache     SharedCache[T]
	HasParent bool
	Refresh   func() // 无缓存时变更成功后的通知回调，可为nil
	Logger    *zap.Logger
}

// Store 单个父记录的资源仓
type Store[T Item] struct {
	mu          sync.Mutex
	state       State
	items       []T
	initErr     error
	fingerprint string

	list      ListFunc[T]
	cache     SharedCache[T]
	hasParent bool
	refresh   func()
	logger    *zap.Logger
}

// New 创建资源仓
func New[T Item](cfg Config[T]) *Store[T] {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store[T]{
		list:      cfg.List,
		cache:     cfg.Cache,
		hasParent: cfg.HasParent,
		refresh:   cfg.Refresh,
		logger:    logger,
	}
}

// Init 首次初始化
// 1. 无父记录时直接以空列表就绪，不发请求
// 2. 共享缓存已有内容时同步采纳，不发请求
// 3. 否则恰好发起一次列表拉取；失败记录在仓上，不向外抛
//
// 仓的生命周期长于单次视图：上次初始化以失败告终时，下一次Init
// 重新尝试拉取，用户的重复操作就是重试机制
func (s *Store[T]) Init(ctx context.Context, token string) {
	s.mu.Lock()
	if s.state == Loading || (s.state == Ready && s.initErr == nil) {
		s.mu.Unlock()
		return
	}

	if !s.hasParent {
		s.items = []T{}
		s.state = Ready
		s.mu.Unlock()
		return
	}

	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx); err == nil && ok && len(cached) > 0 {
			s.adoptLocked(cached)
			s.mu.Unlock()
			return
		}
	}

	s.state = Loading
	s.mu.Unlock()

	items, err := s.list(ctx, token)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.initErr = err
		s.state = Ready
		s.items = []T{}
		s.logger.Warn("store init fetch failed", zap.Error(err))
		return
	}
	s.adoptLocked(items)
	if s.cache != nil {
		if err := s.cache.Put(ctx, items); err != nil {
			s.logger.Warn("store cache put failed", zap.Error(err))
		}
	}
}

// Resync 对账共享缓存的内容指纹
// 另一仓实例变更了同一父记录时，本地副本跟随缓存重新同步，
// 避免并发观察同一父记录的两个视图重复拉取
func (s *Store[T]) Resync(ctx context.Context) {
	if s.cache == nil {
		return
	}
	cached, ok, err := s.cache.Get(ctx)
	if err != nil || !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Ready {
		return
	}
	if fp := Fingerprint(cached); fp != s.fingerprint {
		s.adoptLocked(cached)
	}
}

// Items 当前列表副本
func (s *Store[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// State 当前状态
func (s *Store[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// InitErr 初始化拉取错误（调用方读字段，而非捕获异常）
func (s *Store[T]) InitErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initErr
}

// Mutate 执行一次变更并对账
// 成功后重新拉取父记录的权威列表整体替换（而非信任变更响应），
// 并传播到共享缓存或触发刷新回调；失败时本地状态不动，错误原样返回，
// 绝不把变更部分地应用到本地
func (s *Store[T]) Mutate(ctx context.Context, token string, op func(ctx context.Context) error) error {
	if err := op(ctx); err != nil {
		return err
	}
	return s.Reload(ctx, token)
}

// Reload 以服务端列表整体替换本地状态
func (s *Store[T]) Reload(ctx context.Context, token string) error {
	items, err := s.list(ctx, token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.adoptLocked(items)
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Put(ctx, items); err != nil {
			s.logger.Warn("store cache put failed", zap.Error(err))
		}
	} else if s.refresh != nil {
		s.refresh()
	}
	return nil
}

// BulkReplace 整体重选：先删除当前全部行项，再创建新集合，最后对账。
// 删除成功而创建失败时会用restore尝试补偿恢复此前已确认的行，
// 使资源不至于停在空集（恢复本身也可能失败，此时以服务端状态为准）
func (s *Store[T]) BulkReplace(
	ctx context.Context,
	token string,
	deleteAll func(ctx context.Context) error,
	createAll func(ctx context.Context) error,
	restore func(ctx context.Context, previous []T) error,
) error {
	previous := s.Items()

	if err := deleteAll(ctx); err != nil {
		return err
	}

	if err := createAll(ctx); err != nil {
		if restore != nil && len(previous) > 0 {
			if restoreErr := restore(ctx, previous); restoreErr != nil {
				s.logger.Error("bulk replace compensation failed",
					zap.Error(restoreErr),
					zap.Int("previous_items", len(previous)),
				)
			}
		}
		// 无论补偿与否都要对账到服务端当前状态
		if reloadErr := s.Reload(ctx, token); reloadErr != nil {
			s.logger.Warn("reload after failed bulk replace", zap.Error(reloadErr))
		}
		return err
	}

	return s.Reload(ctx, token)
}

func (s *Store[T]) adoptLocked(items []T) {
	if items == nil {
		items = []T{}
	}
	s.items = items
	s.fingerprint = Fingerprint(items)
	s.state = Ready
	// 任何成功采纳的权威列表都清掉此前的初始化失败
	s.initErr = nil
}

// Fingerprint 列表内容指纹：升序排列的id拼接
// 整数id域内碰撞风险可忽略；若行项可以在id不变的情况下被修改，
// 需要换成对整个载荷取哈希
func Fingerprint[T Item](items []T) string {
	ids := make([]int, len(items))
	for i, item := range items {
		ids[i] = item.ItemID()
	}
	sort.Ints(ids)

	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(id))
	}
	return b.String()
}
