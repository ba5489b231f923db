package cache

import (
	"encoding/json"
	"sync"
	"time"
)

// Policy 缓存淘汰策略
type Policy string

const (
	PolicyLRU Policy = "lru" // 淘汰最久未访问的条目
	PolicyLFU Policy = "lfu" // 淘汰访问次数最少的条目
	PolicyTTL Policy = "ttl" // 淘汰最接近过期的条目
)

// Options 缓存实例配置
type Options[V any] struct {
	MaxEntries    int             // 最大条目数，0表示不限制
	MaxMemory     int64           // 内存预算（估算字节数），0表示不限制
	DefaultTTL    time.Duration   // 默认过期时间，0表示不过期
	Policy        Policy          // 淘汰策略，默认LRU
	SweepInterval time.Duration   // 后台清理间隔，默认1分钟
	DisableSweep  bool            // 关闭后台清理，测试时使用
	SizeOf        func(V) int64   // 条目大小估算函数，为空时按JSON序列化长度估算
}

// entry 单个缓存条目
type entry[V any] struct {
	value      V
	size       int64
	insertedAt time.Time
	lastAccess time.Time
	expireAt   time.Time // 零值表示不过期
	hits       uint64
}

// Stats 缓存统计快照
type Stats struct {
	Entries      int     `json:"entries"`
	MemoryUsed   int64   `json:"memory_used"`
	MemoryBudget int64   `json:"memory_budget"`
	Hits         uint64  `json:"hits"`
	Misses       uint64  `json:"misses"`
	Evictions    uint64  `json:"evictions"`
	Expired      uint64  `json:"expired"`
	HitRate      float64 `json:"hit_rate"`
}

// Health 缓存健康状态
type Health struct {
	Degraded bool   `json:"degraded"`
	Reason   string `json:"reason,omitempty"`
	Stats    Stats  `json:"stats"`
}

// ExportedEntry 导出的缓存条目，用于预热
type ExportedEntry[V any] struct {
	Key        string    `json:"key"`
	Value      V         `json:"value"`
	InsertedAt time.Time `json:"inserted_at"`
	ExpireAt   time.Time `json:"expire_at"`
	Hits       uint64    `json:"hits"`
}

// Cache 有界键值缓存，支持TTL、多种淘汰策略和统计
type Cache[V any] struct {
	mu      sync.RWMutex
	opts    Options[V]
	entries map[string]*entry[V]
	memUsed int64

	hits      uint64
	misses    uint64
	evictions uint64
	expired   uint64

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New 创建缓存实例，除非关闭后台清理，否则启动清理协程
func New[V any](opts Options[V]) *Cache[V] {
	if opts.Policy == "" {
		opts.Policy = PolicyLRU
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	c := &Cache[V]{
		opts:    opts,
		entries: make(map[string]*entry[V]),
		stopCh:  make(chan struct{}),
	}
	if !opts.DisableSweep {
		go c.sweepLoop()
	}
	return c
}

// Close 停止后台清理协程
func (c *Cache[V]) Close() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// Set 写入条目，使用默认TTL
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.opts.DefaultTTL)
}

// SetWithTTL 写入条目并指定过期时间，ttl为0表示不过期
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	size := c.sizeOf(value)
	now := time.Now()
	e := &entry[V]{
		value:      value,
		size:       size,
		insertedAt: now,
		lastAccess: now,
	}
	if ttl > 0 {
		e.expireAt = now.Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.memUsed -= old.size
		delete(c.entries, key)
	}

	// 超出条目数上限时按策略淘汰一个
	if c.opts.MaxEntries > 0 && len(c.entries) >= c.opts.MaxEntries {
		c.evictOneLocked()
	}
	// 超出内存预算时持续淘汰，直到放得下为止
	if c.opts.MaxMemory > 0 {
		for len(c.entries) > 0 && c.memUsed+size > c.opts.MaxMemory {
			c.evictOneLocked()
		}
	}

	c.entries[key] = e
	c.memUsed += size
}

// Get 读取条目，已过期的条目视为不存在并被删除
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	if !e.expireAt.IsZero() && !time.Now().Before(e.expireAt) {
		c.removeLocked(key, e)
		c.expired++
		c.misses++
		var zero V
		return zero, false
	}
	e.lastAccess = time.Now()
	e.hits++
	c.hits++
	return e.value, true
}

// GetOrSet 读取条目，未命中时调用工厂函数计算并写入
func (c *Cache[V]) GetOrSet(key string, factory func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := factory()
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, v)
	return v, nil
}

// MGet 批量读取，只返回命中的键
func (c *Cache[V]) MGet(keys []string) map[string]V {
	result := make(map[string]V, len(keys))
	for _, key := range keys {
		if v, ok := c.Get(key); ok {
			result[key] = v
		}
	}
	return result
}

// MSet 批量写入，使用默认TTL
func (c *Cache[V]) MSet(values map[string]V) {
	for key, v := range values {
		c.Set(key, v)
	}
}

// Delete 删除条目
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.removeLocked(key, e)
	}
}

// DeleteFunc 删除所有键满足谓词的条目，返回删除数量
func (c *Cache[V]) DeleteFunc(match func(key string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, e := range c.entries {
		if match(key) {
			c.removeLocked(key, e)
			removed++
		}
	}
	return removed
}

// Clear 清空缓存
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry[V])
	c.memUsed = 0
}

// Len 当前条目数
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Export 导出未过期条目的快照，用于预热另一个实例
func (c *Cache[V]) Export() []ExportedEntry[V] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := time.Now()
	out := make([]ExportedEntry[V], 0, len(c.entries))
	for key, e := range c.entries {
		if !e.expireAt.IsZero() && !now.Before(e.expireAt) {
			continue
		}
		out = append(out, ExportedEntry[V]{
			Key:        key,
			Value:      e.value,
			InsertedAt: e.insertedAt,
			ExpireAt:   e.expireAt,
			Hits:       e.hits,
		})
	}
	return out
}

// Import 导入条目快照，已过期的条目被跳过
func (c *Cache[V]) Import(entries []ExportedEntry[V]) {
	now := time.Now()
	for _, ee := range entries {
		if !ee.ExpireAt.IsZero() && !now.Before(ee.ExpireAt) {
			continue
		}
		ttl := time.Duration(0)
		if !ee.ExpireAt.IsZero() {
			ttl = ee.ExpireAt.Sub(now)
		}
		c.SetWithTTL(ee.Key, ee.Value, ttl)
	}
}

// Stats 返回统计快照
func (c *Cache[V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statsLocked()
}

func (c *Cache[V]) statsLocked() Stats {
	s := Stats{
		Entries:      len(c.entries),
		MemoryUsed:   c.memUsed,
		MemoryBudget: c.opts.MaxMemory,
		Hits:         c.hits,
		Misses:       c.misses,
		Evictions:    c.evictions,
		Expired:      c.expired,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// healthMinSamples 命中率低于阈值才算降级所需的最小访问次数，
// 避免冷启动阶段被误判
const healthMinSamples = 100

// Health 健康检查：内存超过预算90%或命中率低于50%时视为降级
func (c *Cache[V]) Health() Health {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.statsLocked()
	h := Health{Stats: s}
	if s.MemoryBudget > 0 && float64(s.MemoryUsed) > float64(s.MemoryBudget)*0.9 {
		h.Degraded = true
		h.Reason = "内存使用超过预算90%"
		return h
	}
	if s.Hits+s.Misses >= healthMinSamples && s.HitRate < 0.5 {
		h.Degraded = true
		h.Reason = "命中率低于50%"
	}
	return h
}

// removeLocked 删除条目并更新内存占用，调用方持有写锁
func (c *Cache[V]) removeLocked(key string, e *entry[V]) {
	delete(c.entries, key)
	c.memUsed -= e.size
}

// evictOneLocked 按策略选出一个牺牲条目并删除，调用方持有写锁
func (c *Cache[V]) evictOneLocked() {
	var victimKey string
	var victim *entry[V]
	for key, e := range c.entries {
		if victim == nil {
			victimKey, victim = key, e
			continue
		}
		switch c.opts.Policy {
		case PolicyLFU:
			if e.hits < victim.hits {
				victimKey, victim = key, e
			}
		case PolicyTTL:
			// 不过期的条目视为最晚过期
			if victim.expireAt.IsZero() && !e.expireAt.IsZero() {
				victimKey, victim = key, e
			} else if !e.expireAt.IsZero() && e.expireAt.Before(victim.expireAt) {
				victimKey, victim = key, e
			}
		default: // LRU
			if e.lastAccess.Before(victim.lastAccess) {
				victimKey, victim = key, e
			}
		}
	}
	if victim != nil {
		c.removeLocked(victimKey, victim)
		c.evictions++
	}
}

// sizeOf 估算条目占用的字节数
func (c *Cache[V]) sizeOf(value V) int64 {
	if c.opts.SizeOf != nil {
		return c.opts.SizeOf(value)
	}
	// 没有自定义估算函数时按JSON序列化长度近似
	data, err := json.Marshal(value)
	if err != nil {
		return 64
	}
	return int64(len(data)) + 64
}

// sweepLoop 后台定期清理过期条目
func (c *Cache[V]) sweepLoop() {
	ticker := time.NewTicker(c.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.RemoveExpired()
		case <-c.stopCh:
			return
		}
	}
}

// RemoveExpired 删除所有已过期条目，返回删除数量
func (c *Cache[V]) RemoveExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	removed := 0
	for key, e := range c.entries {
		if !e.expireAt.IsZero() && !now.Before(e.expireAt) {
			c.removeLocked(key, e)
			c.expired++
			removed++
		}
	}
	return removed
}
