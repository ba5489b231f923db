package cache

import "sync"

// Instance 受管缓存实例需要满足的接口
type Instance interface {
	Stats() Stats
	Health() Health
	Clear()
	Close()
}

// Manager 管理多个独立配置的命名缓存实例
type Manager struct {
	mu     sync.RWMutex
	caches map[string]Instance
}

// NewManager 创建缓存管理器
func NewManager() *Manager {
	return &Manager{caches: make(map[string]Instance)}
}

// Register 注册命名缓存实例，重名时替换并关闭旧实例
func (m *Manager) Register(name string, c Instance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.caches[name]; ok {
		old.Close()
	}
	m.caches[name] = c
}

// Get 获取命名缓存实例
func (m *Manager) Get(name string) (Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.caches[name]
	return c, ok
}

// StatsAll 返回所有实例的统计快照
func (m *Manager) StatsAll() map[string]Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string]Stats, len(m.caches))
	for name, c := range m.caches {
		result[name] = c.Stats()
	}
	return result
}

// HealthAll 返回所有实例的健康状态
func (m *Manager) HealthAll() map[string]Health {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string]Health, len(m.caches))
	for name, c := range m.caches {
		result[name] = c.Health()
	}
	return result
}

// ClearAll 清空所有实例
func (m *Manager) ClearAll() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.caches {
		c.Clear()
	}
}

// CloseAll 关闭所有实例的后台协程
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.caches {
		c.Close()
	}
	m.caches = make(map[string]Instance)
}
