package internal

import (
	"log/slog"
	"sync"
)

// Identity 已連線的玩家身分
//
// ID 以連線為範圍：連線建立時由傳輸層配發（單調遞增，不重用），
// 連線關閉即銷毀。房間與對局只引用 Identity，不擁有它。
type Identity struct {
	ID   int
	Name string
}

// Registry 身分註冊表
//
// 以連線 id 為鍵的記憶體 map，讀寫鎖保護。
// 註冊（reg 訊息）綁定顯示名稱，斷線時移除。
type Registry struct {
	mu     sync.RWMutex
	users  map[int]*Identity
	logger *slog.Logger
}

// NewRegistry 建立身分註冊表
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		users:  make(map[int]*Identity),
		logger: logger,
	}
}

// Register 以連線 id 註冊顯示名稱
//
// 同一連線重複註冊會覆蓋名稱。憑證驗證（名稱 / 密碼唯一性）
// 屬外部協作者，這裡不處理。
func (r *Registry) Register(connID int, name string) *Identity {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := &Identity{ID: connID, Name: name}
	r.users[connID] = id

	r.logger.Info("玩家已註冊", "conn_id", connID, "name", name)
	return id
}

// Remove 移除身分（連線關閉時呼叫）
func (r *Registry) Remove(connID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[connID]; !exists {
		return
	}
	delete(r.users, connID)
	r.logger.Info("玩家已移除", "conn_id", connID)
}

// Get 查詢身分
func (r *Registry) Get(connID int) (*Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, exists := r.users[connID]
	return id, exists
}

// Count 目前已註冊人數
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
