package internal

import (
	"log/slog"
	"sync"
)

// Room 等待中或進行中的房間
//
// 不變量：
//   - 成員數永遠是 1 或 2
//   - 只有在 Game 尚未建立時才列為「可加入」
//   - 成員為 2 時必然已有 Game（加入即開局，這是唯一的對局建立路徑）
type Room struct {
	ID      int
	Members []*Identity
	Game    *Game
}

// Manager 配對儲存：追蹤開放與進行中的房間
//
// 系統設計考量：
//
//  1. 狀態以記憶體 map 保存（roomID → Room），讀寫鎖保護。
//     不涉及外部持久化：房間生命週期短（一局棋），重啟即重來。
//
//  2. 房間 id 單調遞增、永不重用：移除房間後計數器不回退，
//     避免晚到的請求命中新房間。
//
//  3. order 另外維護插入順序：map 迭代順序不定，
//     而開放房間列表需要穩定的插入序。
type Manager struct {
	mu     sync.RWMutex
	rooms  map[int]*Room
	order  []int // 房間 id 依建立順序
	nextID int
	logger *slog.Logger
}

// NewManager 建立配對儲存
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		rooms:  make(map[int]*Room),
		nextID: 1,
		logger: logger,
	}
}

// CreateRoom 建立新房間，identity 為唯一成員
//
// identity 為 nil 時為 no-op（回傳 0）。回傳新房間 id。
func (m *Manager) CreateRoom(identity *Identity) int {
	if identity == nil {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	roomID := m.nextID
	m.nextID++

	m.rooms[roomID] = &Room{
		ID:      roomID,
		Members: []*Identity{identity},
	}
	m.order = append(m.order, roomID)

	m.logger.Info("房間已建立", "room_id", roomID, "player", identity.Name)
	return roomID
}

// ListOpenRooms 所有尚未開局的房間，依建立順序
func (m *Manager) ListOpenRooms() []*Room {
	m.mu.RLock()
	defer m.mu.RUnlock()

	open := make([]*Room, 0, len(m.order))
	for _, id := range m.order {
		room, exists := m.rooms[id]
		if !exists || room.Game != nil {
			continue
		}
		open = append(open, room)
	}
	return open
}

// Join 將 identity 加入房間並開局
//
// 回傳 nil 的情況：房間不存在、已有對局、identity 是房間的
// 原有成員（不能加入自己的房間）。成功時建立 Game 並存回房間，
// 這是建立對局的唯一路徑：對局 id 即房間 id，先手為原有成員。
func (m *Manager) Join(roomID int, identity *Identity) *Game {
	if identity == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	room, exists := m.rooms[roomID]
	if !exists || room.Game != nil {
		return nil
	}
	if room.Members[0].ID == identity.ID {
		return nil
	}

	room.Members = append(room.Members, identity)
	room.Game = NewGame(roomID, room.Members[0].ID, room.Members[1].ID)

	m.logger.Info("對局已建立",
		"room_id", roomID,
		"first", room.Members[0].Name,
		"second", identity.Name)

	return room.Game
}

// GetSession 以對局 id 查詢對局（對局 id 即房間 id）
func (m *Manager) GetSession(sessionID int) *Game {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, exists := m.rooms[sessionID]
	if !exists {
		return nil
	}
	return room.Game
}

// RemoveRoom 整個移除房間（連同其對局）
//
// 在對局分出勝負時呼叫恰好一次。
func (m *Manager) RemoveRoom(roomID int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.rooms[roomID]; !exists {
		return
	}
	delete(m.rooms, roomID)
	for i, id := range m.order {
		if id == roomID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.logger.Info("房間已移除", "room_id", roomID)
}

// Count 目前房間總數（含進行中）
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
