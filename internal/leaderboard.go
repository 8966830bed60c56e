package internal

import (
	"log/slog"
	"sync"
)

// WinnerEntry 排行榜上的一筆紀錄
type WinnerEntry struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

// Leaderboard 勝場計數器
//
// 以 identity id 為鍵的記憶體計數，穩定的建立順序即回傳順序，
// 除此之外不保證任何排序。名稱在記錄當下從註冊表查出並快照，
// 之後玩家斷線也不影響榜上名稱。
type Leaderboard struct {
	mu       sync.RWMutex
	registry *Registry
	entries  []*WinnerEntry
	index    map[int]*WinnerEntry // identity id → entry
	logger   *slog.Logger
}

// NewLeaderboard 建立排行榜
func NewLeaderboard(registry *Registry, logger *slog.Logger) *Leaderboard {
	return &Leaderboard{
		registry: registry,
		index:    make(map[int]*WinnerEntry),
		logger:   logger,
	}
}

// RecordWin 為指定玩家加一勝，回傳完整榜單
//
// identity 未知（例如已斷線）時無聲失敗，回傳 nil，
// 呼叫端據此略過廣播。
func (l *Leaderboard) RecordWin(playerID int) []WinnerEntry {
	identity, exists := l.registry.Get(playerID)
	if !exists {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, known := l.index[playerID]
	if known {
		entry.Wins++
	} else {
		entry = &WinnerEntry{Name: identity.Name, Wins: 1}
		l.index[playerID] = entry
		l.entries = append(l.entries, entry)
	}

	l.logger.Info("勝場已記錄", "player", identity.Name, "wins", entry.Wins)
	return l.snapshotLocked()
}

// Snapshot 目前榜單
func (l *Leaderboard) Snapshot() []WinnerEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

func (l *Leaderboard) snapshotLocked() []WinnerEntry {
	out := make([]WinnerEntry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, *e)
	}
	return out
}
