package internal_test

import (
	"log/slog"
	"os"
	"testing"

	"github.com/koopa0/battleship-server/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 創建測試用的 logger
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // 測試時只顯示錯誤
	}))
}

func testIdentity(id int, name string) *internal.Identity {
	return &internal.Identity{ID: id, Name: name}
}

// TestManager_CreateRoom 測試建立房間
func TestManager_CreateRoom(t *testing.T) {
	manager := internal.NewManager(testLogger())

	// nil identity 是 no-op
	assert.Equal(t, 0, manager.CreateRoom(nil))
	assert.Equal(t, 0, manager.Count())

	roomID := manager.CreateRoom(testIdentity(1, "Alice"))
	assert.Equal(t, 1, roomID)
	assert.Equal(t, 1, manager.Count())

	open := manager.ListOpenRooms()
	require.Len(t, open, 1)
	assert.Equal(t, 1, open[0].ID)
	require.Len(t, open[0].Members, 1)
	assert.Equal(t, "Alice", open[0].Members[0].Name)
	assert.Nil(t, open[0].Game)
}

// TestManager_ListOpenRooms 測試開放房間列表的穩定插入序
func TestManager_ListOpenRooms(t *testing.T) {
	manager := internal.NewManager(testLogger())

	manager.CreateRoom(testIdentity(1, "Alice"))
	manager.CreateRoom(testIdentity(2, "Bob"))
	manager.CreateRoom(testIdentity(3, "Carol"))

	open := manager.ListOpenRooms()
	require.Len(t, open, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{open[0].ID, open[1].ID, open[2].ID})

	// 開局後的房間不再列出
	game := manager.Join(2, testIdentity(4, "Dave"))
	require.NotNil(t, game)

	open = manager.ListOpenRooms()
	require.Len(t, open, 2)
	assert.Equal(t, []int{1, 3}, []int{open[0].ID, open[1].ID})
}

// TestManager_Join 測試加入房間的各種失敗情況
func TestManager_Join(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(m *internal.Manager) int // 回傳要加入的房間 id
		joiner  *internal.Identity
		success bool
	}{
		{
			name: "join open room",
			setup: func(m *internal.Manager) int {
				return m.CreateRoom(testIdentity(1, "Alice"))
			},
			joiner:  testIdentity(2, "Bob"),
			success: true,
		},
		{
			name: "room does not exist",
			setup: func(m *internal.Manager) int {
				return 42
			},
			joiner:  testIdentity(2, "Bob"),
			success: false,
		},
		{
			name: "cannot join own room",
			setup: func(m *internal.Manager) int {
				return m.CreateRoom(testIdentity(1, "Alice"))
			},
			joiner:  testIdentity(1, "Alice"),
			success: false,
		},
		{
			name: "room already has a session",
			setup: func(m *internal.Manager) int {
				id := m.CreateRoom(testIdentity(1, "Alice"))
				require.NotNil(t, m.Join(id, testIdentity(2, "Bob")))
				return id
			},
			joiner:  testIdentity(3, "Carol"),
			success: false,
		},
		{
			name: "nil identity",
			setup: func(m *internal.Manager) int {
				return m.CreateRoom(testIdentity(1, "Alice"))
			},
			joiner:  nil,
			success: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := internal.NewManager(testLogger())
			roomID := tt.setup(manager)

			game := manager.Join(roomID, tt.joiner)
			if !tt.success {
				assert.Nil(t, game)
				return
			}

			require.NotNil(t, game)
			assert.Equal(t, roomID, game.ID())
			// 先手是原有成員
			assert.Equal(t, 1, game.Turn())
			assert.Equal(t, [2]int{1, tt.joiner.ID}, game.PlayerIDs())
			// 這也是 GetSession 查得到的同一個對局
			assert.Same(t, game, manager.GetSession(roomID))
		})
	}
}

// TestManager_GetSession 測試對局查詢
func TestManager_GetSession(t *testing.T) {
	manager := internal.NewManager(testLogger())

	// 不存在的對局
	assert.Nil(t, manager.GetSession(7))

	// 房間存在但尚未開局
	roomID := manager.CreateRoom(testIdentity(1, "Alice"))
	assert.Nil(t, manager.GetSession(roomID))

	game := manager.Join(roomID, testIdentity(2, "Bob"))
	assert.Same(t, game, manager.GetSession(roomID))
}

// TestManager_RemoveRoom 測試房間移除與 id 不重用
func TestManager_RemoveRoom(t *testing.T) {
	manager := internal.NewManager(testLogger())

	first := manager.CreateRoom(testIdentity(1, "Alice"))
	second := manager.CreateRoom(testIdentity(2, "Bob"))
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)

	manager.Join(second, testIdentity(3, "Carol"))
	manager.RemoveRoom(second)

	assert.Nil(t, manager.GetSession(second))
	assert.Equal(t, 1, manager.Count())

	// 移除不存在的房間是 no-op
	manager.RemoveRoom(99)

	// id 單調遞增，永不重用
	third := manager.CreateRoom(testIdentity(4, "Dave"))
	assert.Equal(t, 3, third)
}
