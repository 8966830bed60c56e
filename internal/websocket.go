package internal

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// 系統設計問題：
//   如何在持久訊息通道上服務多名玩家，並支援單播與全站廣播？
//
// 核心挑戰：
//   1. 連線身分：每條連線配發一個單調遞增、不重用的 id，
//      這個 id 就是玩家在整個系統中的身分鍵
//   2. 心跳機制：檢測死連接（網絡異常、客戶端崩潰）
//   3. 並發廣播：同時向多個客戶端發送消息，慢客戶端不能拖累其他人
//
// 設計方案：
//   ✅ Hub 模式 - 集中管理所有連接（connID → Connection 單層 map）
//   ✅ Ping/Pong 心跳 - 檢測死連接（54s/60s）
//   ✅ 緩衝 channel - 異步發送（不阻塞）

// MessageHandler 入站訊息的處理端
//
// Hub 不理解協議內容，收到什麼就交給 handler；
// Dispatcher 實作這個介面。
type MessageHandler interface {
	Handle(connID int, raw []byte)
	HandleClose(connID int)
}

// Hub WebSocket 連接中心
type Hub struct {
	handler  MessageHandler
	logger   *slog.Logger
	upgrader websocket.Upgrader

	connections map[int]*Connection // connID → Connection
	nextID      int                 // 連線 id 單調遞增，不重用
	mu          sync.RWMutex
}

// Connection 單一 WebSocket 連接
type Connection struct {
	ID        int
	Conn      *websocket.Conn
	Send      chan []byte
	Hub       *Hub
	closeOnce sync.Once // 確保 channel 只關閉一次
}

// NewHub 創建 WebSocket Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// 在生產環境應該檢查來源
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[int]*Connection),
		nextID:      1,
	}
}

// SetHandler 設定入站訊息處理端（啟動前呼叫一次）
func (hub *Hub) SetHandler(h MessageHandler) {
	hub.handler = h
}

// ServeWS 處理 WebSocket 連接
func (hub *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error("升級 WebSocket 失敗", "error", err)
		return
	}

	connection := &Connection{
		Conn: conn,
		Send: make(chan []byte, 256),
		Hub:  hub,
	}
	hub.register(connection)

	go connection.writePump()
	go connection.readPump()

	hub.logger.Info("WebSocket 連接建立", "conn_id", connection.ID)
}

// register 配發連線 id 並註冊連接
func (hub *Hub) register(conn *Connection) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	conn.ID = hub.nextID
	hub.nextID++
	hub.connections[conn.ID] = conn
}

// unregister 取消註冊連接並通知處理端
func (hub *Hub) unregister(conn *Connection) {
	hub.mu.Lock()
	if actual, exists := hub.connections[conn.ID]; exists && actual == conn {
		delete(hub.connections, conn.ID)
		conn.closeOnce.Do(func() {
			close(conn.Send)
		})
	}
	hub.mu.Unlock()

	if hub.handler != nil {
		hub.handler.HandleClose(conn.ID)
	}
	hub.logger.Info("WebSocket 連接關閉", "conn_id", conn.ID)
}

// SendTo 送訊息給單一連線；連線不存在或緩衝滿時丟棄
func (hub *Hub) SendTo(connID int, message []byte) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	conn, exists := hub.connections[connID]
	if !exists {
		return
	}
	select {
	case conn.Send <- message:
	default:
		hub.logger.Warn("連接緩衝區滿", "conn_id", connID)
	}
}

// Broadcast 向所有連線廣播
func (hub *Hub) Broadcast(message []byte) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	for _, conn := range hub.connections {
		select {
		case conn.Send <- message:
		default:
			hub.logger.Warn("連接緩衝區滿", "conn_id", conn.ID)
		}
	}
}

// ConnectionCount 目前連線數
func (hub *Hub) ConnectionCount() int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.connections)
}

// Stop 停止 Hub，關閉所有連接
func (hub *Hub) Stop() {
	hub.mu.Lock()
	for _, conn := range hub.connections {
		conn.closeOnce.Do(func() {
			close(conn.Send)
		})
		conn.Conn.Close()
	}
	hub.connections = make(map[int]*Connection)
	hub.mu.Unlock()

	hub.logger.Info("WebSocket Hub 已停止")
}

// readPump 讀取客戶端消息
//
// 心跳機制（讀取端）：60 秒內沒收到任何消息（含 Pong）就關閉連接，
// 配合 writePump 的 54 秒 Ping（留 6 秒余量）。
func (c *Connection) readPump() {
	defer func() {
		c.Hub.unregister(c)
		c.Conn.Close()
	}()

	if err := c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
		c.Hub.logger.Error("設置讀取期限失敗", "error", err)
	}
	c.Conn.SetPongHandler(func(string) error {
		if err := c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
			c.Hub.logger.Error("設置讀取期限失敗", "error", err)
		}
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Error("WebSocket 讀取錯誤", "error", err, "conn_id", c.ID)
			}
			break
		}

		if messageType == websocket.TextMessage && c.Hub.handler != nil {
			c.Hub.handler.Handle(c.ID, message)
		}
	}
}

// writePump 寫入消息到客戶端
//
// 心跳機制（發送端）：54 秒 Ping，避開常見的 60 秒代理超時。
// 業務訊息經由緩衝 channel 異步發送，不阻塞分派層。
func (c *Connection) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
				c.Hub.logger.Error("設置寫入期限失敗", "error", err)
			}
			if !ok {
				// Hub 關閉了通道，優雅關閉連接
				deadline := time.Now().Add(time.Second)
				if err := c.Conn.SetWriteDeadline(deadline); err == nil {
					_ = c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				}
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// 批量發送隊列中的消息
			n := len(c.Send)
			for i := 0; i < n; i++ {
				if err := c.Conn.WriteMessage(websocket.TextMessage, <-c.Send); err != nil {
					c.Hub.logger.Error("發送消息失敗", "error", err)
					return
				}
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
				c.Hub.logger.Error("設置寫入期限失敗", "error", err)
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
