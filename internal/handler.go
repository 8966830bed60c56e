package internal

import (
	"encoding/json"
	"log/slog"
)

// Sender 傳輸層出口
//
// 分派層只透過這個介面對外送訊息，測試可以用記憶體實作
// 取代 WebSocket Hub。
type Sender interface {
	// SendTo 送給單一連線；連線不存在時靜默丟棄
	SendTo(connID int, message []byte)
	// Broadcast 送給所有連線
	Broadcast(message []byte)
}

// Dispatcher 訊息分派層
//
// 把解碼後的請求導向對應的核心操作，並依協議廣播結果。
//
// 錯誤處理原則：
//   - NotFound（房間 / 對局 / 身分不存在）：靜默丟棄該請求
//   - InvalidTurn（非持回合者攻擊）：在這裡閘掉，引擎本身不重查
//   - DuplicateShot：引擎回傳 nil，這裡不廣播任何內容
//   - 格式錯誤：記 debug 日誌後丟棄
//
// 任何一筆壞請求都只影響自己，不會讓程序出錯。
type Dispatcher struct {
	registry    *Registry
	rooms       *Manager
	leaderboard *Leaderboard
	sender      Sender
	logger      *slog.Logger
}

// NewDispatcher 建立分派層
func NewDispatcher(registry *Registry, rooms *Manager, leaderboard *Leaderboard, sender Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry:    registry,
		rooms:       rooms,
		leaderboard: leaderboard,
		sender:      sender,
		logger:      logger,
	}
}

// Handle 處理一筆來自指定連線的原始訊息
func (d *Dispatcher) Handle(connID int, raw []byte) {
	msgType, payload, err := DecodeMessage(raw)
	if err != nil {
		d.logger.Debug("丟棄無法解析的訊息", "conn_id", connID, "error", err)
		return
	}

	switch msgType {
	case MsgReg:
		d.handleReg(connID, payload)
	case MsgCreateRoom:
		d.handleCreateRoom(connID)
	case MsgAddUserToRoom:
		d.handleJoin(connID, payload)
	case MsgAddShips:
		d.handleAddShips(payload)
	case MsgAttack:
		d.handleAttack(payload)
	case MsgRandomAttack:
		d.handleRandomAttack(payload)
	default:
		d.logger.Debug("收到未知訊息類型", "type", msgType, "conn_id", connID)
	}
}

// HandleClose 連線關閉：移除身分
func (d *Dispatcher) HandleClose(connID int) {
	d.registry.Remove(connID)
}

// handleReg 註冊：建立身分，回覆註冊結果與目前房間列表
//
// 密碼在線上格式中存在但這裡不驗證，憑證檢查屬外部協作者。
func (d *Dispatcher) handleReg(connID int, payload []byte) {
	var req regRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		d.logger.Debug("reg payload 無效", "conn_id", connID, "error", err)
		return
	}

	identity := d.registry.Register(connID, req.Name)

	d.sendTo(connID, MsgReg, regResponse{Name: identity.Name, Index: identity.ID})
	d.sendTo(connID, MsgUpdateRoom, d.openRoomSummaries())
}

// handleCreateRoom 建立房間並向所有人廣播房間列表
func (d *Dispatcher) handleCreateRoom(connID int) {
	identity, exists := d.registry.Get(connID)
	if !exists {
		return
	}

	d.rooms.CreateRoom(identity)
	d.broadcastRooms()
}

// handleJoin 加入房間：成功即開局，雙方都收到 create_game
func (d *Dispatcher) handleJoin(connID int, payload []byte) {
	var req addUserToRoomRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		d.logger.Debug("add_user_to_room payload 無效", "conn_id", connID, "error", err)
		return
	}

	identity, exists := d.registry.Get(connID)
	if !exists {
		return
	}

	game := d.rooms.Join(req.IndexRoom, identity)
	if game == nil {
		return
	}

	for _, playerID := range game.PlayerIDs() {
		d.sendTo(playerID, MsgCreateGame, createGameResponse{
			IDGame:   game.ID(),
			IDPlayer: playerID,
		})
	}
	d.broadcastRooms()
}

// handleAddShips 擺放艦隊；雙方就緒即開局，各自收到自己的艦隊與先手
func (d *Dispatcher) handleAddShips(payload []byte) {
	var req addShipsRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		d.logger.Debug("add_ships payload 無效", "error", err)
		return
	}

	game := d.rooms.GetSession(req.GameID)
	if game == nil {
		return
	}

	game.PlaceFleet(req.IndexPlayer, req.Ships)
	if !game.Ready() {
		return
	}
	game.Start()

	for _, playerID := range game.PlayerIDs() {
		view, ok := game.BeginView(playerID)
		if !ok {
			continue
		}
		d.sendTo(playerID, MsgStartGame, startGameResponse{
			Ships:              view.Ships,
			CurrentPlayerIndex: playerID,
		})
		d.sendTo(playerID, MsgTurn, turnResponse{CurrentPlayer: view.CurrentTurn})
	}
}

// handleAttack 指定座標攻擊
func (d *Dispatcher) handleAttack(payload []byte) {
	var req attackRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		d.logger.Debug("attack payload 無效", "error", err)
		return
	}
	d.resolveAttack(req.GameID, req.IndexPlayer, func(g *Game) *AttackOutcome {
		return g.Attack(req.IndexPlayer, Position{X: req.X, Y: req.Y})
	})
}

// handleRandomAttack 隨機攻擊
func (d *Dispatcher) handleRandomAttack(payload []byte) {
	var req randomAttackRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		d.logger.Debug("randomAttack payload 無效", "error", err)
		return
	}
	d.resolveAttack(req.GameID, req.IndexPlayer, func(g *Game) *AttackOutcome {
		return g.RandomAttack(req.IndexPlayer)
	})
}

// resolveAttack 攻擊的共同流程：回合閘門 → 引擎判定 → 廣播結果
func (d *Dispatcher) resolveAttack(gameID, attacker int, fire func(*Game) *AttackOutcome) {
	game := d.rooms.GetSession(gameID)
	if game == nil {
		return
	}

	// 回合閘門：非持回合者的攻擊靜默忽略
	if game.Turn() != attacker {
		return
	}

	outcome := fire(game)
	if outcome == nil {
		// 重複射擊或對局已結束：什麼都不廣播
		return
	}

	players := game.PlayerIDs()
	for _, playerID := range players {
		d.sendTo(playerID, MsgAttack, attackResponse{
			Position:      outcome.Primary.Position,
			CurrentPlayer: outcome.Attacker,
			Status:        outcome.Primary.Status,
		})
		for _, fb := range outcome.SideEffects {
			d.sendTo(playerID, MsgAttack, attackResponse{
				Position:      fb.Position,
				CurrentPlayer: outcome.Attacker,
				Status:        fb.Status,
			})
		}
	}

	if outcome.Winner == 0 {
		for _, playerID := range players {
			d.sendTo(playerID, MsgTurn, turnResponse{CurrentPlayer: outcome.NextTurn})
		}
		return
	}

	// 分出勝負：通知雙方、拆掉房間、廣播排行榜
	for _, playerID := range players {
		d.sendTo(playerID, MsgFinish, finishResponse{WinPlayer: outcome.Winner})
	}
	d.rooms.RemoveRoom(gameID)

	if winners := d.leaderboard.RecordWin(outcome.Winner); winners != nil {
		d.broadcast(MsgUpdateWinners, winners)
	}
}

// openRoomSummaries 開放房間的線上摘要
func (d *Dispatcher) openRoomSummaries() []RoomSummary {
	open := d.rooms.ListOpenRooms()
	summaries := make([]RoomSummary, 0, len(open))
	for _, room := range open {
		users := make([]RoomUser, 0, len(room.Members))
		for _, member := range room.Members {
			users = append(users, RoomUser{Name: member.Name, Index: member.ID})
		}
		summaries = append(summaries, RoomSummary{RoomID: room.ID, RoomUsers: users})
	}
	return summaries
}

// broadcastRooms 向所有連線廣播開放房間列表
func (d *Dispatcher) broadcastRooms() {
	d.broadcast(MsgUpdateRoom, d.openRoomSummaries())
}

func (d *Dispatcher) sendTo(connID int, t MessageType, payload any) {
	raw, err := EncodeMessage(t, payload)
	if err != nil {
		d.logger.Error("編碼訊息失敗", "type", t, "error", err)
		return
	}
	d.sender.SendTo(connID, raw)
}

func (d *Dispatcher) broadcast(t MessageType, payload any) {
	raw, err := EncodeMessage(t, payload)
	if err != nil {
		d.logger.Error("編碼廣播訊息失敗", "type", t, "error", err)
		return
	}
	d.sender.Broadcast(raw)
}
