package internal

import (
	"encoding/json"
	"fmt"
)

// 線上協議：WebSocket 上的 JSON 信封
//
//	{"type": "...", "data": "<JSON 字串>", "id": 0}
//
// data 是「再編碼一次」的 JSON 字串（雙重編碼），這是既有客戶端
// 依賴的格式，原樣保留。每種操作對應一個封閉的請求 / 回應結構，
// 分派層永遠不會拿到未定形的 payload。

// MessageType 訊息類型
type MessageType string

const (
	// 客戶端 → 伺服器
	MsgReg           MessageType = "reg"
	MsgCreateRoom    MessageType = "create_room"
	MsgAddUserToRoom MessageType = "add_user_to_room"
	MsgAddShips      MessageType = "add_ships"
	MsgAttack        MessageType = "attack"
	MsgRandomAttack  MessageType = "randomAttack"

	// 伺服器 → 客戶端
	MsgUpdateRoom    MessageType = "update_room"
	MsgCreateGame    MessageType = "create_game"
	MsgStartGame     MessageType = "start_game"
	MsgTurn          MessageType = "turn"
	MsgFinish        MessageType = "finish"
	MsgUpdateWinners MessageType = "update_winners"
)

// envelope 線上信封
type envelope struct {
	Type MessageType `json:"type"`
	Data string      `json:"data"`
	ID   int         `json:"id"`
}

// DecodeMessage 拆開信封，回傳訊息類型與內層 payload 位元組
//
// data 為空字串時回傳空 payload（create_room 等無參數訊息）。
func DecodeMessage(raw []byte) (MessageType, []byte, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, fmt.Errorf("解析信封失敗: %w", err)
	}
	if env.Data == "" {
		return env.Type, nil, nil
	}
	return env.Type, []byte(env.Data), nil
}

// EncodeMessage 打包信封（payload 雙重編碼）
func EncodeMessage(t MessageType, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("編碼 payload 失敗: %w", err)
	}
	raw, err := json.Marshal(envelope{Type: t, Data: string(data), ID: 0})
	if err != nil {
		return nil, fmt.Errorf("編碼信封失敗: %w", err)
	}
	return raw, nil
}

/* 請求 payload */

type regRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type addUserToRoomRequest struct {
	IndexRoom int `json:"indexRoom"`
}

type addShipsRequest struct {
	GameID      int    `json:"gameId"`
	Ships       []Ship `json:"ships"`
	IndexPlayer int    `json:"indexPlayer"`
}

type attackRequest struct {
	GameID      int `json:"gameId"`
	X           int `json:"x"`
	Y           int `json:"y"`
	IndexPlayer int `json:"indexPlayer"`
}

type randomAttackRequest struct {
	GameID      int `json:"gameId"`
	IndexPlayer int `json:"indexPlayer"`
}

/* 回應 payload */

type regResponse struct {
	Name      string `json:"name"`
	Index     int    `json:"index"`
	Error     bool   `json:"error"`
	ErrorText string `json:"errorText"`
}

// RoomUser 房間成員摘要（update_room 用）
type RoomUser struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// RoomSummary 開放房間摘要（update_room 用）
type RoomSummary struct {
	RoomID    int        `json:"roomId"`
	RoomUsers []RoomUser `json:"roomUsers"`
}

type createGameResponse struct {
	IDGame   int `json:"idGame"`
	IDPlayer int `json:"idPlayer"`
}

type startGameResponse struct {
	Ships              []Ship `json:"ships"`
	CurrentPlayerIndex int    `json:"currentPlayerIndex"`
}

type turnResponse struct {
	CurrentPlayer int `json:"currentPlayer"`
}

type attackResponse struct {
	Position      Position   `json:"position"`
	CurrentPlayer int        `json:"currentPlayer"`
	Status        ShotStatus `json:"status"`
}

type finishResponse struct {
	WinPlayer int `json:"winPlayer"`
}
