package internal

// BoardSize 棋盤邊長（10×10，座標 0–9）
const BoardSize = 10

// ShipKind 船艦類型
type ShipKind string

const (
	KindSmall  ShipKind = "small"  // 長度 1
	KindMedium ShipKind = "medium" // 長度 2
	KindLarge  ShipKind = "large"  // 長度 3
	KindHuge   ShipKind = "huge"   // 長度 4
)

// Position 棋盤座標
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// InBoard 座標是否在棋盤內
func (p Position) InBoard() bool {
	return p.X >= 0 && p.X < BoardSize && p.Y >= 0 && p.Y < BoardSize
}

// Ship 玩家擺放的船艦（放置後不可變）
//
// Direction 為 true 表示垂直擺放（沿 Y 軸延伸），false 表示水平（沿 X 軸延伸）。
// 注意：核心不驗證船艦合法性（越界、重疊、相鄰），這是刻意保留的寬鬆行為，
// 驗證屬於可能的擴展而非現有語義。
type Ship struct {
	Position  Position `json:"position"`
	Direction bool     `json:"direction"`
	Length    int      `json:"length"`
	Type      ShipKind `json:"type"`
}

// shipCell 船艦佔據的單一格子
type shipCell struct {
	pos Position
	hit bool
}

// shipInstance 由 Ship 推導出的內部狀態：格子序列 + 擊沉標記
//
// 格子序列由起點沿船艦軸向逐格 +1 推導，順序固定（索引 0 為起點端）。
type shipInstance struct {
	ship  Ship
	cells []shipCell
	sunk  bool
}

// buildFleet 由船艦定義推導完整艦隊狀態（所有格子未命中）
func buildFleet(ships []Ship) []*shipInstance {
	fleet := make([]*shipInstance, 0, len(ships))
	for _, s := range ships {
		inst := &shipInstance{
			ship:  s,
			cells: make([]shipCell, 0, s.Length),
		}
		for i := 0; i < s.Length; i++ {
			pos := s.Position
			if s.Direction {
				pos.Y += i
			} else {
				pos.X += i
			}
			inst.cells = append(inst.cells, shipCell{pos: pos})
		}
		fleet = append(fleet, inst)
	}
	return fleet
}

// markHit 標記指定座標為命中，回傳是否有格子匹配
func (s *shipInstance) markHit(p Position) bool {
	matched := false
	for i := range s.cells {
		if s.cells[i].pos == p {
			s.cells[i].hit = true
			matched = true
		}
	}
	return matched
}

// allHit 是否所有格子均已命中
func (s *shipInstance) allHit() bool {
	for i := range s.cells {
		if !s.cells[i].hit {
			return false
		}
	}
	return true
}

// crossShift 沿「橫跨軸」（與船身垂直的軸）位移
func (s *shipInstance) crossShift(p Position, d int) Position {
	if s.ship.Direction {
		p.X += d
	} else {
		p.Y += d
	}
	return p
}

// alongShift 沿船身軸向位移
func (s *shipInstance) alongShift(p Position, d int) Position {
	if s.ship.Direction {
		p.Y += d
	} else {
		p.X += d
	}
	return p
}
