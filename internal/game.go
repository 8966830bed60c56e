package internal

import (
	"math/rand"
	"sync"
)

// 系統設計問題：
//   雙人回合制海戰如何在單一結構內管理棋盤狀態、回合歸屬與攻擊判定？
//
// 核心挑戰：
//   1. 攻擊判定：命中 / 未中 / 擊沉三態分類，加上擊沉後的周邊自動揭示
//   2. 回合規則：只有純粹未中才換手，命中（含擊沉）保留攻擊權
//   3. 重複射擊：對已判定過的格子再攻擊必須是無聲的 no-op
//   4. 並發控制：同一場對局的所有變更必須序列化（兩名玩家可能同時送出請求）
//
// 設計方案：
//   ✅ 有限狀態機 - forming → placing → active → finished，不可逆
//   ✅ 每場對局一把互斥鎖 - 所有變更原子化，不同對局完全獨立
//   ✅ 已判定格子集合（resolved set）- 重複射擊去重 + 周邊揭示記帳共用
//   ✅ 隨機攻擊有界重試 + 剩餘格掃描 - 棋盤耗盡時保證終止

// GamePhase 對局階段
//
// 有限狀態機設計：
//
//	forming → placing → active → finished
//
// 狀態轉換規則：
//   - forming → placing：任一玩家首次提交艦隊
//   - placing → active：雙方艦隊都已就緒，由 Start 觸發
//   - active → finished：一方艦隊全滅
//
// 沒有任何轉換會回到先前狀態。
type GamePhase string

const (
	PhaseForming  GamePhase = "forming"  // 對局剛建立，尚無艦隊
	PhasePlacing  GamePhase = "placing"  // 等待雙方擺放艦隊
	PhaseActive   GamePhase = "active"   // 輪流攻擊中
	PhaseFinished GamePhase = "finished" // 勝負已分
)

// ShotStatus 單發攻擊的判定結果
type ShotStatus string

const (
	StatusMiss   ShotStatus = "miss"   // 未中
	StatusShot   ShotStatus = "shot"   // 命中但未擊沉
	StatusKilled ShotStatus = "killed" // 擊沉
)

// ShotFeedback 單一格子的判定回饋
type ShotFeedback struct {
	Position Position
	Status   ShotStatus
}

// AttackOutcome 一次攻擊的完整結果
//
// SideEffects 僅在擊沉時非空：被擊沉船艦周邊的自動揭示（miss）
// 以及船身格的重發（killed）。Winner 為 0 表示尚未分出勝負。
type AttackOutcome struct {
	Attacker    int
	Primary     ShotFeedback
	SideEffects []ShotFeedback
	NextTurn    int
	Winner      int
}

// playerState 對局內單一玩家的狀態
type playerState struct {
	identity int
	fleet    []*shipInstance

	// resolved 記錄「此玩家棋盤上」已判定過的格子，
	// 無論是對手直接射擊還是擊沉揭示的副作用格。
	// 用途：重複射擊去重、隨機攻擊的取樣排除。
	resolved map[Position]bool
}

// Game 一場雙人對局
//
// 系統設計考量：
//
//  1. 並發控制（Mutex）：
//     每次攻擊對另一方而言必須是原子的：回合、艦隊、已判定集合的
//     所有變更都在同一把鎖下進行。不同對局各有各的鎖，完全平行。
//
//  2. 為什麼用 Mutex 而非 RWMutex？
//     對局操作幾乎全是寫入（攻擊、擺艦都改狀態），讀寫鎖沒有優勢。
//
//  3. 回合歸屬以 identity id 表示，而非玩家索引：
//     呼叫端（分派層）用 identity 做回合閘門，引擎本身不重複檢查
//     回合歸屬，這是與呼叫端的明確分工。
type Game struct {
	id      int
	players [2]*playerState
	turn    int // 下一個允許攻擊的 identity id
	phase   GamePhase
	mu      sync.Mutex
}

// NewGame 建立對局，先手為第一位玩家
func NewGame(id int, first, second int) *Game {
	return &Game{
		id: id,
		players: [2]*playerState{
			{identity: first, resolved: make(map[Position]bool)},
			{identity: second, resolved: make(map[Position]bool)},
		},
		turn:  first,
		phase: PhaseForming,
	}
}

// ID 對局識別碼（與房間識別碼相同）
func (g *Game) ID() int {
	return g.id
}

// PlayerIDs 兩名玩家的 identity id，依加入順序
func (g *Game) PlayerIDs() [2]int {
	return [2]int{g.players[0].identity, g.players[1].identity}
}

// Turn 目前持有攻擊權的 identity id
func (g *Game) Turn() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.turn
}

// Phase 目前對局階段
func (g *Game) Phase() GamePhase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// PlaceFleet 以推導出的艦隊狀態取代玩家現有艦隊
//
// identity 不屬於本對局時為 no-op。不做合法性檢查（重疊、越界、
// 艦隊組成），這是刻意保留的寬鬆行為。
func (g *Game) PlaceFleet(identity int, ships []Ship) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.playerByIdentity(identity)
	if p == nil {
		return
	}
	p.fleet = buildFleet(ships)

	if g.phase == PhaseForming {
		g.phase = PhasePlacing
	}
}

// Ready 雙方是否都已有非空艦隊
//
// 這是開局的唯一條件：沒有額外的「全部擺放完畢」確認，
// 一次擺放提交即視為就緒。
func (g *Game) Ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, p := range g.players {
		if len(p.fleet) == 0 {
			return false
		}
	}
	return true
}

// Start 進入攻擊階段（僅在 placing 且雙方就緒時生效）
func (g *Game) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhasePlacing {
		return
	}
	for _, p := range g.players {
		if len(p.fleet) == 0 {
			return
		}
	}
	g.phase = PhaseActive
}

// StartView 開局通知的內容：玩家自己的艦隊摘要 + 先手 id
//
// 只含形狀 / 位置 / 方向，格子與命中狀態永遠不對外暴露
// （對本人的開局畫面也不給，對手更不給）。
type StartView struct {
	Ships       []Ship
	CurrentTurn int
}

// BeginView 取得指定玩家的開局視圖；identity 不在對局中時回傳 false
func (g *Game) BeginView(identity int) (StartView, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.playerByIdentity(identity)
	if p == nil {
		return StartView{}, false
	}

	ships := make([]Ship, 0, len(p.fleet))
	for _, inst := range p.fleet {
		ships = append(ships, inst.ship)
	}
	return StartView{Ships: ships, CurrentTurn: g.turn}, true
}

// Attack 對防守方棋盤上的 target 進行判定
//
// 演算法步驟：
//  1. 防守方 = 對局中不是攻擊者的那名玩家
//  2. 去重：target 已在防守方的已判定集合中 → 無聲 no-op，回傳 nil，
//     呼叫端不得廣播任何內容
//  3. 對防守方每艘船標記命中；追蹤是否命中、是否有船「剛好」被擊沉
//  4. 勝利判定：防守方所有船都沉 → 攻擊者獲勝
//  5. 回合規則：純粹未中才換手；任何命中（含擊沉）攻擊者續攻
//  6. 主射擊分類：killed > shot > miss
//  7. 擊沉時產生周邊揭示（見 sunkReveal），所有揭示座標一併記入
//     防守方的已判定集合
//
// 回傳 nil 的情況：對局不在 active 階段、攻擊者不在對局中、重複射擊。
func (g *Game) Attack(attacker int, target Position) *AttackOutcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attackLocked(attacker, target)
}

// attackLocked 實際判定邏輯，呼叫方必須已持有 g.mu
func (g *Game) attackLocked(attacker int, target Position) *AttackOutcome {
	if g.phase != PhaseActive {
		return nil
	}

	defender := g.opponentOf(attacker)
	if defender == nil {
		return nil
	}

	// 重複射擊去重
	if defender.resolved[target] {
		return nil
	}
	defender.resolved[target] = true

	hit := false
	var justSunk *shipInstance
	for _, inst := range defender.fleet {
		wasSunk := inst.sunk
		if inst.markHit(target) {
			hit = true
		}
		inst.sunk = inst.allHit()
		if !wasSunk && inst.sunk {
			justSunk = inst
		}
	}

	won := true
	for _, inst := range defender.fleet {
		if !inst.sunk {
			won = false
			break
		}
	}

	// 回合規則：純粹未中才換手
	if !hit && justSunk == nil {
		g.turn = defender.identity
	}

	status := StatusMiss
	switch {
	case justSunk != nil:
		status = StatusKilled
	case hit:
		status = StatusShot
	}

	outcome := &AttackOutcome{
		Attacker: attacker,
		Primary:  ShotFeedback{Position: target, Status: status},
	}

	if justSunk != nil {
		outcome.SideEffects = sunkReveal(justSunk)
		for _, fb := range outcome.SideEffects {
			defender.resolved[fb.Position] = true
		}
	}

	if won {
		g.phase = PhaseFinished
		outcome.Winner = attacker
	}
	outcome.NextTurn = g.turn
	return outcome
}

// sunkReveal 擊沉後的周邊揭示
//
// 船艦不可相鄰，所以被擊沉船艦周圍一圈保證沒有其他船，
// 這些格子直接以 miss 揭示，省去攻擊方逐格射擊：
//
//   - 船身每一格貢獻橫跨軸上的三格（coord-1, coord, coord+1）
//   - 首格額外貢獻船頭前一步的整排三格，尾格貢獻船尾後一步的整排三格，
//     形成完整包覆船身（含兩端）的封閉矩形帶
//   - 船身每一格另外貢獻沿軸向前後各一格，與上面產生的座標重複，
//     重複項刻意保留不去除，由消費端自行決定是否去重
//   - 船身格本身以 killed 重發一次
//
// 超出棋盤的座標在發出與記帳前丟棄。發出順序：先所有 miss 揭示，
// 再重發 killed，讓 killed 在客戶端覆蓋船身格。
func sunkReveal(inst *shipInstance) []ShotFeedback {
	reveals := make([]ShotFeedback, 0, len(inst.cells)*6+10)

	appendMiss := func(p Position) {
		if !p.InBoard() {
			return
		}
		reveals = append(reveals, ShotFeedback{Position: p, Status: StatusMiss})
	}

	last := len(inst.cells) - 1
	for i, c := range inst.cells {
		// 橫跨軸三格
		for d := -1; d <= 1; d++ {
			appendMiss(inst.crossShift(c.pos, d))
		}
		// 船頭前一排 / 船尾後一排
		if i == 0 {
			for d := -1; d <= 1; d++ {
				appendMiss(inst.alongShift(inst.crossShift(c.pos, d), -1))
			}
		}
		if i == last {
			for d := -1; d <= 1; d++ {
				appendMiss(inst.alongShift(inst.crossShift(c.pos, d), 1))
			}
		}
		// 沿軸相鄰兩格（冗餘項）
		appendMiss(inst.alongShift(c.pos, -1))
		appendMiss(inst.alongShift(c.pos, 1))
	}

	// 船身格重發 killed
	for _, c := range inst.cells {
		reveals = append(reveals, ShotFeedback{Position: c.pos, Status: StatusKilled})
	}
	return reveals
}

// 隨機攻擊最多取樣次數，超過後改為掃描剩餘格子。
// 無上限取樣在棋盤將盡時退化、耗盡時不終止，
// 有界重試加確定性掃描保證終止。
const randomAttackMaxTries = 128

// RandomAttack 隨機挑一個防守方棋盤上尚未判定的格子進行攻擊
//
// 先均勻取樣至多 randomAttackMaxTries 次，取樣都落在已判定格時
// 退回逐格掃描。棋盤已全部判定（理論上不會發生，勝負早已分出）
// 則回傳 nil。
func (g *Game) RandomAttack(attacker int) *AttackOutcome {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseActive {
		return nil
	}
	defender := g.opponentOf(attacker)
	if defender == nil {
		return nil
	}

	for i := 0; i < randomAttackMaxTries; i++ {
		p := Position{X: rand.Intn(BoardSize), Y: rand.Intn(BoardSize)}
		if !defender.resolved[p] {
			return g.attackLocked(attacker, p)
		}
	}

	// 取樣失敗，掃描剩餘格子
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			p := Position{X: x, Y: y}
			if !defender.resolved[p] {
				return g.attackLocked(attacker, p)
			}
		}
	}
	return nil
}

// playerByIdentity 以 identity 找玩家，不在對局中回傳 nil
func (g *Game) playerByIdentity(identity int) *playerState {
	for _, p := range g.players {
		if p.identity == identity {
			return p
		}
	}
	return nil
}

// opponentOf 以 identity 找對手，identity 不在對局中回傳 nil
func (g *Game) opponentOf(identity int) *playerState {
	if g.playerByIdentity(identity) == nil {
		return nil
	}
	for _, p := range g.players {
		if p.identity != identity {
			return p
		}
	}
	return nil
}
