// Package battleship 提供了一個雙人回合制海戰棋的對局服務器。
//
// 實現了一個透過持久 WebSocket 通道服務的完整對局引擎，包含以下核心功能：
//
// 對局引擎
//
// 每場對局的完整狀態機：
//   - 艦隊擺放與格子推導
//   - 攻擊判定（miss / shot / killed 三態分類）
//   - 擊沉後周邊自動揭示
//   - 重複射擊去重
//   - 回合規則（純粹未中才換手）與勝負判定
//
// 配對系統
//
// 房間生命週期管理：
//   - 建立房間、列出可加入房間（穩定插入序）
//   - 加入即開局（唯一的對局建立路徑）
//   - 勝負分出後整個移除
//
// # WebSocket 通訊
//
// 實現了即時雙向通訊機制：
//   - 既有客戶端依賴的雙重編碼 JSON 信封
//   - 支援心跳檢測（Ping/Pong）
//   - 訊息廣播與單播
//   - 連線 id 單調配發，即玩家身分鍵
//
// 併發安全設計
//
// 採用了多層次的併發控制策略：
//   - 每場對局一把互斥鎖，所有對局變更原子化
//   - 不同對局完全獨立，可全速平行
//   - 配對儲存、身分註冊表、排行榜各自以讀寫鎖保護
//
// 使用範例
//
// 啟動服務器：
//
//	registry := internal.NewRegistry(logger)
//	rooms := internal.NewManager(logger)
//	leaderboard := internal.NewLeaderboard(registry, logger)
//	hub := internal.NewHub(logger)
//	dispatcher := internal.NewDispatcher(registry, rooms, leaderboard, hub, logger)
//	hub.SetHandler(dispatcher)
//
//	http.HandleFunc("/ws", hub.ServeWS)
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// 架構設計
//
// 系統採用分層架構設計：
//   - Hub 層：WebSocket 連線管理與訊息收發
//   - Dispatcher 層：協議解碼、回合閘門、結果廣播
//   - Manager 層：房間與配對邏輯
//   - Game 層：封裝單場對局的棋盤與攻擊判定
//
// 每層都有明確的職責邊界，透過介面進行交互，便於測試與擴展。
//
// 錯誤處理
//
// 核心採用靜默降級原則：不存在的房間 / 對局 / 身分、非持回合者的
// 攻擊、重複射擊，一律退化為該請求的 no-op，不會影響程序或其他請求。
//
// 配置選項
//
// 支援多種運行時配置：
//   - -port：服務監聽端口（預設 8080）
//   - -log-level：日誌級別（debug/info/warn/error）
//   - -log-format：日誌格式（text/json）
package battleship
