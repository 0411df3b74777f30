package game

import (
	"encoding/json"
	"time"
)

// CurrentSchemaVersion 是当前对局记录的模式版本。
// 每当持久化结构发生不兼容变化时递增，由迁移器负责向前升级。
const CurrentSchemaVersion = 2

const (
	// CardImageCount 是牌背图案的数量，cardImageIndex 取值范围为 [0, CardImageCount)
	CardImageCount = 24

	// DefaultWinningScore 是缺省的终局分数线
	DefaultWinningScore = 1500

	// TrickPointsPerRound 是每一回合固定的墩分总池，非满贯回合必须恰好分完
	TrickPointsPerRound = 250

	// MoonShotValue 是满贯（moon shot）回合的固定分值，成则+1500，败则-1500
	MoonShotValue = 1500
)

// --- Redis 键名常量 ---
// 这些键是计分表的对外持久化接口，值均为JSON序列化的字符串

const (
	// CurrentGameKey 存储进行中的对局，不存在表示当前没有对局
	CurrentGameKey = "pinochle_current_game"

	// GameHistoryKey 存储已完成对局的有序列表
	GameHistoryKey = "pinochle_game_history"

	// BackupKey 存储最近一次的整体快照
	BackupKey = "pinochle_data_backup"
)

// Team 是对局中的一支队伍。队伍列表在对局创建后不可变。
type Team struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Players []string `json:"players,omitempty"`
}

// Round 是一个已经结算的回合。回合一经追加即不可变。
type Round struct {
	ID        string `json:"id"`
	BidWinner string `json:"bidWinner"`
	Bid       int    `json:"bid"`

	// Meld 和 TrickPoints 以队伍ID为键，写入方应为每支队伍显式填充条目
	Meld        map[string]int `json:"meld"`
	TrickPoints map[string]int `json:"trickPoints"`

	// 满贯回合忽略Meld/TrickPoints，MoonShotSuccessful 仅在尝试满贯时有意义
	MoonShotAttempted  bool `json:"moonShotAttempted,omitempty"`
	MoonShotSuccessful bool `json:"moonShotSuccessful,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Game 是当前模式版本下的完整对局。
type Game struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"createdAt"`
	Teams          []Team    `json:"teams"`
	Rounds         []Round   `json:"rounds"`
	CardImageIndex int       `json:"cardImageIndex"`
	WinningScore   int       `json:"winningScore"`
	Version        int       `json:"version"`
}

// --- 读写边界上的宽松记录 ---
// 旧版本的数据可能缺少迁移器才会补齐的字段，因此边界结构用指针
// 和RawMessage表达"可能缺失"，由校验器和迁移器分别处理。

// TeamRecord 是Team在读写边界上的宽松形式。
type TeamRecord struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Players []string `json:"players"`
}

// RoundRecord 是Round在读写边界上的宽松形式。
type RoundRecord struct {
	ID                 string         `json:"id"`
	BidWinner          string         `json:"bidWinner"`
	Bid                *int           `json:"bid"`
	Meld               map[string]int `json:"meld"`
	TrickPoints        map[string]int `json:"trickPoints"`
	MoonShotAttempted  *bool          `json:"moonShotAttempted"`
	MoonShotSuccessful *bool          `json:"moonShotSuccessful"`
	CreatedAt          *time.Time     `json:"createdAt"`
}

// GameRecord 是Game在读写边界上的宽松形式。
// CardImageIndex使用RawMessage，历史数据中该字段可能不存在甚至不是数字。
type GameRecord struct {
	ID             string          `json:"id"`
	CreatedAt      *time.Time      `json:"createdAt"`
	Teams          []TeamRecord    `json:"teams"`
	Rounds         []RoundRecord   `json:"rounds"`
	CardImageIndex json.RawMessage `json:"cardImageIndex,omitempty"`
	WinningScore   *int            `json:"winningScore,omitempty"`
	Version        *int            `json:"version,omitempty"`
}

// BackupRecord 是备份槽位中的整体快照结构。
// 内嵌的对局保持宽松形式，恢复时才逐条校验并迁移。
type BackupRecord struct {
	Timestamp   time.Time    `json:"timestamp"`
	Version     int          `json:"version"`
	CurrentGame *GameRecord  `json:"currentGame"`
	GameHistory []GameRecord `json:"gameHistory"`
}

// Record 将一个当前模式的对局转换为边界记录，供写入前的统一校验与迁移。
func (g *Game) Record() *GameRecord {
	rec := &GameRecord{
		ID:    g.ID,
		Teams: make([]TeamRecord, len(g.Teams)),
	}
	if !g.CreatedAt.IsZero() {
		createdAt := g.CreatedAt
		rec.CreatedAt = &createdAt
	}
	for i, t := range g.Teams {
		rec.Teams[i] = TeamRecord{ID: t.ID, Name: t.Name, Players: t.Players}
	}
	rec.Rounds = make([]RoundRecord, len(g.Rounds))
	for i := range g.Rounds {
		r := &g.Rounds[i]
		bid := r.Bid
		roundCreatedAt := r.CreatedAt
		rr := RoundRecord{
			ID:          r.ID,
			BidWinner:   r.BidWinner,
			Bid:         &bid,
			Meld:        r.Meld,
			TrickPoints: r.TrickPoints,
			CreatedAt:   &roundCreatedAt,
		}
		if r.MoonShotAttempted {
			attempted, successful := r.MoonShotAttempted, r.MoonShotSuccessful
			rr.MoonShotAttempted = &attempted
			rr.MoonShotSuccessful = &successful
		}
		rec.Rounds[i] = rr
	}
	// cardImageIndex 为0也是合法图案，写入方总是显式携带
	rec.CardImageIndex, _ = json.Marshal(g.CardImageIndex)
	if g.WinningScore > 0 {
		winningScore := g.WinningScore
		rec.WinningScore = &winningScore
	}
	if g.Version > 0 {
		version := g.Version
		rec.Version = &version
	}
	return rec
}
