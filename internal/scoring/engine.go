package scoring

import (
	"fmt"
	"sync"

	"github.com/SlpAus/pinochle-score-sheet-backend/internal/game"
)

// RoundPoints 计算单个回合中某支队伍的得分。纯函数。
//
// 规则按优先级依次为:
//  1. 满贯回合：非叫分方一律0分；叫分方成则 +1500，败则 -1500，
//     组合分与墩分全部忽略。
//  2. 普通回合：total = 组合分 + 墩分。
//     叫分方 total >= 叫分时得 total，否则倒扣叫分（组合分作废）；
//     非叫分方只有吃到至少一墩(墩分>0)才能拿到 total，否则0分。
func RoundPoints(r *game.Round, teamID string) int {
	if r.MoonShotAttempted {
		if teamID != r.BidWinner {
			return 0
		}
		if r.MoonShotSuccessful {
			return game.MoonShotValue
		}
		return -game.MoonShotValue
	}

	// 缺失的条目按0处理
	total := r.Meld[teamID] + r.TrickPoints[teamID]
	if teamID == r.BidWinner {
		if total >= r.Bid {
			return total
		}
		return -r.Bid
	}
	if r.TrickPoints[teamID] > 0 {
		return total
	}
	return 0
}

// cacheKey 以(对局ID, 队伍ID, 回合数)标识一次累计得分。
// 回合是追加且不可变的，所以回合数是廉价且可靠的失效信号：
// 同一对局同一回合数下的累计得分不会变化。
type cacheKey struct {
	gameID     string
	teamID     string
	roundCount int
}

// Engine 是计分引擎，持有显式的备忘缓存。
// 并发读同一个键返回同一个值，不同键的写入互不干扰。
type Engine struct {
	mu    sync.RWMutex
	cache map[cacheKey]int
}

// NewEngine 创建一个空缓存的计分引擎。
func NewEngine() *Engine {
	return &Engine{cache: make(map[cacheKey]int)}
}

// TeamScore 按回合顺序累计某队的总分。零回合的对局所有队伍都是0分，
// 负分是正常结果（叫分失败、满贯失败）。
func (e *Engine) TeamScore(g *game.Game, teamID string) int {
	key := cacheKey{gameID: g.ID, teamID: teamID, roundCount: len(g.Rounds)}

	e.mu.RLock()
	score, ok := e.cache[key]
	e.mu.RUnlock()
	if ok {
		return score
	}

	score = 0
	for i := range g.Rounds {
		score += RoundPoints(&g.Rounds[i], teamID)
	}

	e.mu.Lock()
	e.cache[key] = score
	e.mu.Unlock()
	return score
}

// AllTeamScores 返回所有队伍的累计得分，与逐队调用 TeamScore 完全一致，
// 并复用同一份缓存。
func (e *Engine) AllTeamScores(g *game.Game) map[string]int {
	scores := make(map[string]int, len(g.Teams))
	for _, t := range g.Teams {
		scores[t.ID] = e.TeamScore(g, t.ID)
	}
	return scores
}

// InvalidateGame 清除某一对局的全部缓存条目。
// 对局被归档或删除时必须调用；回合数变化导致的旧条目则自然失效。
func (e *Engine) InvalidateGame(gameID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for key := range e.cache {
		if key.gameID == gameID {
			delete(e.cache, key)
		}
	}
}

// --- 模块全局实例 ---

// globalEngine 是进程内唯一的计分引擎实例
var globalEngine *Engine

// Initialize 创建全局计分引擎。
// 这个函数应该在应用启动时且仅调用一次。
func Initialize() {
	globalEngine = NewEngine()
	fmt.Println("计分引擎初始化完成。")
}

// Default 返回全局计分引擎。
func Default() *Engine {
	return globalEngine
}
