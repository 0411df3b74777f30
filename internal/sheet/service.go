package sheet

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/SlpAus/pinochle-score-sheet-backend/internal/game"
	"github.com/SlpAus/pinochle-score-sheet-backend/internal/platform/backup"
	"github.com/SlpAus/pinochle-score-sheet-backend/internal/platform/config"
	"github.com/SlpAus/pinochle-score-sheet-backend/internal/scoring"
	"github.com/google/uuid"
)

// ErrNoActiveGame 表示当前没有进行中的对局。
var ErrNoActiveGame = errors.New("当前没有进行中的对局")

// --- Service-Level Data Transfer Objects (DTOs) ---

// TeamInput 是新建对局时一支队伍的输入。
type TeamInput struct {
	Name    string
	Players []string
}

// RoundInput 是记分一个回合的输入。
type RoundInput struct {
	BidWinner          string
	Bid                int
	Meld               map[string]int
	TrickPoints        map[string]int
	MoonShotAttempted  bool
	MoonShotSuccessful bool
}

// GameStateDTO 是对局及其实时累计得分。
type GameStateDTO struct {
	Game   *game.Game
	Scores map[string]int
}

// AddRoundResultDTO 是记分一个回合后的完整结果。
type AddRoundResultDTO struct {
	Game         *game.Game
	Scores       map[string]int
	Completed    bool
	WinnerTeamID string
}

// ProgressionEntryDTO 是某一回合结束后的累计得分快照。
type ProgressionEntryDTO struct {
	RoundID string
	Scores  map[string]int
}

// ProgressionDTO 是当前对局的逐回合得分走势。
type ProgressionDTO struct {
	GameID  string
	Teams   []game.Team
	Entries []ProgressionEntryDTO
}

// --- Service Functions ---

// StartNewGame 创建一个全新的对局（空回合列表）并保存为当前对局。
// 已有进行中的对局会被直接替换，是否保留由调用方在替换前自行决定。
func StartNewGame(ctx context.Context, teams []TeamInput) (*GameStateDTO, error) {
	if len(teams) < 2 {
		return nil, &game.ValidationError{Field: "teams", Reason: "至少需要两支队伍"}
	}

	gameID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("无法生成对局ID: %w", err)
	}

	g := &game.Game{
		ID:             gameID.String(),
		CreatedAt:      time.Now(),
		Teams:          make([]game.Team, len(teams)),
		Rounds:         []game.Round{},
		CardImageIndex: rand.Intn(game.CardImageCount),
		WinningScore:   winningScore(),
		Version:        game.CurrentSchemaVersion,
	}
	for i, t := range teams {
		teamID, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("无法生成队伍ID: %w", err)
		}
		g.Teams[i] = game.Team{ID: teamID.String(), Name: t.Name, Players: t.Players}
	}

	if err := game.SaveCurrentGame(ctx, g); err != nil {
		return nil, err
	}

	return &GameStateDTO{
		Game:   g,
		Scores: scoring.Default().AllTeamScores(g),
	}, nil
}

// GetCurrentState 读取当前对局及其实时得分。没有对局时返回 (nil, nil)。
func GetCurrentState(ctx context.Context) (*GameStateDTO, error) {
	g, err := game.GetCurrentGame(ctx)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, nil
	}
	return &GameStateDTO{
		Game:   g,
		Scores: scoring.Default().AllTeamScores(g),
	}, nil
}

// AddRound 为当前对局追加一个回合并重新计分。
// 任何一支队伍的累计得分达到终局分数线时，对局被归档进历史，
// 当前槽位被清空，该对局的计分缓存随之失效。
func AddRound(ctx context.Context, input RoundInput) (*AddRoundResultDTO, error) {
	g, err := game.GetCurrentGame(ctx)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrNoActiveGame
	}

	if err := checkRoundInput(g, &input); err != nil {
		return nil, err
	}

	round, err := buildRound(g, &input)
	if err != nil {
		return nil, err
	}
	g.Rounds = append(g.Rounds, *round)

	if err := game.SaveCurrentGame(ctx, g); err != nil {
		return nil, err
	}

	engine := scoring.Default()
	scores := engine.AllTeamScores(g)
	result := &AddRoundResultDTO{Game: g, Scores: scores}

	winnerID, finished := findWinner(g, scores)
	if !finished {
		return result, nil
	}

	// 终局：归档进历史并清空当前槽位
	history, err := game.GetGameHistory(ctx)
	if err != nil {
		return nil, err
	}
	history = append(history, *g)
	if err := game.SaveGameHistory(ctx, history); err != nil {
		return nil, err
	}
	if err := game.SaveCurrentGame(ctx, nil); err != nil {
		return nil, err
	}
	engine.InvalidateGame(g.ID)

	result.Completed = true
	result.WinnerTeamID = winnerID

	// 机会性快照，失败只记录，不影响记分主流程
	if err := backup.CreateBackup(ctx); err != nil {
		fmt.Printf("警告: 对局归档后的快照失败: %v\n", err)
	}

	return result, nil
}

// AbandonCurrentGame 丢弃进行中的对局（不归档）。没有对局时为空操作。
func AbandonCurrentGame(ctx context.Context) error {
	g, err := game.GetCurrentGame(ctx)
	if err != nil {
		return err
	}
	if g == nil {
		return nil
	}
	if err := game.SaveCurrentGame(ctx, nil); err != nil {
		return err
	}
	scoring.Default().InvalidateGame(g.ID)
	return nil
}

// GetHistory 读取全部已完成对局及各自的最终得分。
func GetHistory(ctx context.Context) ([]GameStateDTO, error) {
	history, err := game.GetGameHistory(ctx)
	if err != nil {
		return nil, err
	}
	engine := scoring.Default()
	states := make([]GameStateDTO, len(history))
	for i := range history {
		states[i] = GameStateDTO{
			Game:   &history[i],
			Scores: engine.AllTeamScores(&history[i]),
		}
	}
	return states, nil
}

// DeleteHistoryGames 按ID批量删除历史对局，返回实际删除的条数。
// 这是一个显式的管理操作，历史在核心语义上是只增的。
func DeleteHistoryGames(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	history, err := game.GetGameHistory(ctx)
	if err != nil {
		return 0, err
	}

	toDelete := make(map[string]bool, len(ids))
	for _, id := range ids {
		toDelete[id] = true
	}
	remaining := make([]game.Game, 0, len(history))
	deleted := 0
	for i := range history {
		if toDelete[history[i].ID] {
			deleted++
			continue
		}
		remaining = append(remaining, history[i])
	}
	if deleted == 0 {
		return 0, nil
	}

	if err := game.SaveGameHistory(ctx, remaining); err != nil {
		return 0, err
	}
	engine := scoring.Default()
	for id := range toDelete {
		engine.InvalidateGame(id)
	}

	// 让镜像和备份尽快跟上删除结果，失败不影响主流程
	if err := backup.CreateBackup(ctx); err != nil {
		fmt.Printf("警告: 历史删除后的快照失败: %v\n", err)
	}

	return deleted, nil
}

// GetScoreProgression 返回当前对局逐回合的累计得分走势。
func GetScoreProgression(ctx context.Context) (*ProgressionDTO, error) {
	g, err := game.GetCurrentGame(ctx)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrNoActiveGame
	}

	running := make(map[string]int, len(g.Teams))
	for _, t := range g.Teams {
		running[t.ID] = 0
	}

	progression := &ProgressionDTO{
		GameID:  g.ID,
		Teams:   g.Teams,
		Entries: make([]ProgressionEntryDTO, 0, len(g.Rounds)),
	}
	for i := range g.Rounds {
		for _, t := range g.Teams {
			running[t.ID] += scoring.RoundPoints(&g.Rounds[i], t.ID)
		}
		snapshot := make(map[string]int, len(running))
		for teamID, score := range running {
			snapshot[teamID] = score
		}
		progression.Entries = append(progression.Entries, ProgressionEntryDTO{
			RoundID: g.Rounds[i].ID,
			Scores:  snapshot,
		})
	}
	return progression, nil
}

// --- 内部辅助函数 ---

// winningScore 返回新建对局的终局分数线，优先取配置值。
func winningScore() int {
	if config.Cfg != nil && config.Cfg.Game.WinningScore > 0 {
		return config.Cfg.Game.WinningScore
	}
	return game.DefaultWinningScore
}

// checkRoundInput 执行计分规则层面的检查。
// 结构层面的校验由仓库在保存时统一完成，这里只负责规则约束：
// 叫分方必须是本局队伍、叫分为正、普通回合的墩分必须恰好分完总池。
func checkRoundInput(g *game.Game, input *RoundInput) error {
	teamIDs := make(map[string]bool, len(g.Teams))
	for _, t := range g.Teams {
		teamIDs[t.ID] = true
	}

	if !teamIDs[input.BidWinner] {
		return &game.ValidationError{Field: "bidWinner", Reason: "叫分方不是本局队伍"}
	}
	if input.Bid <= 0 {
		return &game.ValidationError{Field: "bid", Reason: "叫分必须为正整数"}
	}
	if input.MoonShotAttempted {
		// 满贯回合忽略组合分与墩分
		return nil
	}

	trickSum := 0
	for teamID, v := range input.Meld {
		if !teamIDs[teamID] {
			return &game.ValidationError{Field: "meld", Reason: fmt.Sprintf("未知队伍 %s", teamID)}
		}
		if v < 0 {
			return &game.ValidationError{Field: "meld", Reason: "组合分不能为负"}
		}
	}
	for teamID, v := range input.TrickPoints {
		if !teamIDs[teamID] {
			return &game.ValidationError{Field: "trickPoints", Reason: fmt.Sprintf("未知队伍 %s", teamID)}
		}
		if v < 0 {
			return &game.ValidationError{Field: "trickPoints", Reason: "墩分不能为负"}
		}
		trickSum += v
	}
	if trickSum != game.TrickPointsPerRound {
		return &game.ValidationError{
			Field:  "trickPoints",
			Reason: fmt.Sprintf("墩分总和必须为 %d，实际为 %d", game.TrickPointsPerRound, trickSum),
		}
	}
	return nil
}

// buildRound 构造一个完整的回合记录，为每支队伍显式填充条目。
func buildRound(g *game.Game, input *RoundInput) (*game.Round, error) {
	roundID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("无法生成回合ID: %w", err)
	}

	meld := make(map[string]int, len(g.Teams))
	tricks := make(map[string]int, len(g.Teams))
	for _, t := range g.Teams {
		if input.MoonShotAttempted {
			// 满贯回合的组合分与墩分不参与计分，统一落为0
			meld[t.ID] = 0
			tricks[t.ID] = 0
			continue
		}
		meld[t.ID] = input.Meld[t.ID]
		tricks[t.ID] = input.TrickPoints[t.ID]
	}

	round := &game.Round{
		ID:          roundID.String(),
		BidWinner:   input.BidWinner,
		Bid:         input.Bid,
		Meld:        meld,
		TrickPoints: tricks,
		CreatedAt:   time.Now(),
	}
	if input.MoonShotAttempted {
		round.MoonShotAttempted = true
		round.MoonShotSuccessful = input.MoonShotSuccessful
	}
	return round, nil
}

// findWinner 判断对局是否终局。达到分数线的队伍中得分最高者胜出，
// 并列时按队伍顺序取先出现者。
func findWinner(g *game.Game, scores map[string]int) (string, bool) {
	winnerID := ""
	best := 0
	for _, t := range g.Teams {
		score := scores[t.ID]
		if score >= g.WinningScore && (winnerID == "" || score > best) {
			winnerID = t.ID
			best = score
		}
	}
	return winnerID, winnerID != ""
}
