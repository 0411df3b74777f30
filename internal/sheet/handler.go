package sheet

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SlpAus/pinochle-score-sheet-backend/internal/game"
	"github.com/gin-gonic/gin"
)

// --- API 请求模型 ---

type teamPayload struct {
	Name    string   `json:"name" binding:"required"`
	Players []string `json:"players"`
}

type startGameRequest struct {
	Teams []teamPayload `json:"teams" binding:"required"`
}

type addRoundRequest struct {
	BidWinner          string         `json:"bidWinner" binding:"required"`
	Bid                int            `json:"bid" binding:"required"`
	Meld               map[string]int `json:"meld"`
	TrickPoints        map[string]int `json:"trickPoints"`
	MoonShotAttempted  bool           `json:"moonShotAttempted"`
	MoonShotSuccessful bool           `json:"moonShotSuccessful"`
}

type deleteGamesRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// --- API 响应模型 ---

type teamResponse struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Players []string `json:"players"`
	Score   int      `json:"score"`
}

type roundResponse struct {
	ID                 string         `json:"id"`
	BidWinner          string         `json:"bidWinner"`
	Bid                int            `json:"bid"`
	Meld               map[string]int `json:"meld"`
	TrickPoints        map[string]int `json:"trickPoints"`
	MoonShotAttempted  bool           `json:"moonShotAttempted"`
	MoonShotSuccessful bool           `json:"moonShotSuccessful"`
	CreatedAt          time.Time      `json:"createdAt"`
}

type gameResponse struct {
	ID             string          `json:"id"`
	CreatedAt      time.Time       `json:"createdAt"`
	Teams          []teamResponse  `json:"teams"`
	Rounds         []roundResponse `json:"rounds"`
	CardImageIndex int             `json:"cardImageIndex"`
	WinningScore   int             `json:"winningScore"`
	Completed      bool            `json:"completed,omitempty"`
	WinnerTeamID   string          `json:"winnerTeamId,omitempty"`
}

type progressionEntryResponse struct {
	RoundID string         `json:"roundId"`
	Scores  map[string]int `json:"scores"`
}

type progressionResponse struct {
	GameID  string                     `json:"gameId"`
	Teams   []teamResponse             `json:"teams"`
	Entries []progressionEntryResponse `json:"entries"`
}

// --- 数据格式化辅助函数 ---

func formatGame(state *GameStateDTO) gameResponse {
	g := state.Game
	resp := gameResponse{
		ID:             g.ID,
		CreatedAt:      g.CreatedAt,
		Teams:          make([]teamResponse, len(g.Teams)),
		Rounds:         make([]roundResponse, len(g.Rounds)),
		CardImageIndex: g.CardImageIndex,
		WinningScore:   g.WinningScore,
	}
	for i, t := range g.Teams {
		resp.Teams[i] = teamResponse{
			ID:      t.ID,
			Name:    t.Name,
			Players: t.Players,
			Score:   state.Scores[t.ID],
		}
	}
	for i := range g.Rounds {
		r := &g.Rounds[i]
		resp.Rounds[i] = roundResponse{
			ID:                 r.ID,
			BidWinner:          r.BidWinner,
			Bid:                r.Bid,
			Meld:               r.Meld,
			TrickPoints:        r.TrickPoints,
			MoonShotAttempted:  r.MoonShotAttempted,
			MoonShotSuccessful: r.MoonShotSuccessful,
			CreatedAt:          r.CreatedAt,
		}
	}
	return resp
}

// respondError 把存储边界的三类错误映射成合适的HTTP状态码。
func respondError(c *gin.Context, err error) {
	var validationErr *game.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
		return
	}
	var corruptErr *game.CorruptDataError
	if errors.As(err, &corruptErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": corruptErr.Error()})
		return
	}
	var storageErr *game.StorageError
	if errors.As(err, &storageErr) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "存储暂时不可用"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// --- Gin Handlers ---

// StartGame 处理 POST /api/games
func StartGame(c *gin.Context) {
	var req startGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("请求格式错误: %v", err)})
		return
	}

	teams := make([]TeamInput, len(req.Teams))
	for i, t := range req.Teams {
		teams[i] = TeamInput{Name: t.Name, Players: t.Players}
	}

	state, err := StartNewGame(c.Request.Context(), teams)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, formatGame(state))
}

// GetCurrent 处理 GET /api/games/current
func GetCurrent(c *gin.Context) {
	state, err := GetCurrentState(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if state == nil {
		c.JSON(http.StatusOK, gin.H{"game": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": formatGame(state)})
}

// SubmitRound 处理 POST /api/games/current/rounds
func SubmitRound(c *gin.Context) {
	var req addRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("请求格式错误: %v", err)})
		return
	}

	result, err := AddRound(c.Request.Context(), RoundInput{
		BidWinner:          req.BidWinner,
		Bid:                req.Bid,
		Meld:               req.Meld,
		TrickPoints:        req.TrickPoints,
		MoonShotAttempted:  req.MoonShotAttempted,
		MoonShotSuccessful: req.MoonShotSuccessful,
	})
	if err != nil {
		if errors.Is(err, ErrNoActiveGame) {
			c.JSON(http.StatusNotFound, gin.H{"error": ErrNoActiveGame.Error()})
			return
		}
		respondError(c, err)
		return
	}

	resp := formatGame(&GameStateDTO{Game: result.Game, Scores: result.Scores})
	resp.Completed = result.Completed
	resp.WinnerTeamID = result.WinnerTeamID
	c.JSON(http.StatusOK, resp)
}

// AbandonGame 处理 DELETE /api/games/current
func AbandonGame(c *gin.Context) {
	if err := AbandonCurrentGame(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GetHistoryList 处理 GET /api/games/history
func GetHistoryList(c *gin.Context) {
	states, err := GetHistory(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	games := make([]gameResponse, len(states))
	for i := range states {
		games[i] = formatGame(&states[i])
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

// DeleteGames 处理 DELETE /api/games/history
func DeleteGames(c *gin.Context) {
	var req deleteGamesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("请求格式错误: %v", err)})
		return
	}
	deleted, err := DeleteHistoryGames(c.Request.Context(), req.IDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// GetProgression 处理 GET /api/games/current/progression
func GetProgression(c *gin.Context) {
	progression, err := GetScoreProgression(c.Request.Context())
	if err != nil {
		if errors.Is(err, ErrNoActiveGame) {
			c.JSON(http.StatusNotFound, gin.H{"error": ErrNoActiveGame.Error()})
			return
		}
		respondError(c, err)
		return
	}

	resp := progressionResponse{
		GameID:  progression.GameID,
		Teams:   make([]teamResponse, len(progression.Teams)),
		Entries: make([]progressionEntryResponse, len(progression.Entries)),
	}
	for i, t := range progression.Teams {
		resp.Teams[i] = teamResponse{ID: t.ID, Name: t.Name, Players: t.Players}
	}
	for i, entry := range progression.Entries {
		resp.Entries[i] = progressionEntryResponse{RoundID: entry.RoundID, Scores: entry.Scores}
	}
	c.JSON(http.StatusOK, resp)
}
