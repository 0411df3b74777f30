package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRepository 用内存介质初始化仓库，返回介质本身以便直接注入原始字节。
func setupRepository(t *testing.T) KV {
	t.Helper()
	kv := NewMemoryKV()
	InitializeRepository(kv)
	return kv
}

func completedGame(id string) Game {
	createdAt := time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)
	return Game{
		ID:        id,
		CreatedAt: createdAt,
		Teams: []Team{
			{ID: "team-a", Name: "我们", Players: []string{"张三", "李四"}},
			{ID: "team-b", Name: "他们", Players: []string{"王五", "赵六"}},
		},
		Rounds: []Round{
			{
				ID:          "round-1",
				BidWinner:   "team-a",
				Bid:         300,
				Meld:        map[string]int{"team-a": 200, "team-b": 100},
				TrickPoints: map[string]int{"team-a": 150, "team-b": 100},
				CreatedAt:   createdAt.Add(10 * time.Minute),
			},
		},
		CardImageIndex: 3,
		WinningScore:   1500,
		Version:        CurrentSchemaVersion,
	}
}

func TestGetCurrentGameEmptySlot(t *testing.T) {
	setupRepository(t)

	g, err := GetCurrentGame(context.Background())
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestSaveAndGetCurrentGame(t *testing.T) {
	setupRepository(t)
	ctx := context.Background()
	in := completedGame("game-rt")

	require.NoError(t, SaveCurrentGame(ctx, &in))

	out, err := GetCurrentGame(ctx)
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, in.ID, out.ID)
	assert.True(t, out.CreatedAt.Equal(in.CreatedAt))
	assert.Equal(t, in.Teams, out.Teams)
	assert.Equal(t, in.CardImageIndex, out.CardImageIndex)
	assert.Equal(t, in.WinningScore, out.WinningScore)
	assert.Equal(t, in.Version, out.Version)
	require.Len(t, out.Rounds, 1)
	assert.Equal(t, in.Rounds[0].Meld, out.Rounds[0].Meld)
	assert.Equal(t, in.Rounds[0].TrickPoints, out.Rounds[0].TrickPoints)
	assert.True(t, out.Rounds[0].CreatedAt.Equal(in.Rounds[0].CreatedAt))
}

func TestSaveCurrentGameNilClearsSlot(t *testing.T) {
	setupRepository(t)
	ctx := context.Background()
	in := completedGame("game-clear")

	require.NoError(t, SaveCurrentGame(ctx, &in))
	require.NoError(t, SaveCurrentGame(ctx, nil))

	out, err := GetCurrentGame(ctx)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestSaveCurrentGameRejectsInvalidAndKeepsSlot(t *testing.T) {
	setupRepository(t)
	ctx := context.Background()
	good := completedGame("game-good")
	require.NoError(t, SaveCurrentGame(ctx, &good))

	bad := completedGame("game-bad")
	bad.Teams = nil

	err := SaveCurrentGame(ctx, &bad)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)

	// 写入失败时槽位必须保持原样
	out, err := GetCurrentGame(ctx)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "game-good", out.ID)
}

func TestGetCurrentGameCorruptBytes(t *testing.T) {
	kv := setupRepository(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, CurrentGameKey, "{not json"))

	_, err := GetCurrentGame(ctx)
	var cErr *CorruptDataError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, CurrentGameKey, cErr.Key)
}

func TestGetGameHistoryEmptySlot(t *testing.T) {
	setupRepository(t)

	games, err := GetGameHistory(context.Background())
	require.NoError(t, err)
	require.NotNil(t, games)
	assert.Empty(t, games)
}

func TestGameHistoryRoundTrip(t *testing.T) {
	setupRepository(t)
	ctx := context.Background()
	in := []Game{completedGame("game-1"), completedGame("game-2")}

	require.NoError(t, SaveGameHistory(ctx, in))

	out, err := GetGameHistory(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "game-1", out[0].ID)
	assert.Equal(t, "game-2", out[1].ID)
}

func TestSaveGameHistoryAllOrNothing(t *testing.T) {
	setupRepository(t)
	ctx := context.Background()
	require.NoError(t, SaveGameHistory(ctx, []Game{completedGame("game-old")}))

	bad := completedGame("game-bad")
	bad.Rounds[0].BidWinner = "team-x"

	err := SaveGameHistory(ctx, []Game{completedGame("game-new"), bad})
	require.Error(t, err)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)

	// 任何一条不合法都不得改动历史
	out, err := GetGameHistory(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "game-old", out[0].ID)
}

func TestGetGameHistoryCorruptBytes(t *testing.T) {
	kv := setupRepository(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, GameHistoryKey, "[{]"))

	_, err := GetGameHistory(ctx)
	var cErr *CorruptDataError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, GameHistoryKey, cErr.Key)
}

func TestBackupSlotRoundTrip(t *testing.T) {
	setupRepository(t)
	ctx := context.Background()

	empty, err := LoadBackup(ctx)
	require.NoError(t, err)
	assert.Nil(t, empty)

	current := completedGame("game-current")
	history := completedGame("game-done")
	in := &BackupRecord{
		Timestamp:   time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC),
		Version:     CurrentSchemaVersion,
		CurrentGame: current.Record(),
		GameHistory: []GameRecord{*history.Record()},
	}
	require.NoError(t, StoreBackup(ctx, in))

	out, err := LoadBackup(ctx)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, out.Timestamp.Equal(in.Timestamp))
	assert.Equal(t, CurrentSchemaVersion, out.Version)
	require.NotNil(t, out.CurrentGame)
	assert.Equal(t, "game-current", out.CurrentGame.ID)
	require.Len(t, out.GameHistory, 1)
	assert.Equal(t, "game-done", out.GameHistory[0].ID)
}
