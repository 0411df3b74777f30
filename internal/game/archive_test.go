package game

import (
	"testing"
	"time"

	"github.com/SlpAus/pinochle-score-sheet-backend/internal/platform/database"
	"github.com/SlpAus/pinochle-score-sheet-backend/internal/platform/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupMirrorDB 打开一个独立的内存SQLite库并接管全局句柄。
func setupMirrorDB(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&metadata.Metadata{}, &ArchivedGame{}, &CurrentGameMirror{}))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })
}

func TestMirrorStateSkipsWithoutDB(t *testing.T) {
	prev := database.DB
	database.DB = nil
	t.Cleanup(func() { database.DB = prev })

	current := completedGame("game-1")
	assert.NoError(t, MirrorState(&current, nil))
}

func TestMirrorStateRoundTrip(t *testing.T) {
	setupMirrorDB(t)

	current := completedGame("game-current")
	older := completedGame("game-older")
	older.CreatedAt = older.CreatedAt.Add(-24 * time.Hour)
	newer := completedGame("game-newer")

	// 乱序写入，读出时应按对局创建时间升序
	require.NoError(t, MirrorState(&current, []Game{newer, older}))

	currentRec, history, err := LoadMirror()
	require.NoError(t, err)
	require.NotNil(t, currentRec)
	assert.Equal(t, "game-current", currentRec.ID)
	require.Len(t, history, 2)
	assert.Equal(t, "game-older", history[0].ID)
	assert.Equal(t, "game-newer", history[1].ID)

	version, err := metadata.GetMirrorSchemaVersion(database.DB)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestMirrorStateReplacesStaleRows(t *testing.T) {
	setupMirrorDB(t)

	current := completedGame("game-current")
	kept := completedGame("game-kept")
	dropped := completedGame("game-dropped")
	require.NoError(t, MirrorState(&current, []Game{kept, dropped}))

	// 第二次镜像时dropped已不在历史中，对应的行必须被清理
	updated := kept
	updated.Rounds = append(updated.Rounds, Round{
		ID:          "round-2",
		BidWinner:   "team-b",
		Bid:         250,
		Meld:        map[string]int{"team-a": 0, "team-b": 100},
		TrickPoints: map[string]int{"team-a": 100, "team-b": 150},
		CreatedAt:   kept.CreatedAt.Add(30 * time.Minute),
	})
	require.NoError(t, MirrorState(nil, []Game{updated}))

	currentRec, history, err := LoadMirror()
	require.NoError(t, err)
	assert.Nil(t, currentRec)
	require.Len(t, history, 1)
	assert.Equal(t, "game-kept", history[0].ID)
	assert.Len(t, history[0].Rounds, 2)
}

func TestMirrorStateEmptyHistoryClearsRows(t *testing.T) {
	setupMirrorDB(t)

	current := completedGame("game-current")
	require.NoError(t, MirrorState(&current, []Game{completedGame("game-done")}))
	require.NoError(t, MirrorState(nil, nil))

	currentRec, history, err := LoadMirror()
	require.NoError(t, err)
	assert.Nil(t, currentRec)
	assert.Empty(t, history)
}
