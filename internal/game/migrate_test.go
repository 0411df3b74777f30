package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateFillsDefaults(t *testing.T) {
	rec := validRecord()
	rec.CardImageIndex = nil
	rec.WinningScore = nil
	rec.Version = nil

	g := Migrate(rec)

	assert.Equal(t, rec.ID, g.ID)
	assert.Equal(t, DefaultWinningScore, g.WinningScore)
	assert.Equal(t, CurrentSchemaVersion, g.Version)
	assert.GreaterOrEqual(t, g.CardImageIndex, 0)
	assert.Less(t, g.CardImageIndex, CardImageCount)
}

func TestMigratePreservesExplicitFields(t *testing.T) {
	rec := validRecord()
	rec.CardImageIndex = json.RawMessage("7")
	rec.WinningScore = intPtr(2000)
	rec.Version = intPtr(CurrentSchemaVersion)

	g := Migrate(rec)

	assert.Equal(t, 7, g.CardImageIndex)
	assert.Equal(t, 2000, g.WinningScore)
	assert.Equal(t, CurrentSchemaVersion, g.Version)
	require.Len(t, g.Teams, 2)
	require.Len(t, g.Rounds, 1)
	assert.Equal(t, map[string]int{"team-a": 200, "team-b": 100}, g.Rounds[0].Meld)
	assert.Equal(t, map[string]int{"team-a": 150, "team-b": 100}, g.Rounds[0].TrickPoints)
}

func TestMigrateCardImageIndexDeterministic(t *testing.T) {
	tests := []struct {
		name string
		raw  json.RawMessage
	}{
		{name: "字段缺失", raw: nil},
		{name: "不是数字", raw: json.RawMessage(`"blue"`)},
		{name: "负数越界", raw: json.RawMessage("-3")},
		{name: "超出图案数量", raw: json.RawMessage("99")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			rec.CardImageIndex = tt.raw

			first := Migrate(rec)
			second := Migrate(rec)

			// 同一条记录的重选结果必须稳定
			assert.Equal(t, first.CardImageIndex, second.CardImageIndex)
			assert.GreaterOrEqual(t, first.CardImageIndex, 0)
			assert.Less(t, first.CardImageIndex, CardImageCount)
		})
	}
}

func TestMigrateRoundTimestampFallsBackToGame(t *testing.T) {
	rec := validRecord()
	rec.Rounds[0].CreatedAt = nil

	g := Migrate(rec)

	assert.True(t, g.Rounds[0].CreatedAt.Equal(*rec.CreatedAt))
}

func TestMigrateMoonShotFlags(t *testing.T) {
	rec := validRecord()
	rec.Rounds[0].MoonShotAttempted = boolPtr(false)
	rec.Rounds[0].MoonShotSuccessful = boolPtr(true)

	g := Migrate(rec)

	// 未尝试满贯时不保留成功标记
	assert.False(t, g.Rounds[0].MoonShotAttempted)
	assert.False(t, g.Rounds[0].MoonShotSuccessful)

	rec.Rounds[0].MoonShotAttempted = boolPtr(true)
	g = Migrate(rec)
	assert.True(t, g.Rounds[0].MoonShotAttempted)
	assert.True(t, g.Rounds[0].MoonShotSuccessful)
}

func TestMigrateIdempotent(t *testing.T) {
	rec := validRecord()
	rec.CardImageIndex = nil
	rec.Version = nil

	once := Migrate(rec)
	twice := Migrate(once.Record())

	assert.Equal(t, once, twice)
}

func TestMigrateDoesNotDowngradeVersion(t *testing.T) {
	rec := validRecord()
	rec.Version = intPtr(CurrentSchemaVersion + 1)

	g := Migrate(rec)

	assert.Equal(t, CurrentSchemaVersion+1, g.Version)
}
