package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func timePtr(v time.Time) *time.Time { return &v }

// validRecord 构造一条结构完整、可通过校验的边界记录。
func validRecord() *GameRecord {
	createdAt := time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)
	return &GameRecord{
		ID:        "game-1",
		CreatedAt: &createdAt,
		Teams: []TeamRecord{
			{ID: "team-a", Name: "我们"},
			{ID: "team-b", Name: "他们"},
		},
		Rounds: []RoundRecord{
			{
				ID:          "round-1",
				BidWinner:   "team-a",
				Bid:         intPtr(300),
				Meld:        map[string]int{"team-a": 200, "team-b": 100},
				TrickPoints: map[string]int{"team-a": 150, "team-b": 100},
				CreatedAt:   timePtr(createdAt.Add(10 * time.Minute)),
			},
		},
	}
}

func TestValidateAcceptsCompleteRecord(t *testing.T) {
	assert.NoError(t, Validate(validRecord()))
}

func TestValidateToleratesMissingVersionAndCardImageIndex(t *testing.T) {
	rec := validRecord()
	rec.Version = nil
	rec.CardImageIndex = nil
	rec.WinningScore = nil

	assert.NoError(t, Validate(rec))
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(rec *GameRecord)
		field  string
	}{
		{
			name:   "缺少对局标识",
			mutate: func(rec *GameRecord) { rec.ID = "" },
			field:  "id",
		},
		{
			name:   "缺少创建时间",
			mutate: func(rec *GameRecord) { rec.CreatedAt = nil },
			field:  "createdAt",
		},
		{
			name:   "缺少队伍列表",
			mutate: func(rec *GameRecord) { rec.Teams = nil },
			field:  "teams",
		},
		{
			name:   "缺少队伍标识",
			mutate: func(rec *GameRecord) { rec.Teams[1].ID = "" },
			field:  "teams[1].id",
		},
		{
			name:   "缺少队伍名称",
			mutate: func(rec *GameRecord) { rec.Teams[0].Name = "" },
			field:  "teams[0].name",
		},
		{
			name:   "队伍标识重复",
			mutate: func(rec *GameRecord) { rec.Teams[1].ID = "team-a" },
			field:  "teams[1].id",
		},
		{
			name:   "缺少回合标识",
			mutate: func(rec *GameRecord) { rec.Rounds[0].ID = "" },
			field:  "rounds[0].id",
		},
		{
			name:   "缺少叫分方",
			mutate: func(rec *GameRecord) { rec.Rounds[0].BidWinner = "" },
			field:  "rounds[0].bidWinner",
		},
		{
			name:   "叫分方不是本局队伍",
			mutate: func(rec *GameRecord) { rec.Rounds[0].BidWinner = "team-x" },
			field:  "rounds[0].bidWinner",
		},
		{
			name:   "叫分缺失",
			mutate: func(rec *GameRecord) { rec.Rounds[0].Bid = nil },
			field:  "rounds[0].bid",
		},
		{
			name:   "叫分必须为正",
			mutate: func(rec *GameRecord) { rec.Rounds[0].Bid = intPtr(0) },
			field:  "rounds[0].bid",
		},
		{
			name:   "缺少组合分",
			mutate: func(rec *GameRecord) { rec.Rounds[0].Meld = nil },
			field:  "rounds[0].meld",
		},
		{
			name:   "缺少墩分",
			mutate: func(rec *GameRecord) { rec.Rounds[0].TrickPoints = nil },
			field:  "rounds[0].trickPoints",
		},
		{
			name:   "组合分不能为负",
			mutate: func(rec *GameRecord) { rec.Rounds[0].Meld["team-a"] = -10 },
			field:  "rounds[0].meld[team-a]",
		},
		{
			name:   "墩分不能为负",
			mutate: func(rec *GameRecord) { rec.Rounds[0].TrickPoints["team-b"] = -1 },
			field:  "rounds[0].trickPoints[team-b]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(rec)

			err := Validate(rec)
			require.Error(t, err)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestValidateNilRecord(t *testing.T) {
	var vErr *ValidationError
	require.ErrorAs(t, Validate(nil), &vErr)
	assert.Equal(t, "record", vErr.Field)
}
