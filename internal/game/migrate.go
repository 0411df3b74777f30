package game

import (
	"encoding/json"
	"hash/fnv"
)

// Migrate 将一条通过校验的边界记录提升为当前模式版本。
// 迁移是确定性且幂等的：已经是当前模式的记录原样返回，
// 迁移只补齐缺失字段的安全缺省值，绝不丢弃队伍、回合或分数。
func Migrate(rec *GameRecord) Game {
	g := Game{
		ID:        rec.ID,
		CreatedAt: *rec.CreatedAt,
		Teams:     make([]Team, len(rec.Teams)),
		Rounds:    make([]Round, len(rec.Rounds)),
	}

	for i, t := range rec.Teams {
		g.Teams[i] = Team{ID: t.ID, Name: t.Name, Players: t.Players}
	}

	for i, r := range rec.Rounds {
		round := Round{
			ID:          r.ID,
			BidWinner:   r.BidWinner,
			Bid:         *r.Bid,
			Meld:        r.Meld,
			TrickPoints: r.TrickPoints,
		}
		if r.MoonShotAttempted != nil && *r.MoonShotAttempted {
			round.MoonShotAttempted = true
			// Successful 仅在尝试满贯时保留
			round.MoonShotSuccessful = r.MoonShotSuccessful != nil && *r.MoonShotSuccessful
		}
		if r.CreatedAt != nil {
			round.CreatedAt = *r.CreatedAt
		} else {
			// 旧数据没有回合时间戳，用对局创建时间兜底
			round.CreatedAt = *rec.CreatedAt
		}
		g.Rounds[i] = round
	}

	g.CardImageIndex = migrateCardImageIndex(rec)

	if rec.WinningScore != nil && *rec.WinningScore > 0 {
		g.WinningScore = *rec.WinningScore
	} else {
		g.WinningScore = DefaultWinningScore
	}

	if rec.Version != nil && *rec.Version >= CurrentSchemaVersion {
		g.Version = *rec.Version
	} else {
		g.Version = CurrentSchemaVersion
	}

	return g
}

// migrateCardImageIndex 解析记录中的牌背图案序号。
// 字段缺失、不是数字或越界时，根据对局ID确定性地重新选取一个，
// 这保证了同一条记录反复迁移得到同一个图案（纯装饰字段，无不变量依赖它）。
func migrateCardImageIndex(rec *GameRecord) int {
	if len(rec.CardImageIndex) > 0 {
		var index int
		if err := json.Unmarshal(rec.CardImageIndex, &index); err == nil {
			if index >= 0 && index < CardImageCount {
				return index
			}
		}
	}
	h := fnv.New32a()
	h.Write([]byte(rec.ID))
	return int(h.Sum32() % CardImageCount)
}
