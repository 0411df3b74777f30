package game

import "fmt"

// Validate 对一条边界记录做结构校验。
// 注意：version 和 cardImageIndex 缺失不是校验错误，它们由迁移器补齐；
// 校验器只负责判断记录是否"结构上可信"，不检查计分规则层面的约束
// （例如墩分总和是否为250，那是写入方的职责）。
func Validate(rec *GameRecord) error {
	if rec == nil {
		return &ValidationError{Field: "record", Reason: "记录为空"}
	}
	if rec.ID == "" {
		return &ValidationError{Field: "id", Reason: "缺少对局标识"}
	}
	if rec.CreatedAt == nil {
		return &ValidationError{Field: "createdAt", Reason: "缺少创建时间"}
	}
	if len(rec.Teams) == 0 {
		return &ValidationError{Field: "teams", Reason: "缺少队伍列表"}
	}

	teamIDs := make(map[string]bool, len(rec.Teams))
	for i, t := range rec.Teams {
		if t.ID == "" {
			return &ValidationError{Field: fmt.Sprintf("teams[%d].id", i), Reason: "缺少队伍标识"}
		}
		if t.Name == "" {
			return &ValidationError{Field: fmt.Sprintf("teams[%d].name", i), Reason: "缺少队伍名称"}
		}
		if teamIDs[t.ID] {
			return &ValidationError{Field: fmt.Sprintf("teams[%d].id", i), Reason: "队伍标识重复"}
		}
		teamIDs[t.ID] = true
	}

	for i, r := range rec.Rounds {
		if r.ID == "" {
			return &ValidationError{Field: fmt.Sprintf("rounds[%d].id", i), Reason: "缺少回合标识"}
		}
		if r.BidWinner == "" {
			return &ValidationError{Field: fmt.Sprintf("rounds[%d].bidWinner", i), Reason: "缺少叫分方"}
		}
		if !teamIDs[r.BidWinner] {
			return &ValidationError{Field: fmt.Sprintf("rounds[%d].bidWinner", i), Reason: "叫分方不是本局队伍"}
		}
		if r.Bid == nil || *r.Bid <= 0 {
			return &ValidationError{Field: fmt.Sprintf("rounds[%d].bid", i), Reason: "叫分必须为正整数"}
		}
		if r.Meld == nil {
			return &ValidationError{Field: fmt.Sprintf("rounds[%d].meld", i), Reason: "缺少组合分"}
		}
		if r.TrickPoints == nil {
			return &ValidationError{Field: fmt.Sprintf("rounds[%d].trickPoints", i), Reason: "缺少墩分"}
		}
		for teamID, v := range r.Meld {
			if v < 0 {
				return &ValidationError{Field: fmt.Sprintf("rounds[%d].meld[%s]", i, teamID), Reason: "组合分不能为负"}
			}
		}
		for teamID, v := range r.TrickPoints {
			if v < 0 {
				return &ValidationError{Field: fmt.Sprintf("rounds[%d].trickPoints[%s]", i, teamID), Reason: "墩分不能为负"}
			}
		}
	}

	return nil
}
