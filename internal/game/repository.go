package game

import (
	"context"
	"encoding/json"
	"fmt"
)

// globalKV 是仓库的存储介质，由 InitializeRepository 注入。
var globalKV KV

// InitializeRepository 注入仓库的存储介质。
// 这个函数应该在应用启动时且仅调用一次。
func InitializeRepository(kv KV) {
	globalKV = kv
	fmt.Println("对局仓库 (Repository) 初始化完成。")
}

// SaveCurrentGame 保存进行中的对局。传入nil表示清空该槽位。
// 非空对局在写入前先校验再迁移，保证落盘数据永远是当前模式；
// 校验失败时返回错误且槽位保持原样。
func SaveCurrentGame(ctx context.Context, g *Game) error {
	if g == nil {
		if err := globalKV.Del(ctx, CurrentGameKey); err != nil {
			return &StorageError{Op: "del", Key: CurrentGameKey, Err: err}
		}
		return nil
	}

	rec := g.Record()
	if err := Validate(rec); err != nil {
		return err
	}
	migrated := Migrate(rec)

	data, err := json.Marshal(&migrated)
	if err != nil {
		return fmt.Errorf("无法序列化当前对局: %w", err)
	}
	if err := globalKV.Set(ctx, CurrentGameKey, string(data)); err != nil {
		return &StorageError{Op: "set", Key: CurrentGameKey, Err: err}
	}
	return nil
}

// GetCurrentGame 读取进行中的对局。槽位为空时返回 (nil, nil)。
// 读出的数据会被解析、校验并迁移；迁移结果不会在这里自动回写，
// 是否重新持久化由调用方决定。
func GetCurrentGame(ctx context.Context) (*Game, error) {
	raw, ok, err := globalKV.Get(ctx, CurrentGameKey)
	if err != nil {
		return nil, &StorageError{Op: "get", Key: CurrentGameKey, Err: err}
	}
	if !ok {
		return nil, nil
	}

	var rec GameRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, &CorruptDataError{Key: CurrentGameKey, Err: err}
	}
	if err := Validate(&rec); err != nil {
		return nil, err
	}
	g := Migrate(&rec)
	return &g, nil
}

// SaveGameHistory 整体替换历史列表。
// 每一条记录都先校验并迁移，任何一条不合法都会放弃整个写入。
func SaveGameHistory(ctx context.Context, games []Game) error {
	migrated := make([]Game, len(games))
	for i := range games {
		rec := games[i].Record()
		if err := Validate(rec); err != nil {
			return fmt.Errorf("历史第 %d 条对局不合法: %w", i, err)
		}
		migrated[i] = Migrate(rec)
	}

	data, err := json.Marshal(migrated)
	if err != nil {
		return fmt.Errorf("无法序列化对局历史: %w", err)
	}
	if err := globalKV.Set(ctx, GameHistoryKey, string(data)); err != nil {
		return &StorageError{Op: "set", Key: GameHistoryKey, Err: err}
	}
	return nil
}

// GetGameHistory 读取完整的历史列表。槽位为空时返回空列表。
// 存储字节无法解析时返回 CorruptDataError，与形状不合法是两类错误。
func GetGameHistory(ctx context.Context) ([]Game, error) {
	raw, ok, err := globalKV.Get(ctx, GameHistoryKey)
	if err != nil {
		return nil, &StorageError{Op: "get", Key: GameHistoryKey, Err: err}
	}
	if !ok {
		return []Game{}, nil
	}

	var recs []GameRecord
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		return nil, &CorruptDataError{Key: GameHistoryKey, Err: err}
	}

	games := make([]Game, len(recs))
	for i := range recs {
		if err := Validate(&recs[i]); err != nil {
			return nil, fmt.Errorf("历史第 %d 条对局不合法: %w", i, err)
		}
		games[i] = Migrate(&recs[i])
	}
	return games, nil
}

// --- 备份槽位 ---
// 备份槽位只是仓库管理的又一个键，快照的编排逻辑在 platform/backup 中。

// LoadBackup 读取备份快照。槽位为空时返回 (nil, nil)。
func LoadBackup(ctx context.Context) (*BackupRecord, error) {
	raw, ok, err := globalKV.Get(ctx, BackupKey)
	if err != nil {
		return nil, &StorageError{Op: "get", Key: BackupKey, Err: err}
	}
	if !ok {
		return nil, nil
	}

	var rec BackupRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, &CorruptDataError{Key: BackupKey, Err: err}
	}
	return &rec, nil
}

// StoreBackup 整体替换备份快照。
func StoreBackup(ctx context.Context, rec *BackupRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("无法序列化备份快照: %w", err)
	}
	if err := globalKV.Set(ctx, BackupKey, string(data)); err != nil {
		return &StorageError{Op: "set", Key: BackupKey, Err: err}
	}
	return nil
}
