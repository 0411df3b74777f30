package startup

import (
	"context"
	"fmt"

	"github.com/SlpAus/pinochle-score-sheet-backend/internal/game"
	"github.com/SlpAus/pinochle-score-sheet-backend/internal/platform/backup"
	"github.com/SlpAus/pinochle-score-sheet-backend/internal/platform/metadata"
	"github.com/SlpAus/pinochle-score-sheet-backend/internal/scoring"
)

// InitializeApplication 是应用首次启动时执行的总入口。
// 它必须在任何API请求被处理之前完成，以建立一致的存储基线。
func InitializeApplication(kv game.KV) error {
	fmt.Println("开始应用首次初始化...")

	if err := metadata.PrimeDB(); err != nil {
		return err
	}
	if err := game.PrimeModule(kv); err != nil {
		return err
	}
	scoring.Initialize()

	// 启动自愈：尽力恢复上一份备份，强制持久化迁移结果，再取新快照。
	// 核心迁移步骤失败说明主存储不可用，应用不能继续启动。
	if err := backup.MigrateAll(context.Background()); err != nil {
		return fmt.Errorf("启动自愈流程失败: %w", err)
	}

	fmt.Println("应用初始化完成！")
	return nil
}

// RebuildCache 是一个专门用于在运行时重建Redis存储的函数。
// Redis重启或被清空后，用SQLite镜像把各个槽位重新灌回去。
func RebuildCache() error {
	fmt.Println("开始存储热重建...")

	currentRec, historyRecs, err := game.LoadMirror()
	if err != nil {
		return fmt.Errorf("无法读取SQLite镜像: %w", err)
	}

	ctx := context.Background()

	history := make([]game.Game, len(historyRecs))
	for i := range historyRecs {
		if err := game.Validate(&historyRecs[i]); err != nil {
			return fmt.Errorf("镜像中的历史第 %d 条对局不合法: %w", i, err)
		}
		history[i] = game.Migrate(&historyRecs[i])
	}
	if err := game.SaveGameHistory(ctx, history); err != nil {
		return fmt.Errorf("重建对局历史失败: %w", err)
	}

	var current *game.Game
	if currentRec != nil {
		if err := game.Validate(currentRec); err != nil {
			return fmt.Errorf("镜像中的当前对局不合法: %w", err)
		}
		migrated := game.Migrate(currentRec)
		current = &migrated
	}
	if err := game.SaveCurrentGame(ctx, current); err != nil {
		return fmt.Errorf("重建当前对局失败: %w", err)
	}

	// 触发一次新的快照
	fmt.Println("存储热重建完成，正在触发一次新的数据快照...")
	if err := backup.CreateBackup(ctx); err != nil {
		fmt.Printf("警告: 热重建后的快照创建失败: %v\n", err)
	} else {
		fmt.Println("快照创建成功！")
	}

	return nil
}
