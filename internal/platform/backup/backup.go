package backup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SlpAus/pinochle-score-sheet-backend/internal/game"
	"github.com/SlpAus/pinochle-score-sheet-backend/internal/platform/database"
	"github.com/SlpAus/pinochle-score-sheet-backend/internal/platform/metadata"
	"github.com/SlpAus/pinochle-score-sheet-backend/pkg/lifecycle"
)

const backupInterval = 10 * time.Minute // 定时备份频率

var backupMutex sync.Mutex // 避免意外竞态

// StartBackupScheduler 启动一个后台Goroutine来定期执行快照备份
// 它接收一个lifecycle.Handle来管理其生命周期
func StartBackupScheduler(handle *lifecycle.Handle) {
	defer handle.Close() // 确保在退出时通知管理器
	fmt.Println("计分表备份调度器已启动。")

	for {
		// 使用可中断的休眠来代替ticker。
		// 这使得整个循环可以在收到停机信号时立刻从休眠中唤醒并退出。
		if err := handle.Sleep(backupInterval); err != nil {
			fmt.Printf("备份调度器: 休眠被中断，正在关闭...\n")
			return
		}

		if !database.IsRedisHealthy() {
			fmt.Println("备份调度器: 检测到Redis不可用，跳过本次备份。")
			continue
		}

		fmt.Println("备份调度器: 正在执行定时备份...")
		if err := CreateBackup(handle.Ctx()); err != nil {
			// 如果错误是由于停机信号导致的，则静默退出
			if err != context.Canceled && err != context.DeadlineExceeded {
				fmt.Printf("备份调度器错误: 执行快照备份失败: %v\n", err)
			}
		} else {
			fmt.Println("备份调度器: 快照备份成功。")
		}
	}
}

// CreateBackup 读取当前对局与完整历史，连同时间戳和当前模式版本
// 打包成一份快照写入备份槽位，并同步SQLite镜像。
// 备份是安全网而不是事实来源：调用方应把这里的错误当作日志事件，
// 绝不允许它阻断记分主流程。
func CreateBackup(ctx context.Context) error {
	backupMutex.Lock()
	defer backupMutex.Unlock()

	current, err := game.GetCurrentGame(ctx)
	if err != nil {
		return fmt.Errorf("快照前无法读取当前对局: %w", err)
	}
	history, err := game.GetGameHistory(ctx)
	if err != nil {
		return fmt.Errorf("快照前无法读取对局历史: %w", err)
	}

	rec := &game.BackupRecord{
		Timestamp:   time.Now(),
		Version:     game.CurrentSchemaVersion,
		GameHistory: make([]game.GameRecord, len(history)),
	}
	if current != nil {
		rec.CurrentGame = current.Record()
	}
	for i := range history {
		rec.GameHistory[i] = *history[i].Record()
	}

	if err := game.StoreBackup(ctx, rec); err != nil {
		return fmt.Errorf("写入备份槽位失败: %w", err)
	}

	// SQLite镜像与备份同步刷新，作为Redis之外的第二份副本
	if err := game.MirrorState(current, history); err != nil {
		return fmt.Errorf("刷新SQLite镜像失败: %w", err)
	}
	if database.DB != nil {
		if err := metadata.SetLastBackupTime(database.DB, rec.Timestamp); err != nil {
			return fmt.Errorf("更新元数据 LastBackupTime 失败: %w", err)
		}
	}

	return nil
}

// Restore 从备份槽位恢复存储数据。
// 槽位为空时返回 (false, nil) 并保持现有数据原样，这不是错误。
// 槽位非空时，内嵌的当前对局和每一条历史都会被迁移后经由仓库写回。
func Restore(ctx context.Context) (bool, error) {
	rec, err := game.LoadBackup(ctx)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}

	var current *game.Game
	if rec.CurrentGame != nil {
		if err := game.Validate(rec.CurrentGame); err != nil {
			return false, fmt.Errorf("备份中的当前对局不合法: %w", err)
		}
		migrated := game.Migrate(rec.CurrentGame)
		current = &migrated
	}

	history := make([]game.Game, len(rec.GameHistory))
	for i := range rec.GameHistory {
		if err := game.Validate(&rec.GameHistory[i]); err != nil {
			return false, fmt.Errorf("备份中的历史第 %d 条对局不合法: %w", i, err)
		}
		history[i] = game.Migrate(&rec.GameHistory[i])
	}

	if err := game.SaveGameHistory(ctx, history); err != nil {
		return false, fmt.Errorf("恢复对局历史失败: %w", err)
	}
	if err := game.SaveCurrentGame(ctx, current); err != nil {
		return false, fmt.Errorf("恢复当前对局失败: %w", err)
	}

	return true, nil
}

// MigrateAll 是启动时的自愈流程，应在其他核心操作开始前执行一次:
//  1. 尽力从上一份备份恢复（失败只记录）；
//  2. 加载并重新保存当前对局与完整历史，强制把迁移结果持久化。
//     这一步失败说明主存储本身不可用，错误必须上抛；
//  3. 在干净的基线上取一份新备份（失败只记录）。
func MigrateAll(ctx context.Context) error {
	restored, err := Restore(ctx)
	if err != nil {
		fmt.Printf("警告: 从备份恢复失败（已忽略）: %v\n", err)
	} else if restored {
		fmt.Println("已从上一份备份恢复存储数据。")
	}

	// 核心迁移步骤：读出再写回，落盘数据被强制提升为当前模式
	current, err := game.GetCurrentGame(ctx)
	if err != nil {
		return fmt.Errorf("无法加载当前对局: %w", err)
	}
	if current != nil {
		if err := game.SaveCurrentGame(ctx, current); err != nil {
			return fmt.Errorf("无法重新保存当前对局: %w", err)
		}
	}
	history, err := game.GetGameHistory(ctx)
	if err != nil {
		return fmt.Errorf("无法加载对局历史: %w", err)
	}
	if err := game.SaveGameHistory(ctx, history); err != nil {
		return fmt.Errorf("无法重新保存对局历史: %w", err)
	}

	if err := CreateBackup(ctx); err != nil {
		fmt.Printf("警告: 启动快照失败（已忽略）: %v\n", err)
	}

	return nil
}
