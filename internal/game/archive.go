package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/pinochle-score-sheet-backend/internal/platform/database"
	"github.com/SlpAus/pinochle-score-sheet-backend/internal/platform/metadata"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLite镜像是Redis热数据之外的第二份持久化副本。
// Redis重启或被清空后，startup.RebuildCache 会用镜像重新灌入各个槽位。

// ArchivedGame 是已完成对局在SQLite中的镜像行。
type ArchivedGame struct {
	// GameID 是对局的业务主键
	GameID string `gorm:"primarykey;type:varchar(36)"`

	// Payload 是迁移后完整对局的JSON
	Payload string `gorm:"type:text"`

	// Version 是写入时的模式版本
	Version int

	// GameCreatedAt 是对局自身的创建时间，恢复时据此保持历史顺序
	GameCreatedAt time.Time `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CurrentGameMirror 是进行中对局的单行镜像，slot恒为1。
// Payload为空表示快照时没有进行中的对局。
type CurrentGameMirror struct {
	Slot      int    `gorm:"primarykey"`
	Payload   string `gorm:"type:text"`
	Version   int
	UpdatedAt time.Time
}

const currentGameMirrorSlot = 1

// MirrorState 将当前对局与完整历史写入SQLite镜像。
// 镜像是整体替换语义：历史中不存在的行会被删除，与主存储保持一致。
// SQLite busy类错误会做有限次重试。
func MirrorState(current *Game, history []Game) error {
	if database.DB == nil {
		// 未初始化SQLite（内存驱动的纯调试运行），跳过镜像
		return nil
	}

	rows := make([]ArchivedGame, 0, len(history))
	ids := make([]string, 0, len(history))
	for i := range history {
		payload, err := json.Marshal(&history[i])
		if err != nil {
			return fmt.Errorf("无法序列化历史对局 %s: %w", history[i].ID, err)
		}
		rows = append(rows, ArchivedGame{
			GameID:        history[i].ID,
			Payload:       string(payload),
			Version:       history[i].Version,
			GameCreatedAt: history[i].CreatedAt,
		})
		ids = append(ids, history[i].ID)
	}

	mirror := CurrentGameMirror{Slot: currentGameMirrorSlot}
	if current != nil {
		payload, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("无法序列化当前对局 %s: %w", current.ID, err)
		}
		mirror.Payload = string(payload)
		mirror.Version = current.Version
	}

	const maxRetry = 3
	const delay = 50 * time.Millisecond
	var err error
	for i := 0; i < maxRetry; i++ {
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			// a. 整体替换历史镜像
			if len(ids) > 0 {
				if err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "game_id"}},
					DoUpdates: clause.AssignmentColumns([]string{"payload", "version", "game_created_at", "updated_at"}),
				}).Create(&rows).Error; err != nil {
					return fmt.Errorf("批量写入历史镜像失败: %w", err)
				}
				if err := tx.Where("game_id NOT IN ?", ids).Delete(&ArchivedGame{}).Error; err != nil {
					return fmt.Errorf("清理历史镜像失败: %w", err)
				}
			} else {
				if err := tx.Where("1 = 1").Delete(&ArchivedGame{}).Error; err != nil {
					return fmt.Errorf("清空历史镜像失败: %w", err)
				}
			}

			// b. 替换当前对局镜像
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "slot"}},
				DoUpdates: clause.AssignmentColumns([]string{"payload", "version", "updated_at"}),
			}).Create(&mirror).Error; err != nil {
				return fmt.Errorf("写入当前对局镜像失败: %w", err)
			}

			// c. 记录镜像对应的模式版本
			if err := metadata.SetMirrorSchemaVersion(tx, CurrentSchemaVersion); err != nil {
				return fmt.Errorf("更新元数据 MirrorSchemaVersion 失败: %w", err)
			}
			return nil
		})

		if err == nil || !database.IsRetryableError(err) {
			break
		}
		time.Sleep(delay)
	}
	return err
}

// LoadMirror 从SQLite镜像读出当前对局与历史的边界记录。
// 返回的记录尚未迁移，调用方通过仓库写回时会统一校验并迁移。
func LoadMirror() (*GameRecord, []GameRecord, error) {
	if database.DB == nil {
		return nil, nil, fmt.Errorf("SQLite未初始化，无法读取镜像")
	}

	var mirror CurrentGameMirror
	var current *GameRecord
	err := database.DB.Where("slot = ?", currentGameMirrorSlot).First(&mirror).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("无法读取当前对局镜像: %w", err)
	}
	if err == nil && mirror.Payload != "" {
		var rec GameRecord
		if err := json.Unmarshal([]byte(mirror.Payload), &rec); err != nil {
			return nil, nil, fmt.Errorf("当前对局镜像数据损坏: %w", err)
		}
		current = &rec
	}

	var rows []ArchivedGame
	if err := database.DB.Order("game_created_at asc").Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("无法读取历史镜像: %w", err)
	}
	history := make([]GameRecord, 0, len(rows))
	for _, row := range rows {
		var rec GameRecord
		if err := json.Unmarshal([]byte(row.Payload), &rec); err != nil {
			return nil, nil, fmt.Errorf("历史镜像 %s 数据损坏: %w", row.GameID, err)
		}
		history = append(history, rec)
	}

	return current, history, nil
}
