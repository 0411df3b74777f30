package game

import (
	"fmt"

	"github.com/SlpAus/pinochle-score-sheet-backend/internal/platform/database"
)

// PrimeModule 负责初始化game模块：迁移镜像表结构并注入仓库的存储介质。
func PrimeModule(kv KV) error {
	if err := migrateDB(); err != nil {
		return err
	}
	InitializeRepository(kv)
	return nil
}

// migrateDB 负责自动迁移SQLite镜像的表结构
func migrateDB() error {
	if database.DB == nil {
		return nil
	}
	if err := database.DB.AutoMigrate(&ArchivedGame{}, &CurrentGameMirror{}); err != nil {
		return fmt.Errorf("无法迁移game镜像表: %w", err)
	}
	fmt.Println("Game数据库表迁移成功。")
	return nil
}
