package database

import (
	"fmt"
	"sync"
)

// statusManager 以读写锁保护Redis的健康标记和最近一次确认的run_id。
// 备份调度器据此决定是否跳过快照，健康检查器据此识别Redis重启。
type statusManager struct {
	mu             sync.RWMutex
	isRedisHealthy bool
	lastKnownRunID string
}

// 进程内唯一的状态实例，启动时先假定Redis可用
var globalStatus = &statusManager{
	isRedisHealthy: true,
}

// IsRedisHealthy 报告Redis当前是否被认为可用。
func IsRedisHealthy() bool {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return globalStatus.isRedisHealthy
}

// SetInitialRunID 记录启动时获取到的run_id，作为之后比对的基准。
func SetInitialRunID(runID string) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.lastKnownRunID = runID
}

// UpdateStatus 更新健康标记；run_id只在Redis可用时才会被采纳。
func UpdateStatus(isHealthy bool, newRunID string) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()

	// 状态翻转时才输出日志，避免每个检查周期都刷一行
	if globalStatus.isRedisHealthy != isHealthy {
		globalStatus.isRedisHealthy = isHealthy
		if isHealthy {
			fmt.Println("健康检查: Redis已恢复 [可用] 状态")
		} else {
			fmt.Println("健康检查警告: Redis进入 [不可用] 状态")
		}
	}

	if isHealthy {
		globalStatus.lastKnownRunID = newRunID
	}
}

// GetLastKnownRunID 返回最近一次确认的run_id。
func GetLastKnownRunID() string {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return globalStatus.lastKnownRunID
}
