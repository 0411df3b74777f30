package game

import "fmt"

// 存储边界上的三类错误。校验错误与数据损坏错误永远向调用方暴露，
// 不允许在存储层被吞掉。

// ValidationError 表示一条记录在结构上不合法（缺少队伍、回合格式错误等）。
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("记录校验失败: %s: %s", e.Field, e.Reason)
}

// CorruptDataError 表示槽位中存储的字节无法解析为预期的JSON结构。
// 它与形状不合法(ValidationError)是两类不同的问题。
type CorruptDataError struct {
	Key string
	Err error
}

func (e *CorruptDataError) Error() string {
	return fmt.Sprintf("键 %s 中的数据已损坏: %v", e.Key, e.Err)
}

func (e *CorruptDataError) Unwrap() error { return e.Err }

// StorageError 表示底层存储介质的读写失败。
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("存储操作 %s (键 %s) 失败: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
