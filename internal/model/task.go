package model

import "time"

// Task はユーザーが所有するタスクを表す。
// タスクの取得・更新・削除は必ず所有者チェックを通過したパスでのみ行う。
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
