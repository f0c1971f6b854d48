package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/taskdeck/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
// 単一レコード操作はすべてWHERE句でIDと所有者IDの両方を条件にする。
// 所有者チェックをアプリ層の「取得してから比較」で行うと、
// 並行する削除とレースし、他ユーザーのレコードの存在が漏れるため。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

const taskColumns = `id, user_id, title, description, completed, created_at, updated_at`

// Create はタスクを作成する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, title, description, completed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		task.ID, task.UserID, task.Title, task.Description, task.Completed,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// ListByUserID は指定ユーザーのタスク一覧をcreated_at昇順で返す。
func (r *PostgresTaskRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*model.Task{}
	for rows.Next() {
		task := &model.Task{}
		if err := scanTask(rows, task); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// FindByIDAndUserID はIDと所有者IDの両方に一致するタスクを取得する。
// 一致しない場合はnilを返す。
func (r *PostgresTaskRepo) FindByIDAndUserID(ctx context.Context, id, userID string) (*model.Task, error) {
	return r.queryOne(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
}

// Update はIDと所有者IDの両方に一致するタスクを更新し、更新後の行を返す。
// 一致しない場合はnilを返す（更新は行われない）。
func (r *PostgresTaskRepo) Update(ctx context.Context, task *model.Task) (*model.Task, error) {
	return r.queryOne(ctx,
		`UPDATE tasks SET title = $3, description = $4, completed = $5, updated_at = $6
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+taskColumns,
		task.ID, task.UserID, task.Title, task.Description, task.Completed, time.Now(),
	)
}

// ToggleCompleted はIDと所有者IDの両方に一致するタスクのcompletedを
// 単一クエリで反転し、更新後の行を返す。一致しない場合はnilを返す。
func (r *PostgresTaskRepo) ToggleCompleted(ctx context.Context, id, userID string) (*model.Task, error) {
	return r.queryOne(ctx,
		`UPDATE tasks SET completed = NOT completed, updated_at = $3
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+taskColumns,
		id, userID, time.Now(),
	)
}

// Delete はIDと所有者IDの両方に一致するタスクを削除し、削除した行を返す。
// 一致しない場合はnilを返す。
func (r *PostgresTaskRepo) Delete(ctx context.Context, id, userID string) (*model.Task, error) {
	return r.queryOne(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2 RETURNING `+taskColumns,
		id, userID,
	)
}

// DeleteByUserID は指定ユーザーの全タスクを削除する。
func (r *PostgresTaskRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user tasks: %w", err)
	}
	return nil
}

func (r *PostgresTaskRepo) queryOne(ctx context.Context, query string, args ...interface{}) (*model.Task, error) {
	task := &model.Task{}
	err := scanTask(r.db.QueryRowContext(ctx, query, args...), task)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}

	return task, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通部分。
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner, task *model.Task) error {
	return row.Scan(
		&task.ID, &task.UserID, &task.Title, &task.Description,
		&task.Completed, &task.CreatedAt, &task.UpdatedAt,
	)
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
