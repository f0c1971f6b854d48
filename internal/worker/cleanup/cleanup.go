// Package cleanup は期限切れセッションの自動削除ジョブを提供する。
// expires_atを過ぎたセッション行を定期バッチで削除する。
// 検証時の遅延削除を補完するもので、削除漏れがあっても
// 検証側が期限切れトークンを拒否するため、安全性には影響しない。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SessionSweeper は期限切れセッションの一括削除インターフェース。
// auth.Serviceが満たす。
type SessionSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// SweepMetrics は削除件数の記録インターフェース。
type SweepMetrics interface {
	RecordSessionsSwept(count int64)
}

// SweepJob は期限切れセッションの自動削除ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type SweepJob struct {
	sweeper SessionSweeper
	metrics SweepMetrics
	logger  *slog.Logger
}

// NewSweepJob は新しいSweepJobを生成する。
func NewSweepJob(sweeper SessionSweeper, metrics SweepMetrics, logger *slog.Logger) *SweepJob {
	return &SweepJob{
		sweeper: sweeper,
		metrics: metrics,
		logger:  logger,
	}
}

// Run は期限切れセッションを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *SweepJob) Run(ctx context.Context) error {
	start := time.Now()

	deletedCount, err := j.sweeper.SweepExpired(ctx)
	if err != nil {
		j.logger.Error("セッション掃除ジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("セッション掃除の実行に失敗: %w", err)
	}

	if j.metrics != nil {
		j.metrics.RecordSessionsSwept(deletedCount)
	}

	duration := time.Since(start)
	j.logger.Info("セッション掃除ジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// Start は起動直後に1回実行し、以後はinterval間隔でRunを繰り返す。
// ctxのキャンセルで停止する。ブロッキングするため通常はgoroutineで起動する。
func (j *SweepJob) Start(ctx context.Context, interval time.Duration) {
	if err := j.Run(ctx); err != nil {
		j.logger.Error("sweep job failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("sweep job failed", slog.String("error", err.Error()))
			}
		}
	}
}
