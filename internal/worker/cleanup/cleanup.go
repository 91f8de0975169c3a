// Package cleanup はアップロード写真の自動削除ジョブを提供する。
// どの会員からも参照されておらず、保持期間（デフォルト30日）を超過した
// アップロードファイルを日次バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PhotoLister は全会員の写真参照を列挙するインターフェース。
type PhotoLister interface {
	ListPhotoURLs(ctx context.Context) ([]string, error)
}

// CleanupJob は未参照アップロードファイルの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	photos        PhotoLister
	uploadDir     string
	logger        *slog.Logger
	RetentionDays int // 未参照ファイルの保持日数（デフォルト: 30）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は30日。
func NewCleanupJob(photos PhotoLister, uploadDir string, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		photos:        photos,
		uploadDir:     uploadDir,
		logger:        logger,
		RetentionDays: 30,
	}
}

// Start は24時間間隔のティッカーでジョブを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("写真クリーンアップジョブを開始しました",
		slog.Duration("interval", interval),
		slog.Int("retention_days", j.RetentionDays),
	)

	// 起動直後に1回実行
	if err := j.Run(ctx); err != nil {
		j.logger.Error("写真クリーンアップの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("写真クリーンアップジョブを停止しました")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("写真クリーンアップの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// Run は未参照かつ保持期間超過のアップロードファイルを削除する。
// 会員のphoto_urlから参照されているファイルは更新日時に関係なく保持する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	urls, err := j.photos.ListPhotoURLs(ctx)
	if err != nil {
		return fmt.Errorf("写真参照一覧の取得に失敗: %w", err)
	}

	referenced := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if name, ok := strings.CutPrefix(u, "/uploads/"); ok && name != "" {
			referenced[name] = struct{}{}
		}
	}

	entries, err := os.ReadDir(j.uploadDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("アップロードディレクトリの読み取りに失敗: %w", err)
	}

	cutoff := start.AddDate(0, 0, -j.RetentionDays)
	deletedCount := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := referenced[entry.Name()]; ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(j.uploadDir, entry.Name())); err != nil {
			j.logger.Warn("アップロードファイルの削除に失敗しました",
				slog.String("file", entry.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		deletedCount++
	}

	duration := time.Since(start)
	j.logger.Info("写真クリーンアップジョブが完了しました",
		slog.Int("deleted_count", deletedCount),
		slog.Int("referenced_count", len(referenced)),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
