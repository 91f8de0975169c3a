package cleanup

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// mockPhotoLister はPhotoListerのモック実装。
type mockPhotoLister struct {
	urls []string
	err  error
}

func (m *mockPhotoLister) ListPhotoURLs(ctx context.Context) ([]string, error) {
	return m.urls, m.err
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// writeAgedFile はテスト用ファイルを作成し更新日時をdaysOld日前に設定するヘルパー。
func writeAgedFile(t *testing.T, dir, name string, daysOld int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	modTime := time.Now().AddDate(0, 0, -daysOld)
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("failed to set mtime: %v", err)
	}
	return path
}

func TestNewCleanupJob_SetsRetentionDays(t *testing.T) {
	var buf bytes.Buffer
	job := NewCleanupJob(&mockPhotoLister{}, t.TempDir(), newTestLogger(&buf))

	if job.RetentionDays != 30 {
		t.Errorf("RetentionDays = %d, want 30", job.RetentionDays)
	}
}

// 未参照かつ保持期間超過のファイルだけが削除されることを検証
func TestRun_DeletesOnlyUnreferencedOldFiles(t *testing.T) {
	var buf bytes.Buffer
	dir := t.TempDir()

	oldReferenced := writeAgedFile(t, dir, "member-1-100.jpg", 90)
	oldOrphan := writeAgedFile(t, dir, "member-2-200.png", 90)
	freshOrphan := writeAgedFile(t, dir, "member-3-300.png", 1)

	lister := &mockPhotoLister{urls: []string{
		"/uploads/member-1-100.jpg",
		"https://example.com/external.jpg", // 外部URLは無視される
		"",
	}}
	job := NewCleanupJob(lister, dir, newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if _, err := os.Stat(oldReferenced); err != nil {
		t.Error("参照中のファイルは保持されるべき")
	}
	if _, err := os.Stat(oldOrphan); !os.IsNotExist(err) {
		t.Error("未参照の古いファイルは削除されるべき")
	}
	if _, err := os.Stat(freshOrphan); err != nil {
		t.Error("保持期間内のファイルは削除されるべきではない")
	}
}

// 削除対象がない場合でもエラーにならないこと（冪等性）を検証
func TestRun_EmptyDirIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	job := NewCleanupJob(&mockPhotoLister{}, t.TempDir(), newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
}

// アップロードディレクトリが存在しない場合はエラーとせずスキップすることを検証
func TestRun_MissingDirIsNotAnError(t *testing.T) {
	var buf bytes.Buffer
	job := NewCleanupJob(&mockPhotoLister{}, filepath.Join(t.TempDir(), "absent"), newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

// 写真参照一覧の取得失敗時はファイルを削除しないことを検証
func TestRun_ListerFailureAbortsDeletion(t *testing.T) {
	var buf bytes.Buffer
	dir := t.TempDir()
	orphan := writeAgedFile(t, dir, "member-9-900.png", 90)

	lister := &mockPhotoLister{err: context.DeadlineExceeded}
	job := NewCleanupJob(lister, dir, newTestLogger(&buf))

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("Run() はエラーを返すべき")
	}
	if _, err := os.Stat(orphan); err != nil {
		t.Error("参照一覧が取れない場合はファイルを削除してはならない")
	}
}

// コンテキストキャンセルでStartが停止することを検証
func TestStart_StopsOnContextCancel(t *testing.T) {
	var buf bytes.Buffer
	job := NewCleanupJob(&mockPhotoLister{}, t.TempDir(), newTestLogger(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start はコンテキストキャンセルで停止すべき")
	}
}
