package credential

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/credman/internal/model"
)

// mockMemberRepo はMemberRepositoryのモック実装。
type mockMemberRepo struct {
	findByIDFunc      func(ctx context.Context, id string) (*model.Member, error)
	listFunc          func(ctx context.Context) ([]*model.Member, error)
	createFunc        func(ctx context.Context, member *model.Member) error
	updateFunc        func(ctx context.Context, member *model.Member) (bool, error)
	deleteByIDFunc    func(ctx context.Context, id string) (bool, error)
	listPhotoURLsFunc func(ctx context.Context) ([]string, error)
}

func (m *mockMemberRepo) FindByID(ctx context.Context, id string) (*model.Member, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockMemberRepo) List(ctx context.Context) ([]*model.Member, error) {
	return m.listFunc(ctx)
}

func (m *mockMemberRepo) Create(ctx context.Context, member *model.Member) error {
	return m.createFunc(ctx, member)
}

func (m *mockMemberRepo) Update(ctx context.Context, member *model.Member) (bool, error) {
	return m.updateFunc(ctx, member)
}

func (m *mockMemberRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	return m.deleteByIDFunc(ctx, id)
}

func (m *mockMemberRepo) ListPhotoURLs(ctx context.Context) ([]string, error) {
	return m.listPhotoURLsFunc(ctx)
}

// mockCredentialRepo はCredentialRepositoryのモック実装。
type mockCredentialRepo struct {
	listByMemberIDFunc func(ctx context.Context, memberID string) ([]model.Credential, error)
	replaceActiveFunc  func(ctx context.Context, memberID string, cred *model.Credential) error
}

func (m *mockCredentialRepo) ListByMemberID(ctx context.Context, memberID string) ([]model.Credential, error) {
	return m.listByMemberIDFunc(ctx, memberID)
}

func (m *mockCredentialRepo) ReplaceActive(ctx context.Context, memberID string, cred *model.Credential) error {
	return m.replaceActiveFunc(ctx, memberID, cred)
}

func testLogger() *slog.Logger {
	return slog.Default()
}

// NewTokenが32文字のhex文字列を返し、呼び出しごとに異なることを検証
func TestNewToken(t *testing.T) {
	a, err := NewToken()
	if err != nil {
		t.Fatalf("NewToken returned error: %v", err)
	}
	if len(a) != 32 {
		t.Errorf("token length = %d, want 32", len(a))
	}
	for _, r := range a {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			t.Errorf("token contains non-hex character: %q", r)
		}
	}

	b, err := NewToken()
	if err != nil {
		t.Fatalf("NewToken returned error: %v", err)
	}
	if a == b {
		t.Error("two tokens should not collide")
	}
}

// Issueが既存ACTIVEを失効させ新しいACTIVEを先頭に挿入することを検証
func TestIssue_RevokesActiveAndPrepends(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)
	oldIssue := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	oldExp := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	history := []model.Credential{
		{ID: "old", Token: "token-old", IssueDate: oldIssue, ExpirationDate: oldExp, Status: model.CredentialStatusActive},
		{ID: "older", Token: "token-older", Status: model.CredentialStatusRevoked},
	}

	updated, fresh, err := Issue(history, now.AddDate(1, 0, 0), now)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if len(updated) != 3 {
		t.Fatalf("got %d credentials, want 3", len(updated))
	}
	if updated[0].ID != fresh.ID {
		t.Error("fresh credential should be first")
	}
	if fresh.Status != model.CredentialStatusActive {
		t.Errorf("fresh status = %s, want ACTIVE", fresh.Status)
	}
	if !fresh.IssueDate.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("issue date = %v, want calendar date of now", fresh.IssueDate)
	}

	// 旧ACTIVEはREVOKEDになるが日付は変更されない
	if updated[1].Status != model.CredentialStatusRevoked {
		t.Errorf("old credential status = %s, want REVOKED", updated[1].Status)
	}
	if !updated[1].IssueDate.Equal(oldIssue) || !updated[1].ExpirationDate.Equal(oldExp) {
		t.Error("revocation must not touch the old credential dates")
	}

	// もともとREVOKEDのものはそのまま
	if updated[2].Status != model.CredentialStatusRevoked {
		t.Errorf("historic credential status = %s", updated[2].Status)
	}

	// ACTIVEは常に高々1件
	active := 0
	for _, c := range updated {
		if c.Status == model.CredentialStatusActive {
			active++
		}
	}
	if active != 1 {
		t.Errorf("active count = %d, want 1", active)
	}
}

// Issueが発行日より前の有効期限を拒否することを検証
func TestIssue_RejectsPastExpiration(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	_, _, err := Issue(nil, now.AddDate(0, 0, -1), now)
	if err == nil {
		t.Fatal("expected error for expiration before issue date")
	}
	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("expected *model.APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeInvalidExpiration {
		t.Errorf("error code = %s", apiErr.Code)
	}
}

// Issueが発行日と同日の有効期限を許容することを検証
func TestIssue_AllowsSameDayExpiration(t *testing.T) {
	now := time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC)
	_, fresh, err := Issue(nil, now, now)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if !fresh.ExpirationDate.Equal(fresh.IssueDate) {
		t.Error("same-day expiration should equal issue date after normalization")
	}
}

// ActiveCredentialが唯一のACTIVEを返すことを検証
func TestActiveCredential(t *testing.T) {
	member := &model.Member{
		Credentials: []model.Credential{
			{ID: "new", Status: model.CredentialStatusActive},
			{ID: "old", Status: model.CredentialStatusRevoked},
		},
	}
	active := ActiveCredential(member)
	if active == nil || active.ID != "new" {
		t.Errorf("ActiveCredential = %+v, want id=new", active)
	}

	member.Credentials[0].Status = model.CredentialStatusRevoked
	if ActiveCredential(member) != nil {
		t.Error("expected nil when no ACTIVE credential exists")
	}
}

// IssueCredentialがReplaceActive経由で永続化することを検証
func TestServiceIssueCredential(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	member := &model.Member{
		ID:     "member-1",
		Status: model.MemberStatusActive,
		Credentials: []model.Credential{
			{ID: "old", Token: "token-old", Status: model.CredentialStatusActive},
		},
	}

	var replaced *model.Credential
	memberRepo := &mockMemberRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Member, error) {
			if id != "member-1" {
				return nil, nil
			}
			return member, nil
		},
	}
	credRepo := &mockCredentialRepo{
		replaceActiveFunc: func(ctx context.Context, memberID string, cred *model.Credential) error {
			if memberID != "member-1" {
				t.Errorf("ReplaceActive memberID = %s", memberID)
			}
			replaced = cred
			return nil
		},
	}

	svc := NewService(memberRepo, credRepo, testLogger())
	svc.now = func() time.Time { return now }

	_, err := svc.IssueCredential(context.Background(), "member-1", now.AddDate(1, 0, 0))
	if err != nil {
		t.Fatalf("IssueCredential returned error: %v", err)
	}
	if replaced == nil {
		t.Fatal("ReplaceActive was not called")
	}
	if replaced.MemberID != "member-1" {
		t.Errorf("persisted credential member id = %s", replaced.MemberID)
	}
	if replaced.Status != model.CredentialStatusActive {
		t.Errorf("persisted credential status = %s", replaced.Status)
	}
}

// IssueCredentialが会員未検出でMEMBER_NOT_FOUNDを返すことを検証
func TestServiceIssueCredential_MemberNotFound(t *testing.T) {
	memberRepo := &mockMemberRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Member, error) {
			return nil, nil
		},
	}
	svc := NewService(memberRepo, &mockCredentialRepo{}, testLogger())

	_, err := svc.IssueCredential(context.Background(), "missing", time.Now().AddDate(1, 0, 0))
	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("expected *model.APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeMemberNotFound {
		t.Errorf("error code = %s", apiErr.Code)
	}
}

// Issueが返すポインタが履歴先頭の要素を指すことを検証。
// 呼び出し側がMemberIDを書き込んだとき、履歴側にも反映されなければならない。
func TestIssue_FreshAliasesHistoryHead(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	updated, fresh, err := Issue(nil, now.AddDate(1, 0, 0), now)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	fresh.MemberID = "member-1"
	if updated[0].MemberID != "member-1" {
		t.Errorf("history head member id = %q, want member-1", updated[0].MemberID)
	}
	if fresh != &updated[0] {
		t.Error("fresh should point into the returned history")
	}
}

// 発行後の再取得エラーがPERSISTENCE_FAILEDに変換されることを検証
func TestServiceIssueCredential_RefetchErrorMapsToPersistence(t *testing.T) {
	member := &model.Member{ID: "member-1", Status: model.MemberStatusActive}

	calls := 0
	memberRepo := &mockMemberRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Member, error) {
			calls++
			if calls == 1 {
				return member, nil
			}
			return nil, errors.New("connection reset")
		},
	}
	credRepo := &mockCredentialRepo{
		replaceActiveFunc: func(ctx context.Context, memberID string, cred *model.Credential) error {
			return nil
		},
	}
	svc := NewService(memberRepo, credRepo, testLogger())

	_, err := svc.IssueCredential(context.Background(), "member-1", time.Now().AddDate(1, 0, 0))
	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("expected *model.APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodePersistence {
		t.Errorf("error code = %s, want %s", apiErr.Code, model.ErrCodePersistence)
	}
}

// 永続化と再取得の間に会員が消えた場合はMEMBER_NOT_FOUNDを返すことを検証
func TestServiceIssueCredential_MemberVanishedAfterPersist(t *testing.T) {
	member := &model.Member{ID: "member-1", Status: model.MemberStatusActive}

	calls := 0
	memberRepo := &mockMemberRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Member, error) {
			calls++
			if calls == 1 {
				return member, nil
			}
			return nil, nil
		},
	}
	credRepo := &mockCredentialRepo{
		replaceActiveFunc: func(ctx context.Context, memberID string, cred *model.Credential) error {
			return nil
		},
	}
	svc := NewService(memberRepo, credRepo, testLogger())

	result, err := svc.IssueCredential(context.Background(), "member-1", time.Now().AddDate(1, 0, 0))
	if result != nil {
		t.Errorf("result = %+v, want nil", result)
	}
	apiErr, ok := err.(*model.APIError)
	if !ok {
		t.Fatalf("expected *model.APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeMemberNotFound {
		t.Errorf("error code = %s, want %s", apiErr.Code, model.ErrCodeMemberNotFound)
	}
}
