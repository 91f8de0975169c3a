package credential

import (
	"context"
	"testing"
	"time"

	"github.com/hitoshi/credman/internal/model"
)

func resolverWithMember(member *model.Member) *Resolver {
	repo := &mockMemberRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Member, error) {
			if member != nil && member.ID == id {
				return member, nil
			}
			return nil, nil
		},
	}
	r := NewResolver(repo, testLogger())
	r.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

// 会員が存在しない場合はNOT_FOUNDに分類されることを検証
func TestResolve_MemberNotFound(t *testing.T) {
	r := resolverWithMember(nil)

	res, err := r.Resolve(context.Background(), "missing", "any-token")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.ErrorType != model.LookupErrorNotFound {
		t.Errorf("errorType = %q, want %q", res.ErrorType, model.LookupErrorNotFound)
	}
	if res.Member != nil || res.Credential != nil {
		t.Error("member and credential must be nil on NOT_FOUND")
	}
}

// トークン欠落はINVALID_QRに分類されることを検証
func TestResolve_MissingToken(t *testing.T) {
	member := &model.Member{ID: "member-1", Status: model.MemberStatusActive}
	r := resolverWithMember(member)

	res, err := r.Resolve(context.Background(), "member-1", "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.ErrorType != model.LookupErrorInvalidQR {
		t.Errorf("errorType = %q, want %q", res.ErrorType, model.LookupErrorInvalidQR)
	}
	if res.Member == nil {
		t.Error("member should be returned for invalid QR")
	}
	if res.Credential != nil {
		t.Error("credential must be nil for missing token")
	}
}

// 履歴に一致しないトークンはINVALID_QRに分類されることを検証。
// 失効済みトークンと未発行トークンの応答は区別できない。
func TestResolve_UnmatchedToken(t *testing.T) {
	member := &model.Member{
		ID:     "member-1",
		Status: model.MemberStatusActive,
		Credentials: []model.Credential{
			{Token: "token-current", Status: model.CredentialStatusActive},
		},
	}
	r := resolverWithMember(member)

	res, err := r.Resolve(context.Background(), "member-1", "token-unknown")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.ErrorType != model.LookupErrorInvalidQR {
		t.Errorf("errorType = %q, want %q", res.ErrorType, model.LookupErrorInvalidQR)
	}
}

// 現行トークンの照合成功と表示ステータスを検証
func TestResolve_MatchesActiveToken(t *testing.T) {
	future := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	member := &model.Member{
		ID:     "member-1",
		Status: model.MemberStatusActive,
		Credentials: []model.Credential{
			{ID: "new", Token: "token-new", ExpirationDate: future, Status: model.CredentialStatusActive},
			{ID: "old", Token: "token-old", ExpirationDate: future, Status: model.CredentialStatusRevoked},
		},
	}
	r := resolverWithMember(member)

	res, err := r.Resolve(context.Background(), "member-1", "token-new")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.ErrorType != "" {
		t.Errorf("errorType = %q, want empty", res.ErrorType)
	}
	if res.Credential == nil || res.Credential.ID != "new" {
		t.Fatalf("matched credential = %+v, want id=new", res.Credential)
	}
	if res.DisplayStatus != DisplayValid {
		t.Errorf("displayStatus = %q, want %q", res.DisplayStatus, DisplayValid)
	}
}

// 失効済みトークンでも照合は成功し、REEMPLAZADAと表示されることを検証
func TestResolve_MatchesRevokedToken(t *testing.T) {
	future := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	member := &model.Member{
		ID:     "member-1",
		Status: model.MemberStatusActive,
		Credentials: []model.Credential{
			{ID: "new", Token: "token-new", ExpirationDate: future, Status: model.CredentialStatusActive},
			{ID: "old", Token: "token-old", ExpirationDate: future, Status: model.CredentialStatusRevoked},
		},
	}
	r := resolverWithMember(member)

	res, err := r.Resolve(context.Background(), "member-1", "token-old")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.ErrorType != "" {
		t.Errorf("errorType = %q, want empty", res.ErrorType)
	}
	if res.Credential == nil || res.Credential.ID != "old" {
		t.Fatalf("matched credential = %+v, want id=old", res.Credential)
	}
	if res.DisplayStatus != DisplayReplaced {
		t.Errorf("displayStatus = %q, want %q", res.DisplayStatus, DisplayReplaced)
	}
}

// 非在籍会員は有効なトークンでもMIEMBRO INACTIVOと表示されることを検証
func TestResolve_InactiveMember(t *testing.T) {
	future := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	member := &model.Member{
		ID:     "member-1",
		Status: model.MemberStatusInactive,
		Credentials: []model.Credential{
			{ID: "new", Token: "token-new", ExpirationDate: future, Status: model.CredentialStatusActive},
		},
	}
	r := resolverWithMember(member)

	res, err := r.Resolve(context.Background(), "member-1", "token-new")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.DisplayStatus != DisplayMemberInactive {
		t.Errorf("displayStatus = %q, want %q", res.DisplayStatus, DisplayMemberInactive)
	}
}
