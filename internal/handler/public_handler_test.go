package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/credman/internal/credential"
	"github.com/hitoshi/credman/internal/metrics"
	"github.com/hitoshi/credman/internal/model"
)

// mockResolver はResolverInterfaceのモック実装。
type mockResolver struct {
	resolveFn func(ctx context.Context, memberID, token string) (*credential.Resolution, error)
}

func (m *mockResolver) Resolve(ctx context.Context, memberID, token string) (*credential.Resolution, error) {
	return m.resolveFn(ctx, memberID, token)
}

func lookupRequest(id, token string) *http.Request {
	url := "/public/members/" + id
	if token != "" {
		url += "?token=" + token
	}
	return withChiURLParam(httptest.NewRequest(http.MethodGet, url, nil), "id", id)
}

// 成功照会が200で会員・クレデンシャル・表示ステータスを返すことを検証
func TestLookupMember_Valid(t *testing.T) {
	collector := &mockCollector{}
	resolver := &mockResolver{
		resolveFn: func(ctx context.Context, memberID, token string) (*credential.Resolution, error) {
			return &credential.Resolution{
				Member:        &model.Member{ID: memberID},
				Credential:    &model.Credential{Token: token},
				DisplayStatus: credential.DisplayValid,
			}, nil
		},
	}
	h := NewPublicHandler(resolver, collector)

	rec := httptest.NewRecorder()
	h.LookupMember(rec, lookupRequest("member-1", "token-a"))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	var res credential.Resolution
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.ErrorType != "" {
		t.Errorf("errorType = %q", res.ErrorType)
	}
	if res.DisplayStatus != credential.DisplayValid {
		t.Errorf("displayStatus = %q", res.DisplayStatus)
	}
	if len(collector.lookups) != 1 || collector.lookups[0] != metrics.LookupOutcomeValid {
		t.Errorf("lookup metrics = %v", collector.lookups)
	}
}

// 会員未検出が404かつ確定したエラー種別を返すことを検証
func TestLookupMember_NotFound(t *testing.T) {
	collector := &mockCollector{}
	resolver := &mockResolver{
		resolveFn: func(ctx context.Context, memberID, token string) (*credential.Resolution, error) {
			return &credential.Resolution{ErrorType: model.LookupErrorNotFound}, nil
		},
	}
	h := NewPublicHandler(resolver, collector)

	rec := httptest.NewRecorder()
	h.LookupMember(rec, lookupRequest("missing", "token-a"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	var res credential.Resolution
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.ErrorType != model.LookupErrorNotFound {
		t.Errorf("errorType = %q", res.ErrorType)
	}
	if len(collector.lookups) != 1 || collector.lookups[0] != metrics.LookupOutcomeNotFound {
		t.Errorf("lookup metrics = %v", collector.lookups)
	}
}

// QR不一致が200で分類結果として返ることを検証（ハードエラーではない）
func TestLookupMember_InvalidQR(t *testing.T) {
	collector := &mockCollector{}
	resolver := &mockResolver{
		resolveFn: func(ctx context.Context, memberID, token string) (*credential.Resolution, error) {
			return &credential.Resolution{
				Member:    &model.Member{ID: memberID},
				ErrorType: model.LookupErrorInvalidQR,
			}, nil
		},
	}
	h := NewPublicHandler(resolver, collector)

	rec := httptest.NewRecorder()
	h.LookupMember(rec, lookupRequest("member-1", "bad-token"))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	var res credential.Resolution
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.ErrorType != model.LookupErrorInvalidQR {
		t.Errorf("errorType = %q", res.ErrorType)
	}
	if res.Member == nil {
		t.Error("member should still be returned")
	}
	if len(collector.lookups) != 1 || collector.lookups[0] != metrics.LookupOutcomeInvalid {
		t.Errorf("lookup metrics = %v", collector.lookups)
	}
}
