package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/credman/internal/metrics"
	"github.com/hitoshi/credman/internal/middleware"
	"github.com/hitoshi/credman/internal/model"
)

// MemberServiceInterface は会員ハンドラーが必要とするサービスインターフェース。
type MemberServiceInterface interface {
	GetMember(ctx context.Context, id string) (*model.Member, error)
	ListMembers(ctx context.Context) ([]*model.Member, error)
	CreateMember(ctx context.Context, input *model.Member) (*model.Member, error)
	UpdateMember(ctx context.Context, id string, input *model.Member) (*model.Member, error)
	DeleteMember(ctx context.Context, id string) error
}

// CredentialIssuerInterface はクレデンシャル発行のインターフェース。
type CredentialIssuerInterface interface {
	IssueCredential(ctx context.Context, memberID string, expirationDate time.Time) (*model.Member, error)
}

// MemberHandler は会員管理のHTTPハンドラー。
type MemberHandler struct {
	service   MemberServiceInterface
	issuer    CredentialIssuerInterface
	collector metrics.MetricsCollector
}

// NewMemberHandler はMemberHandlerを生成する。
func NewMemberHandler(
	service MemberServiceInterface,
	issuer CredentialIssuerInterface,
	collector metrics.MetricsCollector,
) *MemberHandler {
	return &MemberHandler{
		service:   service,
		issuer:    issuer,
		collector: collector,
	}
}

// ListMembers は全会員一覧を返す。
// GET /api/members
func (h *MemberHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListMembers(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}
	if members == nil {
		members = []*model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

// GetMember は会員詳細を返す。
// GET /api/members/{id}
func (h *MemberHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	member, err := h.service.GetMember(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

// CreateMember は会員を作成する。初回クレデンシャルも同時に発行される。
// POST /api/members
func (h *MemberHandler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var input model.Member
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteAPIError(w, model.NewInvalidRequestError())
		return
	}

	created, err := h.service.CreateMember(r.Context(), &input)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	h.collector.RecordIssuance()
	writeJSON(w, http.StatusCreated, created)
}

// UpdateMember は会員情報を置き換える。
// PUT /api/members/{id}
func (h *MemberHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	var input model.Member
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteAPIError(w, model.NewInvalidRequestError())
		return
	}

	updated, err := h.service.UpdateMember(r.Context(), chi.URLParam(r, "id"), &input)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteMember は会員を削除する。
// DELETE /api/members/{id}
func (h *MemberHandler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteMember(r.Context(), chi.URLParam(r, "id")); err != nil {
		middleware.WriteAPIError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// issueCredentialRequest はクレデンシャル発行リクエストのボディ。
type issueCredentialRequest struct {
	ExpirationDate string `json:"expirationDate"`
}

// IssueCredential は会員に新しいクレデンシャルを発行する。
// 既存のACTIVEクレデンシャルは失効する。
// POST /api/members/{id}/credentials
func (h *MemberHandler) IssueCredential(w http.ResponseWriter, r *http.Request) {
	var req issueCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteAPIError(w, model.NewInvalidRequestError())
		return
	}
	if req.ExpirationDate == "" {
		middleware.WriteAPIError(w, model.NewInvalidExpirationError("fecha vacía"))
		return
	}
	expiration, err := time.Parse("2006-01-02", req.ExpirationDate)
	if err != nil {
		middleware.WriteAPIError(w, model.NewInvalidExpirationError(req.ExpirationDate))
		return
	}

	member, err := h.issuer.IssueCredential(r.Context(), chi.URLParam(r, "id"), expiration)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	h.collector.RecordIssuance()
	writeJSON(w, http.StatusCreated, member)
}
