// Package member は会員管理のユースケースを提供する。
//
// 会員の作成・更新・削除と、作成時の初回クレデンシャル発行を担う。
// 自由入力項目はサニタイズし、data URL形式の写真はファイル保存に変換
// してから永続化する。
package member

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/credman/internal/credential"
	"github.com/hitoshi/credman/internal/model"
	"github.com/hitoshi/credman/internal/repository"
	"github.com/hitoshi/credman/internal/security"
	"github.com/hitoshi/credman/internal/storage"
)

// defaultCredentialValidity は作成時に発行する初回クレデンシャルの有効期間。
const defaultCredentialValidity = 365 * 24 * time.Hour

// Service は会員管理のユースケースを提供する。
type Service struct {
	members   repository.MemberRepository
	photos    *storage.PhotoStore
	sanitizer security.FieldSanitizerService
	logger    *slog.Logger
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	members repository.MemberRepository,
	photos *storage.PhotoStore,
	sanitizer security.FieldSanitizerService,
	logger *slog.Logger,
) *Service {
	return &Service{
		members:   members,
		photos:    photos,
		sanitizer: sanitizer,
		logger:    logger,
		now:       time.Now,
	}
}

// GetMember は会員をクレデンシャル履歴付きで取得する。
func (s *Service) GetMember(ctx context.Context, id string) (*model.Member, error) {
	member, err := s.members.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to load member",
			slog.String("member_id", id), slog.String("error", err.Error()))
		return nil, model.NewPersistenceError()
	}
	if member == nil {
		return nil, model.NewMemberNotFoundError(id)
	}
	return member, nil
}

// ListMembers は全会員を取得する。
func (s *Service) ListMembers(ctx context.Context) ([]*model.Member, error) {
	members, err := s.members.List(ctx)
	if err != nil {
		s.logger.Error("failed to list members", slog.String("error", err.Error()))
		return nil, model.NewPersistenceError()
	}
	return members, nil
}

// CreateMember は会員を作成し、初回クレデンシャルを同時に発行する。
// joinDateとstatusは省略時に補完される。会員とクレデンシャルは
// 同一トランザクションで永続化される。
func (s *Service) CreateMember(ctx context.Context, input *model.Member) (*model.Member, error) {
	s.sanitizeProfile(input)
	if err := validateRequired(input); err != nil {
		return nil, err
	}

	now := s.now()
	if input.ID == "" {
		input.ID = uuid.NewString()
	}
	if input.JoinDate.IsZero() {
		input.JoinDate = calendarDate(now)
	}
	if input.Status == "" {
		input.Status = model.MemberStatusActive
	}

	if err := s.savePhoto(input); err != nil {
		return nil, err
	}

	// 初回クレデンシャル。既定の有効期限は1年後。
	creds, fresh, err := credential.Issue(nil, now.Add(defaultCredentialValidity), now)
	if err != nil {
		return nil, err
	}
	fresh.MemberID = input.ID
	input.Credentials = creds

	if err := s.members.Create(ctx, input); err != nil {
		s.logger.Error("failed to create member",
			slog.String("member_id", input.ID), slog.String("error", err.Error()))
		return nil, model.NewPersistenceError()
	}

	s.logger.Info("member created",
		slog.String("member_id", input.ID),
		slog.String("credential_id", fresh.ID))

	return s.GetMember(ctx, input.ID)
}

// UpdateMember は会員情報とクレデンシャル集合を丸ごと置き換える。
// クレデンシャルの発行操作はIssueCredentialが担うため、ここでは
// リクエストに含まれる集合をそのまま反映する。
func (s *Service) UpdateMember(ctx context.Context, id string, input *model.Member) (*model.Member, error) {
	s.sanitizeProfile(input)
	if err := validateRequired(input); err != nil {
		return nil, err
	}

	input.ID = id
	if input.Status == "" {
		input.Status = model.MemberStatusActive
	}
	for i := range input.Credentials {
		input.Credentials[i].MemberID = id
	}

	if err := s.savePhoto(input); err != nil {
		return nil, err
	}

	found, err := s.members.Update(ctx, input)
	if err != nil {
		s.logger.Error("failed to update member",
			slog.String("member_id", id), slog.String("error", err.Error()))
		return nil, model.NewPersistenceError()
	}
	if !found {
		return nil, model.NewMemberNotFoundError(id)
	}

	s.logger.Info("member updated", slog.String("member_id", id))
	return s.GetMember(ctx, id)
}

// DeleteMember は会員を削除する。クレデンシャルはカスケード削除される。
func (s *Service) DeleteMember(ctx context.Context, id string) error {
	deleted, err := s.members.DeleteByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to delete member",
			slog.String("member_id", id), slog.String("error", err.Error()))
		return model.NewPersistenceError()
	}
	if !deleted {
		return model.NewMemberNotFoundError(id)
	}

	s.logger.Info("member deleted", slog.String("member_id", id))
	return nil
}

// sanitizeProfile は自由入力項目からHTMLを除去する。
func (s *Service) sanitizeProfile(m *model.Member) {
	s.sanitizer.SanitizeMemberFields(
		&m.FirstName, &m.LastName, &m.Role,
		&m.BloodType, &m.CURP, &m.EmergencyContact,
		&m.Street, &m.HouseNumber, &m.Colony, &m.City, &m.PostalCode,
	)
}

// savePhoto はdata URL形式の写真をファイルに保存し、参照パスに置き換える。
// 既に参照パスや外部URLの場合は変更しない。
func (s *Service) savePhoto(m *model.Member) error {
	if !storage.IsDataURL(m.PhotoURL) {
		return nil
	}
	ref, err := s.photos.SaveDataURL(m.ID, m.PhotoURL)
	if err != nil {
		s.logger.Error("failed to save member photo",
			slog.String("member_id", m.ID), slog.String("error", err.Error()))
		return model.NewPersistenceError()
	}
	m.PhotoURL = ref
	return nil
}

// validateRequired は必須項目（氏名とcargo）の存在を検証する。
func validateRequired(m *model.Member) error {
	switch {
	case m.FirstName == "":
		return model.NewValidationError("firstName")
	case m.LastName == "":
		return model.NewValidationError("lastName")
	case m.Role == "":
		return model.NewValidationError("role")
	}
	return nil
}

// calendarDate は時刻をUTCのカレンダー日付に正規化する。
func calendarDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
