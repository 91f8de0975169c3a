// Package credential はクレデンシャルの発行・失効ライフサイクルと
// QRトークン照会を提供する。
package credential

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/credman/internal/model"
	"github.com/hitoshi/credman/internal/repository"
)

// tokenByteLength はQRトークンの乱数バイト長。hex化すると32文字になる。
const tokenByteLength = 16

// NewToken は暗号論的乱数による照会トークンを生成する。
func NewToken() (string, error) {
	buf := make([]byte, tokenByteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate credential token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Issue は発行の純粋な状態遷移を適用する。
// 既存のACTIVEクレデンシャルを全てREVOKEDへ遷移させ（日付は変更しない）、
// 新しいACTIVEクレデンシャルを先頭に挿入した履歴を返す。
// 有効期限が発行日より前の場合はエラー。
func Issue(history []model.Credential, expirationDate, now time.Time) ([]model.Credential, *model.Credential, error) {
	issueDate := toCalendarDate(now)
	if toCalendarDate(expirationDate).Before(issueDate) {
		return nil, nil, model.NewInvalidExpirationError(
			expirationDate.Format("2006-01-02"))
	}

	token, err := NewToken()
	if err != nil {
		return nil, nil, err
	}

	updated := make([]model.Credential, 0, len(history)+1)
	fresh := model.Credential{
		ID:             uuid.NewString(),
		Token:          token,
		IssueDate:      issueDate,
		ExpirationDate: toCalendarDate(expirationDate),
		Status:         model.CredentialStatusActive,
	}
	updated = append(updated, fresh)
	for _, c := range history {
		if c.Status == model.CredentialStatusActive {
			c.Status = model.CredentialStatusRevoked
		}
		updated = append(updated, c)
	}
	// 返すポインタは履歴先頭の要素を指す。呼び出し側がMemberIDなどを
	// 書き込んだとき、履歴と新規クレデンシャルが食い違わないようにする。
	return updated, &updated[0], nil
}

// ActiveCredential は会員の唯一のACTIVEクレデンシャルを返す。存在しなければnil。
func ActiveCredential(member *model.Member) *model.Credential {
	for i := range member.Credentials {
		if member.Credentials[i].Status == model.CredentialStatusActive {
			return &member.Credentials[i]
		}
	}
	return nil
}

// toCalendarDate は時刻をUTCのカレンダー日付（深夜0時）に正規化する。
func toCalendarDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Service はクレデンシャル発行のユースケースを提供する。
type Service struct {
	members     repository.MemberRepository
	credentials repository.CredentialRepository
	logger      *slog.Logger
	now         func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	members repository.MemberRepository,
	credentials repository.CredentialRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		members:     members,
		credentials: credentials,
		logger:      logger,
		now:         time.Now,
	}
}

// IssueCredential は会員に新しいクレデンシャルを発行する。
// 既存のACTIVEの失効と新規挿入は単一トランザクションで永続化され、
// 部分適用は起こらない。更新後の会員を返す。
func (s *Service) IssueCredential(ctx context.Context, memberID string, expirationDate time.Time) (*model.Member, error) {
	member, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		s.logger.Error("failed to load member for issuance",
			slog.String("member_id", memberID), slog.String("error", err.Error()))
		return nil, model.NewPersistenceError()
	}
	if member == nil {
		return nil, model.NewMemberNotFoundError(memberID)
	}

	_, fresh, err := Issue(member.Credentials, expirationDate, s.now())
	if err != nil {
		return nil, err
	}
	fresh.MemberID = member.ID

	if err := s.credentials.ReplaceActive(ctx, member.ID, fresh); err != nil {
		s.logger.Error("failed to persist credential issuance",
			slog.String("member_id", memberID), slog.String("error", err.Error()))
		return nil, model.NewPersistenceError()
	}

	s.logger.Info("credential issued",
		slog.String("member_id", member.ID),
		slog.String("credential_id", fresh.ID),
		slog.Time("expiration_date", fresh.ExpirationDate))

	// 永続化後の正とする状態を返すため再取得する。
	refreshed, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		s.logger.Error("failed to reload member after issuance",
			slog.String("member_id", memberID), slog.String("error", err.Error()))
		return nil, model.NewPersistenceError()
	}
	if refreshed == nil {
		return nil, model.NewMemberNotFoundError(memberID)
	}
	return refreshed, nil
}
