package credential

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/credman/internal/model"
	"github.com/hitoshi/credman/internal/repository"
)

// Resolution は公開QR照会の分類結果を表す。
// 必ず3状態のいずれかに確定する: 会員未検出 / QR不一致 / 成功。
type Resolution struct {
	// Member は照会対象の会員。NOT_FOUNDの場合はnil。
	Member *model.Member `json:"member"`
	// Credential はトークンに一致したクレデンシャル。不一致の場合はnil。
	Credential *model.Credential `json:"credential"`
	// ErrorType はNOT_FOUNDまたはINVALID_QR。成功時は空。
	ErrorType string `json:"errorType,omitempty"`
	// DisplayStatus は成功時の表示ステータス（VIGENTE等）。
	DisplayStatus string `json:"displayStatus,omitempty"`
}

// Resolver は公開検証エンドポイントの照会処理を提供する。
type Resolver struct {
	members repository.MemberRepository
	logger  *slog.Logger
	now     func() time.Time
}

// NewResolver はResolverを生成する。
func NewResolver(members repository.MemberRepository, logger *slog.Logger) *Resolver {
	return &Resolver{
		members: members,
		logger:  logger,
		now:     time.Now,
	}
}

// Resolve は会員IDとQRトークンから照会結果を分類する。
//  1. 会員が存在しない → NOT_FOUND
//  2. トークン欠落 → INVALID_QR（会員は返す）
//  3. トークンを履歴全体と照合。不一致 → INVALID_QR
//  4. 一致 → 成功。表示ステータスを算出して返す。
//
// 失効済みトークンと未発行トークンの区別は結果に含めない。
func (r *Resolver) Resolve(ctx context.Context, memberID, token string) (*Resolution, error) {
	member, err := r.members.FindByID(ctx, memberID)
	if err != nil {
		r.logger.Error("failed to load member for lookup",
			slog.String("member_id", memberID), slog.String("error", err.Error()))
		return nil, model.NewPersistenceError()
	}
	if member == nil {
		return &Resolution{ErrorType: model.LookupErrorNotFound}, nil
	}
	if token == "" {
		return &Resolution{Member: member, ErrorType: model.LookupErrorInvalidQR}, nil
	}

	// 現行だけでなく履歴全体と照合する。失効済みトークンでも会員の提示は
	// 成立させ、表示ステータスで区別する。
	for i := range member.Credentials {
		if member.Credentials[i].Token == token {
			matched := &member.Credentials[i]
			return &Resolution{
				Member:        member,
				Credential:    matched,
				DisplayStatus: DisplayStatus(member, matched, r.now()),
			}, nil
		}
	}

	return &Resolution{Member: member, ErrorType: model.LookupErrorInvalidQR}, nil
}
