package credential

import (
	"time"

	"github.com/hitoshi/credman/internal/model"
)

// 表示ステータス。カードや検証画面にそのまま出すスペイン語の文字列。
const (
	// DisplayValid は有効なクレデンシャル。
	DisplayValid = "VIGENTE"
	// DisplayReplaced は新しい発行で置き換えられたクレデンシャル。
	DisplayReplaced = "REEMPLAZADA"
	// DisplayExpired は期限切れのクレデンシャル。
	DisplayExpired = "VENCIDA"
	// DisplayMemberInactive は会員自体が非在籍であることを示す。
	// クレデンシャルの状態に関わらず最優先で表示する。
	DisplayMemberInactive = "MIEMBRO INACTIVO"
)

// DisplayStatus は会員とクレデンシャルの組に対する表示ステータスを決定する。
// 優先順位: 会員INACTIVE > REVOKED > 期限切れ > 有効。
// 期限切れは保存ステータスがEXPIREDの場合と、expirationDateが
// 現在時刻より前の場合の両方で成立する。
func DisplayStatus(member *model.Member, cred *model.Credential, now time.Time) string {
	if member != nil && member.Status == model.MemberStatusInactive {
		return DisplayMemberInactive
	}
	if cred == nil {
		return DisplayExpired
	}
	if cred.Status == model.CredentialStatusRevoked {
		return DisplayReplaced
	}
	if cred.Status == model.CredentialStatusExpired || cred.IsTimeExpired(now) {
		return DisplayExpired
	}
	return DisplayValid
}

// IsDisplayValid は表示ステータスが有効（VIGENTE）かを返す。
func IsDisplayValid(member *model.Member, cred *model.Credential, now time.Time) bool {
	return DisplayStatus(member, cred, now) == DisplayValid
}
