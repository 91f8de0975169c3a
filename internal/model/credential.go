package model

import "time"

// CredentialStatus はクレデンシャルの保存ステータスを表す。
type CredentialStatus string

const (
	// CredentialStatusActive は現在有効なクレデンシャルを示す。
	// 会員ごとに高々1件しか存在してはならない。
	CredentialStatusActive CredentialStatus = "ACTIVE"
	// CredentialStatusRevoked は自然満了前に新しい発行によって
	// 置き換えられたクレデンシャルを示す。
	CredentialStatusRevoked CredentialStatus = "REVOKED"
	// CredentialStatusExpired は期限切れを明示的に記録したステータス。
	// ライフサイクルは書き込まない（期限切れは読み取り時に
	// expirationDateから導出する）が、移行データとして読み取りは許容する。
	CredentialStatusExpired CredentialStatus = "EXPIRED"
)

// Credential はQRコード付き会員証の検証に使う、期限付きの認可レコードを表す。
// REVOKED/EXPIRED になった後は不変であり、監査履歴として保持される。
// 削除されるのは所有する会員の削除にともなうカスケードのみ。
type Credential struct {
	ID             string           `json:"id"`
	MemberID       string           `json:"-"`
	Token          string           `json:"token"`
	IssueDate      time.Time        `json:"issueDate"`
	ExpirationDate time.Time        `json:"expirationDate"`
	Status         CredentialStatus `json:"status"`
}

// IsTimeExpired はクレデンシャルが指定時刻において期限切れかを返す。
// expirationDateはカレンダー日付（UTC深夜0時）として比較する。
func (c *Credential) IsTimeExpired(now time.Time) bool {
	exp := time.Date(
		c.ExpirationDate.Year(), c.ExpirationDate.Month(), c.ExpirationDate.Day(),
		0, 0, 0, 0, time.UTC,
	)
	return exp.Before(now.UTC())
}
