// Package model はドメインモデルを定義する。
package model

import "time"

// MemberStatus は会員の在籍状態を表す。
type MemberStatus string

const (
	// MemberStatusActive は在籍中の会員を示す。
	MemberStatusActive MemberStatus = "ACTIVE"
	// MemberStatusInactive は退会・休会中の会員を示す。
	// 表示上はクレデンシャルの有効性より優先されるが、
	// クレデンシャルのレコード自体は変更しない。
	MemberStatusInactive MemberStatus = "INACTIVE"
)

// Member は団体の会員を表す。
// JSONのキーは元来のAPI互換のためcamelCaseを使用する。
type Member struct {
	ID               string       `json:"id"`
	FirstName        string       `json:"firstName"`
	LastName         string       `json:"lastName"`
	Role             string       `json:"role"`
	JoinDate         time.Time    `json:"joinDate"`
	BloodType        string       `json:"bloodType,omitempty"`
	CURP             string       `json:"curp,omitempty"`
	EmergencyContact string       `json:"emergencyContact,omitempty"`
	PhotoURL         string       `json:"photoUrl"`
	Status           MemberStatus `json:"status"`
	Street           string       `json:"street,omitempty"`
	HouseNumber      string       `json:"houseNumber,omitempty"`
	Colony           string       `json:"colony,omitempty"`
	City             string       `json:"city,omitempty"`
	PostalCode       string       `json:"postalCode,omitempty"`

	// Credentials は発行履歴。issue_dateの降順（最新が先頭）で保持する。
	Credentials []Credential `json:"credentials"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// FullName は表示用の氏名を返す。
func (m *Member) FullName() string {
	if m.FirstName == "" {
		return m.LastName
	}
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}
