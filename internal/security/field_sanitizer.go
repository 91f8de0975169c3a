// Package security はアプリケーションのセキュリティ機能を提供する。
//
// FieldSanitizerService は会員プロフィールの自由入力項目をサニタイズし、
// 保存データにHTMLが混入することを防ぐ。会員の氏名・住所・緊急連絡先は
// カード描画と検証画面にそのまま表示されるため、タグは一切許可しない。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// FieldSanitizerService は自由入力項目のサニタイズ機能のインターフェースを定義する。
// 会員の作成・更新時に使用される。
type FieldSanitizerService interface {
	// SanitizeField は入力からHTMLタグを全て除去し、前後の空白を取り除く。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeField(raw string) string

	// SanitizeMemberFields は会員の自由入力項目を一括でサニタイズする。
	SanitizeMemberFields(fields ...*string)
}

// fieldSanitizer はFieldSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type fieldSanitizer struct {
	policy *bluemonday.Policy
}

// NewFieldSanitizer はFieldSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは全てのHTML要素と属性を除去し、テキストのみを残す。
func NewFieldSanitizer() *fieldSanitizer {
	return &fieldSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeField は入力からHTMLタグを全て除去し、前後の空白を取り除く。
func (s *fieldSanitizer) SanitizeField(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}

// SanitizeMemberFields は会員の自由入力項目を一括でサニタイズする。
// nilポインタは無視する。
func (s *fieldSanitizer) SanitizeMemberFields(fields ...*string) {
	for _, f := range fields {
		if f == nil {
			continue
		}
		*f = s.SanitizeField(*f)
	}
}
