// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// 利用者向けメッセージはプロダクトの言語（スペイン語）で記述する。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, member, credential, card, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeMemberNotFound     = "MEMBER_NOT_FOUND"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeInvalidExpiration  = "INVALID_EXPIRATION"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeTemplateLoad       = "TEMPLATE_LOAD_FAILED"
	ErrCodePhotoFetch         = "PHOTO_FETCH_FAILED"
	ErrCodePersistence        = "PERSISTENCE_FAILED"
	ErrCodeInvalidCardSide    = "INVALID_CARD_SIDE"
)

// 公開照会エンドポイントの分類結果。エラーではなく分類として返す。
const (
	// LookupErrorNotFound は会員IDが存在しないことを示す。
	LookupErrorNotFound = "NOT_FOUND"
	// LookupErrorInvalidQR はトークン欠落または履歴に一致なしを示す。
	// 「失効済み」と「未発行」の区別は照会段階では漏らさない。
	LookupErrorInvalidQR = "INVALID_QR"
)

// NewMemberNotFoundError は会員未検出エラーを生成する。
func NewMemberNotFoundError(memberID string) *APIError {
	return &APIError{
		Code:     ErrCodeMemberNotFound,
		Message:  fmt.Sprintf("Miembro no encontrado: %s", memberID),
		Category: "member",
		Action:   "Verifique el identificador del miembro.",
	}
}

// NewValidationError は必須項目の欠落エラーを生成する。
func NewValidationError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("Campo requerido faltante: %s", field),
		Category: "validation",
		Action:   "Complete los campos obligatorios (nombre, apellidos y cargo).",
	}
}

// NewInvalidExpirationError は不正な有効期限エラーを生成する。
// 発行日より前の有効期限は拒否する。
func NewInvalidExpirationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidExpiration,
		Message:  fmt.Sprintf("Fecha de vencimiento inválida: %s", reason),
		Category: "validation",
		Action:   "Indique una fecha de vencimiento igual o posterior a la fecha de emisión.",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Credenciales incorrectas.",
		Category: "auth",
		Action:   "Verifique la contraseña de administrador.",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Autenticación requerida.",
		Category: "auth",
		Action:   "Inicie sesión nuevamente.",
	}
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "No se pudo interpretar el cuerpo de la solicitud.",
		Category: "validation",
		Action:   "Envíe la solicitud en formato JSON válido.",
	}
}

// NewTemplateLoadError はカード背景テンプレートの読み込み失敗エラーを生成する。
// 背景はそのカード面にとって致命的であり、描画は中断される。
func NewTemplateLoadError(side string) *APIError {
	return &APIError{
		Code:     ErrCodeTemplateLoad,
		Message:  fmt.Sprintf("No se pudo cargar la plantilla de la credencial (%s).", side),
		Category: "card",
		Action:   "Verifique los archivos de plantilla en el servidor.",
	}
}

// NewInvalidCardSideError は不正なカード面指定エラーを生成する。
func NewInvalidCardSideError(side string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCardSide,
		Message:  fmt.Sprintf("Lado de credencial inválido: %s", side),
		Category: "card",
		Action:   "Indique frente o reverso.",
	}
}

// NewPersistenceError は永続化失敗エラーを生成する。自動リトライは行わない。
func NewPersistenceError() *APIError {
	return &APIError{
		Code:     ErrCodePersistence,
		Message:  "Error al guardar los datos.",
		Category: "system",
		Action:   "Intente de nuevo más tarde.",
	}
}
