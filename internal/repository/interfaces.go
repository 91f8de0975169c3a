// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/credman/internal/model"
)

// MemberRepository は会員データの永続化インターフェース。
// 会員のロードは常にクレデンシャル履歴をissue_date降順で添付する。
type MemberRepository interface {
	// FindByID は指定IDの会員を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Member, error)

	// List は全会員をクレデンシャル付きで取得する。
	List(ctx context.Context) ([]*model.Member, error)

	// Create は会員とそのクレデンシャルを同一トランザクションで作成する。
	Create(ctx context.Context, member *model.Member) error

	// Update は会員情報を更新し、クレデンシャル集合を同一トランザクションで
	// 置き換える。会員が存在しない場合はfalseを返す。
	Update(ctx context.Context, member *model.Member) (bool, error)

	// DeleteByID は指定IDの会員を削除する。クレデンシャルはCASCADE削除される。
	// 削除対象が存在しない場合はfalseを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)

	// ListPhotoURLs は全会員のphoto_urlを返す。アップロード清掃ジョブ用。
	ListPhotoURLs(ctx context.Context) ([]string, error)
}

// CredentialRepository はクレデンシャル履歴の永続化インターフェース。
type CredentialRepository interface {
	// ListByMemberID は会員のクレデンシャル履歴をissue_date降順で取得する。
	ListByMemberID(ctx context.Context, memberID string) ([]model.Credential, error)

	// ReplaceActive はACTIVEなクレデンシャルの失効と新クレデンシャルの挿入を
	// 単一トランザクションで実行する。部分適用は起こらない。
	ReplaceActive(ctx context.Context, memberID string, cred *model.Credential) error
}
