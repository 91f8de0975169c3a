package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/credman/internal/model"
)

// PostgresCredentialRepo はPostgreSQLを使用したクレデンシャルリポジトリ。
type PostgresCredentialRepo struct {
	db *sql.DB
}

// NewPostgresCredentialRepo はPostgresCredentialRepoを生成する。
func NewPostgresCredentialRepo(db *sql.DB) *PostgresCredentialRepo {
	return &PostgresCredentialRepo{db: db}
}

// ListByMemberID は会員のクレデンシャル履歴をissue_date降順で取得する。
func (r *PostgresCredentialRepo) ListByMemberID(ctx context.Context, memberID string) ([]model.Credential, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, member_id, token, issue_date, expiration_date, status
		 FROM credentials
		 WHERE member_id = $1
		 ORDER BY issue_date DESC, created_at DESC`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("クレデンシャル履歴の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var creds []model.Credential
	for rows.Next() {
		var c model.Credential
		if err := rows.Scan(&c.ID, &c.MemberID, &c.Token, &c.IssueDate, &c.ExpirationDate, &c.Status); err != nil {
			return nil, fmt.Errorf("クレデンシャルの読み取りに失敗しました: %w", err)
		}
		creds = append(creds, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("クレデンシャル履歴の走査に失敗しました: %w", err)
	}
	return creds, nil
}

// ReplaceActive はACTIVEなクレデンシャルの失効と新クレデンシャルの挿入を
// 単一トランザクションで実行する。読み手がACTIVE 0件や2件の中間状態を
// 観測することはない。失効ではstatusのみを変更し、日付には触れない。
func (r *PostgresCredentialRepo) ReplaceActive(ctx context.Context, memberID string, cred *model.Credential) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE credentials SET status = $2 WHERE member_id = $1 AND status = $3`,
		memberID, model.CredentialStatusRevoked, model.CredentialStatusActive,
	)
	if err != nil {
		return fmt.Errorf("クレデンシャルの失効に失敗しました: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO credentials (id, member_id, token, issue_date, expiration_date, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		cred.ID, memberID, cred.Token, cred.IssueDate, cred.ExpirationDate, cred.Status,
	)
	if err != nil {
		return fmt.Errorf("クレデンシャルの作成に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CredentialRepository = (*PostgresCredentialRepo)(nil)
