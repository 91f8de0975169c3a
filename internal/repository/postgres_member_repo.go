package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/credman/internal/model"
)

// PostgresMemberRepo はPostgreSQLを使用した会員リポジトリ。
type PostgresMemberRepo struct {
	db *sql.DB
}

// NewPostgresMemberRepo はPostgresMemberRepoを生成する。
func NewPostgresMemberRepo(db *sql.DB) *PostgresMemberRepo {
	return &PostgresMemberRepo{db: db}
}

const memberColumns = `id, first_name, last_name, role, join_date, blood_type, curp,
        emergency_contact, photo_url, status, street, house_number,
        colony, city, postal_code, created_at, updated_at`

// FindByID は指定IDの会員を取得する。見つからない場合はnilを返す。
// クレデンシャル履歴をissue_date降順で添付する。
func (r *PostgresMemberRepo) FindByID(ctx context.Context, id string) (*model.Member, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = $1`, id)

	member, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("会員の取得に失敗しました: %w", err)
	}

	creds, err := r.listCredentials(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	member.Credentials = creds[id]
	if member.Credentials == nil {
		member.Credentials = []model.Credential{}
	}

	return member, nil
}

// List は全会員をクレデンシャル付きで取得する。
func (r *PostgresMemberRepo) List(ctx context.Context) ([]*model.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM members ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("会員一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var members []*model.Member
	var ids []string
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("会員一覧の読み取りに失敗しました: %w", err)
		}
		member.Credentials = []model.Credential{}
		members = append(members, member)
		ids = append(ids, member.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("会員一覧の走査に失敗しました: %w", err)
	}

	if len(ids) == 0 {
		return members, nil
	}

	credsByMember, err := r.listCredentials(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if creds, ok := credsByMember[m.ID]; ok {
			m.Credentials = creds
		}
	}

	return members, nil
}

// Create は会員とそのクレデンシャルを同一トランザクションで作成する。
func (r *PostgresMemberRepo) Create(ctx context.Context, member *model.Member) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO members (id, first_name, last_name, role, join_date, blood_type, curp,
		                      emergency_contact, photo_url, status, street, house_number,
		                      colony, city, postal_code)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		member.ID, member.FirstName, member.LastName, member.Role, member.JoinDate,
		nullString(member.BloodType), nullString(member.CURP),
		nullString(member.EmergencyContact), nullString(member.PhotoURL),
		member.Status, nullString(member.Street), nullString(member.HouseNumber),
		nullString(member.Colony), nullString(member.City), nullString(member.PostalCode),
	)
	if err != nil {
		return fmt.Errorf("会員の作成に失敗しました: %w", err)
	}

	if err := insertCredentials(ctx, tx, member.ID, member.Credentials); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// Update は会員情報を更新し、クレデンシャル集合を同一トランザクションで置き換える。
func (r *PostgresMemberRepo) Update(ctx context.Context, member *model.Member) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE members SET
		    first_name = $2, last_name = $3, role = $4, join_date = $5,
		    blood_type = $6, curp = $7, emergency_contact = $8, photo_url = $9,
		    status = $10, street = $11, house_number = $12, colony = $13,
		    city = $14, postal_code = $15, updated_at = now()
		 WHERE id = $1`,
		member.ID, member.FirstName, member.LastName, member.Role, member.JoinDate,
		nullString(member.BloodType), nullString(member.CURP),
		nullString(member.EmergencyContact), nullString(member.PhotoURL),
		member.Status, nullString(member.Street), nullString(member.HouseNumber),
		nullString(member.Colony), nullString(member.City), nullString(member.PostalCode),
	)
	if err != nil {
		return false, fmt.Errorf("会員の更新に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	// クレデンシャル集合の全置換（元APIのPUT互換動作）
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM credentials WHERE member_id = $1`, member.ID); err != nil {
		return false, fmt.Errorf("クレデンシャルの削除に失敗しました: %w", err)
	}

	if err := insertCredentials(ctx, tx, member.ID, member.Credentials); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return true, nil
}

// DeleteByID は指定IDの会員を削除する。クレデンシャルはCASCADE削除される。
func (r *PostgresMemberRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("会員の削除に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// ListPhotoURLs は全会員のphoto_urlを返す。アップロード清掃ジョブ用。
func (r *PostgresMemberRepo) ListPhotoURLs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT photo_url FROM members WHERE photo_url IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("写真URL一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("写真URLの読み取りに失敗しました: %w", err)
		}
		urls = append(urls, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("写真URL一覧の走査に失敗しました: %w", err)
	}
	return urls, nil
}

// listCredentials は複数会員のクレデンシャルをissue_date降順でまとめて取得する。
func (r *PostgresMemberRepo) listCredentials(ctx context.Context, memberIDs []string) (map[string][]model.Credential, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, member_id, token, issue_date, expiration_date, status
		 FROM credentials
		 WHERE member_id = ANY($1)
		 ORDER BY issue_date DESC, created_at DESC`,
		pq.Array(memberIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("クレデンシャル履歴の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	byMember := make(map[string][]model.Credential)
	for rows.Next() {
		var c model.Credential
		if err := rows.Scan(&c.ID, &c.MemberID, &c.Token, &c.IssueDate, &c.ExpirationDate, &c.Status); err != nil {
			return nil, fmt.Errorf("クレデンシャルの読み取りに失敗しました: %w", err)
		}
		byMember[c.MemberID] = append(byMember[c.MemberID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("クレデンシャル履歴の走査に失敗しました: %w", err)
	}
	return byMember, nil
}

// insertCredentials はトランザクション内でクレデンシャルを挿入する。
func insertCredentials(ctx context.Context, tx *sql.Tx, memberID string, creds []model.Credential) error {
	for _, c := range creds {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO credentials (id, member_id, token, issue_date, expiration_date, status)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			c.ID, memberID, c.Token, c.IssueDate, c.ExpirationDate, c.Status,
		)
		if err != nil {
			return fmt.Errorf("クレデンシャルの作成に失敗しました: %w", err)
		}
	}
	return nil
}

// rowScanner はsql.Rowとsql.Rowsの共通Scanインターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanMember は会員1行を読み取る。
func scanMember(row rowScanner) (*model.Member, error) {
	member := &model.Member{}
	var bloodType, curp, emergencyContact, photoURL sql.NullString
	var street, houseNumber, colony, city, postalCode sql.NullString

	err := row.Scan(
		&member.ID, &member.FirstName, &member.LastName, &member.Role, &member.JoinDate,
		&bloodType, &curp, &emergencyContact, &photoURL, &member.Status,
		&street, &houseNumber, &colony, &city, &postalCode,
		&member.CreatedAt, &member.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	member.BloodType = nullStringValue(bloodType)
	member.CURP = nullStringValue(curp)
	member.EmergencyContact = nullStringValue(emergencyContact)
	member.PhotoURL = nullStringValue(photoURL)
	member.Street = nullStringValue(street)
	member.HouseNumber = nullStringValue(houseNumber)
	member.Colony = nullStringValue(colony)
	member.City = nullStringValue(city)
	member.PostalCode = nullStringValue(postalCode)

	return member, nil
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// compile-time interface check
var _ MemberRepository = (*PostgresMemberRepo)(nil)
