package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/credman/internal/credential"
)

// seedMember はデモデータ投入用の会員レコード。
type seedMember struct {
	firstName        string
	lastName         string
	role             string
	joinDate         string
	bloodType        string
	curp             string
	emergencyContact string
	photoURL         string
	street           string
	houseNumber      string
	colony           string
	city             string
	postalCode       string
	issueDate        string
	expirationDate   string
}

// demoMembers は初期デモデータ。membersテーブルが空の場合にのみ投入される。
var demoMembers = []seedMember{
	{firstName: "Candelario", lastName: "Aparicio Aguilar", role: "Vocal", joinDate: "2025-11-23", curp: "AAAC620202HMNPGN09", emergencyContact: "443-000-0001", photoURL: "https://picsum.photos/200/200?random=3", street: "Priv. de Pejo", houseNumber: "Mnz 58 Lt 9", colony: "Presa de los Reyes", city: "Morelia, Michoacán", postalCode: "58116", issueDate: "2024-11-08", expirationDate: "2030-11-08"},
	{firstName: "Ramiro", lastName: "Ibarra Garcia", role: "Vocal", joinDate: "2025-11-23", curp: "IAGR770611HMNBRM05", emergencyContact: "443-000-0002", photoURL: "https://picsum.photos/200/200?random=4", street: "Valle de Bravo", houseNumber: "Mz 39 L19", colony: "Valle de los Reyes", city: "Morelia, Michoacán", postalCode: "58115", issueDate: "2024-11-08", expirationDate: "2030-11-08"},
	{firstName: "Canuto", lastName: "Valdovinos Saucedo", role: "Vicepresidente", joinDate: "2025-11-23", bloodType: "O+", curp: "VASC510119HGRLCN15", emergencyContact: "443-000-0003", photoURL: "https://picsum.photos/200/200?random=5", street: "Jose del Rio", houseNumber: "208", colony: "Jose Maria Morelos", city: "Morelia, Michoacán", postalCode: "58148", issueDate: "2024-11-08", expirationDate: "2030-11-08"},
	{firstName: "Jose Luis", lastName: "Roman Torres", role: "Presidente", joinDate: "2025-11-23", bloodType: "O+", curp: "ROTL680923HMNMRS13", emergencyContact: "443-476-7856", photoURL: "https://picsum.photos/200/200?random=6", street: "Mariano Torres Aranda", houseNumber: "114", colony: "Jose Maria Morelos", city: "Morelia, Michoacán", postalCode: "58148", issueDate: "2024-11-08", expirationDate: "2030-11-08"},
	{firstName: "Cornelio", lastName: "Garcia Sanchez", role: "Vocal", joinDate: "2021-02-20", bloodType: "O+", curp: "GASC530915HMNRNR01", emergencyContact: "443-000-0005", photoURL: "https://picsum.photos/200/200?random=7", street: "Valle de Bravo", houseNumber: "Mz 39 Lt 19", colony: "Presa de los Reyes", city: "Morelia, Michoacán", postalCode: "58116", issueDate: "2023-11-08", expirationDate: "2030-11-08"},
	{firstName: "Luis Angel", lastName: "Roman Valdovinos", role: "Vocal", joinDate: "2024-01-15", curp: "ROVL960121HMNMLS01", emergencyContact: "443-000-0006", photoURL: "https://picsum.photos/200/200?random=8", street: "Mariano Torres Aranda", houseNumber: "114", colony: "Jose Maria Morelos", city: "Morelia, Michoacán", postalCode: "58148", issueDate: "2024-11-08", expirationDate: "2030-11-08"},
	{firstName: "Nelida", lastName: "Valdovinos Campos", role: "Vocal", joinDate: "2024-01-15", bloodType: "O+", curp: "VACN810404MMNLML08", emergencyContact: "443-000-0007", photoURL: "https://picsum.photos/200/200?random=9", street: "Jose del Rio", houseNumber: "208", colony: "Jose Maria Morelos", city: "Morelia, Michoacán", postalCode: "58148", issueDate: "2024-11-08", expirationDate: "2030-11-08"},
}

// SeedIfEmpty はmembersテーブルが空の場合にデモ会員とクレデンシャルを投入する。
// 既にデータが存在する場合は何もしない。全件の投入は単一トランザクションで行い、
// 途中で失敗した場合はロールバックする。
func SeedIfEmpty(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members`).Scan(&count); err != nil {
		return fmt.Errorf("会員数の取得に失敗: %w", err)
	}
	if count > 0 {
		logger.Info("デモデータの投入をスキップしました",
			slog.Int("existing_members", count),
		)
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗: %w", err)
	}
	defer tx.Rollback()

	for _, m := range demoMembers {
		memberID := uuid.New().String()

		joinDate, err := time.Parse("2006-01-02", m.joinDate)
		if err != nil {
			return fmt.Errorf("入会日のパースに失敗: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO members (
				id, first_name, last_name, role, join_date,
				blood_type, curp, emergency_contact, photo_url, status,
				street, house_number, colony, city, postal_code
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			memberID, m.firstName, m.lastName, m.role, joinDate,
			m.bloodType, m.curp, m.emergencyContact, m.photoURL, "ACTIVE",
			m.street, m.houseNumber, m.colony, m.city, m.postalCode,
		)
		if err != nil {
			return fmt.Errorf("デモ会員の投入に失敗: %w", err)
		}

		token, err := credential.NewToken()
		if err != nil {
			return fmt.Errorf("トークンの生成に失敗: %w", err)
		}
		issueDate, err := time.Parse("2006-01-02", m.issueDate)
		if err != nil {
			return fmt.Errorf("発行日のパースに失敗: %w", err)
		}
		expirationDate, err := time.Parse("2006-01-02", m.expirationDate)
		if err != nil {
			return fmt.Errorf("有効期限のパースに失敗: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO credentials (id, member_id, token, issue_date, expiration_date, status)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New().String(), memberID, token, issueDate, expirationDate, "ACTIVE",
		)
		if err != nil {
			return fmt.Errorf("デモクレデンシャルの投入に失敗: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗: %w", err)
	}

	logger.Info("デモデータを投入しました",
		slog.Int("member_count", len(demoMembers)),
	)
	return nil
}
