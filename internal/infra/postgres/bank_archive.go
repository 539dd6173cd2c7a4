package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"flashbattle-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// BankArchive keeps question banks in Postgres as JSONB, one row per (room, bank).
type BankArchive struct {
	pool *pgxpool.Pool
}

func NewBankArchive(pool *pgxpool.Pool) *BankArchive {
	return &BankArchive{pool: pool}
}

func (a *BankArchive) LoadBank(ctx context.Context, roomID, bankID string) (domain.Bank, error) {
	var (
		name string
		raw  []byte
	)
	err := a.pool.QueryRow(ctx, `SELECT name, questions FROM banks WHERE room_id=$1 AND bank_id=$2`, roomID, bankID).Scan(&name, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Bank{}, domain.ErrBankNotFound
	}
	if err != nil {
		return domain.Bank{}, fmt.Errorf("load bank: %w", err)
	}
	bank := domain.Bank{ID: bankID, Name: name}
	if err := json.Unmarshal(raw, &bank.Questions); err != nil {
		bank.Questions = []domain.Question{}
	}
	return bank, nil
}

func (a *BankArchive) StoreBank(ctx context.Context, roomID string, bank domain.Bank) error {
	questions := bank.Questions
	if questions == nil {
		questions = []domain.Question{}
	}
	raw, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	_, err = a.pool.Exec(ctx, `
		INSERT INTO banks (room_id, bank_id, name, questions, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, now())
		ON CONFLICT (room_id, bank_id)
		DO UPDATE SET name=EXCLUDED.name, questions=EXCLUDED.questions, updated_at=now()`,
		roomID, bank.ID, bank.Name, string(raw))
	if err != nil {
		return fmt.Errorf("store bank: %w", err)
	}
	return nil
}

func (a *BankArchive) ListBanks(ctx context.Context, roomID string) ([]domain.BankSummary, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT bank_id, name, COALESCE(jsonb_array_length(questions), 0)
		FROM banks WHERE room_id=$1 ORDER BY bank_id`, roomID)
	if err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}
	defer rows.Close()

	out := []domain.BankSummary{}
	for rows.Next() {
		var s domain.BankSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Count); err != nil {
			return nil, fmt.Errorf("scan bank: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (a *BankArchive) DeleteBank(ctx context.Context, roomID, bankID string) (bool, error) {
	tag, err := a.pool.Exec(ctx, `DELETE FROM banks WHERE room_id=$1 AND bank_id=$2`, roomID, bankID)
	if err != nil {
		return false, fmt.Errorf("delete bank: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (a *BankArchive) DeleteRoomBanks(ctx context.Context, roomID string) (int, error) {
	tag, err := a.pool.Exec(ctx, `DELETE FROM banks WHERE room_id=$1`, roomID)
	if err != nil {
		return 0, fmt.Errorf("delete room banks: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
