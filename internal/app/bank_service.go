package app

import (
	"context"
	"fmt"
	"strings"

	"flashbattle-quiz-service/internal/bankparse"
	"flashbattle-quiz-service/internal/domain"
	"github.com/rs/zerolog"
)

// BankService manages the question banks of a room.
type BankService struct {
	banks BankRepository
	log   zerolog.Logger
}

func NewBankService(banks BankRepository, log zerolog.Logger) *BankService {
	return &BankService{banks: banks, log: log.With().Str("component", "banks").Logger()}
}

// Save replaces the bank entirely; there is no merge or versioning.
func (s *BankService) Save(ctx context.Context, roomID, bankID, name string, questions []domain.Question) error {
	if !domain.ValidScopeID(roomID) || !domain.ValidScopeID(bankID) {
		return domain.ErrBadRequest
	}
	if name == "" {
		name = bankID
	}
	bank := domain.Bank{ID: bankID, Name: name, Questions: questions}
	if err := s.banks.SaveBank(ctx, roomID, bank); err != nil {
		return fmt.Errorf("save bank %s/%s: %w", roomID, bankID, err)
	}
	return nil
}

// Import normalizes uploaded content and saves it under bankID. It returns
// the number of stored questions.
func (s *BankService) Import(ctx context.Context, roomID, bankID, name, filename, content string) (int, error) {
	if roomID == "" {
		return 0, domain.ErrNotInRoom
	}
	if !domain.ValidScopeID(bankID) {
		return 0, domain.ErrBadRequest
	}
	if strings.TrimSpace(content) == "" {
		return 0, domain.ErrEmptyFile
	}
	questions, err := bankparse.Parse(filename, content)
	if err != nil {
		s.log.Warn().Err(err).Str("room", roomID).Str("bank", bankID).Msg("bank import parse failed")
		return 0, domain.ErrParse
	}
	if len(questions) == 0 {
		return 0, domain.ErrParse
	}
	if err := s.Save(ctx, roomID, bankID, name, questions); err != nil {
		return 0, err
	}
	s.log.Info().Str("room", roomID).Str("bank", bankID).Int("questions", len(questions)).Msg("bank imported")
	return len(questions), nil
}

// List enumerates the banks of a room.
func (s *BankService) List(ctx context.Context, roomID string) ([]domain.BankSummary, error) {
	if roomID == "" {
		return nil, domain.ErrNotInRoom
	}
	banks, err := s.banks.ListBanks(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list banks %s: %w", roomID, err)
	}
	return banks, nil
}

// Questions returns the bank content, or an empty list if it does not exist.
func (s *BankService) Questions(ctx context.Context, roomID, bankID string) ([]domain.Question, error) {
	if roomID == "" {
		return nil, domain.ErrNotInRoom
	}
	if bankID == "" {
		return nil, domain.ErrBadRequest
	}
	qs, err := s.banks.LoadQuestions(ctx, roomID, bankID)
	if err != nil {
		return nil, fmt.Errorf("load bank %s/%s: %w", roomID, bankID, err)
	}
	if qs == nil {
		qs = []domain.Question{}
	}
	return qs, nil
}

// Delete removes a bank; domain.ErrBankNotFound is returned when nothing was deleted.
func (s *BankService) Delete(ctx context.Context, roomID, bankID string) error {
	if roomID == "" {
		return domain.ErrNotInRoom
	}
	if bankID == "" {
		return domain.ErrBadRequest
	}
	deleted, err := s.banks.DeleteBank(ctx, roomID, bankID)
	if err != nil {
		return fmt.Errorf("delete bank %s/%s: %w", roomID, bankID, err)
	}
	if !deleted {
		return domain.ErrBankNotFound
	}
	return nil
}
