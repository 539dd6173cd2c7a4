package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"flashbattle-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// BankArchive is a durable bank store (e.g. Postgres) sitting behind Redis.
type BankArchive interface {
	LoadBank(ctx context.Context, roomID, bankID string) (domain.Bank, error)
	StoreBank(ctx context.Context, roomID string, bank domain.Bank) error
	ListBanks(ctx context.Context, roomID string) ([]domain.BankSummary, error)
	DeleteBank(ctx context.Context, roomID, bankID string) (bool, error)
	DeleteRoomBanks(ctx context.Context, roomID string) (int, error)
}

// BankRepository stores banks as one JSON document per key:
//
//	SET bank:{roomID}:{bankID} {"id":..,"name":..,"questions":[..]}
//
// Without an archive Redis is the system of record and keys never expire.
// With an archive, writes go through to it and Redis entries become a
// cache with a jittered TTL, refilled on miss.
type BankRepository struct {
	client  *redis.Client
	archive BankArchive
	ttl     time.Duration
	sf      singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewBankRepository(client *redis.Client, archive BankArchive, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client:  client,
		archive: archive,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) SaveBank(ctx context.Context, roomID string, bank domain.Bank) error {
	if r.archive != nil {
		if err := r.archive.StoreBank(ctx, roomID, bank); err != nil {
			return fmt.Errorf("archive bank: %w", err)
		}
	}
	return r.cache(ctx, roomID, bank)
}

func (r *BankRepository) cache(ctx context.Context, roomID string, bank domain.Bank) error {
	data, err := json.Marshal(bank)
	if err != nil {
		return fmt.Errorf("marshal bank: %w", err)
	}
	var ttl time.Duration
	if r.archive != nil {
		ttl = r.ttlWithJitter()
	}
	return r.client.Set(ctx, bankKey(roomID, bank.ID), data, ttl).Err()
}

func (r *BankRepository) LoadQuestions(ctx context.Context, roomID, bankID string) ([]domain.Question, error) {
	raw, err := r.client.Get(ctx, bankKey(roomID, bankID)).Bytes()
	if err == nil {
		return decodeQuestions(raw), nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get bank: %w", err)
	}
	if r.archive == nil {
		return []domain.Question{}, nil
	}

	result, err, _ := r.sf.Do(roomID+"\x00"+bankID, func() (interface{}, error) {
		bank, err := r.archive.LoadBank(ctx, roomID, bankID)
		if errors.Is(err, domain.ErrBankNotFound) {
			return []domain.Question{}, nil
		}
		if err != nil {
			return nil, err
		}
		// best-effort refill
		_ = r.cache(ctx, roomID, bank)
		return bank.Questions, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load archived bank: %w", err)
	}
	return result.([]domain.Question), nil
}

// decodeQuestions accepts both the {id,name,questions} document and a bare
// question array; anything else decodes to an empty list.
func decodeQuestions(raw []byte) []domain.Question {
	var bank domain.Bank
	if err := json.Unmarshal(raw, &bank); err == nil {
		if bank.Questions == nil {
			return []domain.Question{}
		}
		return bank.Questions
	}
	var list []domain.Question
	if err := json.Unmarshal(raw, &list); err == nil && list != nil {
		return list
	}
	return []domain.Question{}
}

func (r *BankRepository) ListBanks(ctx context.Context, roomID string) ([]domain.BankSummary, error) {
	if r.archive != nil {
		return r.archive.ListBanks(ctx, roomID)
	}

	keys, err := roomBankKeys(ctx, r.client, roomID)
	if err != nil {
		return nil, fmt.Errorf("scan banks: %w", err)
	}
	sort.Strings(keys)
	out := make([]domain.BankSummary, 0, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get banks: %w", err)
	}
	prefix := bankPrefix(roomID)
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// expired between SCAN and MGET
			continue
		}
		out = append(out, summarize(strings.TrimPrefix(keys[i], prefix), raw))
	}
	return out, nil
}

func summarize(keyID, raw string) domain.BankSummary {
	var list []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return domain.BankSummary{ID: keyID, Name: keyID, Count: len(list)}
	}
	var doc struct {
		ID        string            `json:"id"`
		Name      string            `json:"name"`
		Questions []json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return domain.BankSummary{ID: keyID, Name: keyID, Count: 0}
	}
	s := domain.BankSummary{ID: doc.ID, Name: doc.Name, Count: len(doc.Questions)}
	if s.ID == "" {
		s.ID = keyID
	}
	if s.Name == "" {
		s.Name = s.ID
	}
	return s
}

func (r *BankRepository) DeleteBank(ctx context.Context, roomID, bankID string) (bool, error) {
	n, err := r.client.Del(ctx, bankKey(roomID, bankID)).Result()
	if err != nil {
		return false, fmt.Errorf("delete bank: %w", err)
	}
	deleted := n > 0
	if r.archive != nil {
		archived, err := r.archive.DeleteBank(ctx, roomID, bankID)
		if err != nil {
			return deleted, fmt.Errorf("delete archived bank: %w", err)
		}
		deleted = deleted || archived
	}
	return deleted, nil
}

func (r *BankRepository) DeleteRoomBanks(ctx context.Context, roomID string) (int, error) {
	keys, err := roomBankKeys(ctx, r.client, roomID)
	if err != nil {
		return 0, fmt.Errorf("scan banks: %w", err)
	}
	deleted := 0
	if len(keys) > 0 {
		n, err := r.client.Del(ctx, keys...).Result()
		if err != nil {
			return 0, fmt.Errorf("delete banks: %w", err)
		}
		deleted = int(n)
	}
	if r.archive != nil {
		archived, err := r.archive.DeleteRoomBanks(ctx, roomID)
		if err != nil {
			return deleted, fmt.Errorf("delete archived banks: %w", err)
		}
		// cached keys are a subset of the archive
		if archived > deleted {
			deleted = archived
		}
	}
	return deleted, nil
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
