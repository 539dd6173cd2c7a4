package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"flashbattle-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RoomRepository stores rooms and exam descriptors in Redis.
// Room creation uses SETNX so concurrent creations of one id cannot both win.
type RoomRepository struct {
	client *redis.Client
}

func NewRoomRepository(client *redis.Client) *RoomRepository {
	return &RoomRepository{client: client}
}

func (r *RoomRepository) CreateRoom(ctx context.Context, room domain.Room) (bool, error) {
	data, err := json.Marshal(room)
	if err != nil {
		return false, fmt.Errorf("marshal room: %w", err)
	}
	return r.client.SetNX(ctx, roomSettingsKey(room.RoomID), data, 0).Result()
}

// GetRoom returns domain.ErrRoomNotFound for unknown rooms. A settings
// record that cannot be decoded yields a room without a host.
func (r *RoomRepository) GetRoom(ctx context.Context, roomID string) (domain.Room, error) {
	raw, err := r.client.Get(ctx, roomSettingsKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	if err != nil {
		return domain.Room{}, fmt.Errorf("get room: %w", err)
	}
	var room domain.Room
	if err := json.Unmarshal(raw, &room); err != nil {
		return domain.Room{RoomID: roomID}, nil
	}
	room.RoomID = roomID
	return room, nil
}

func (r *RoomRepository) RoomExists(ctx context.Context, roomID string) (bool, error) {
	n, err := r.client.Exists(ctx, roomSettingsKey(roomID)).Result()
	if err != nil {
		return false, fmt.Errorf("room exists: %w", err)
	}
	return n > 0, nil
}

func (r *RoomRepository) ListRooms(ctx context.Context) ([]string, error) {
	keys, err := scanKeys(ctx, r.client, "room:*:settings")
	if err != nil {
		return nil, fmt.Errorf("scan rooms: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(k, "room:"), ":settings"))
	}
	sort.Strings(ids)
	return ids, nil
}

// DeleteRoom removes the settings and exam keys of roomID only.
func (r *RoomRepository) DeleteRoom(ctx context.Context, roomID string) (int, error) {
	n, err := r.client.Del(ctx, roomSettingsKey(roomID), roomExamKey(roomID)).Result()
	if err != nil {
		return 0, fmt.Errorf("delete room keys: %w", err)
	}
	return int(n), nil
}

func (r *RoomRepository) SaveExam(ctx context.Context, exam domain.ExamSession) error {
	data, err := json.Marshal(exam)
	if err != nil {
		return fmt.Errorf("marshal exam: %w", err)
	}
	return r.client.Set(ctx, roomExamKey(exam.RoomID), data, 0).Err()
}

func (r *RoomRepository) GetExam(ctx context.Context, roomID string) (domain.ExamSession, bool, error) {
	raw, err := r.client.Get(ctx, roomExamKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ExamSession{}, false, nil
	}
	if err != nil {
		return domain.ExamSession{}, false, fmt.Errorf("get exam: %w", err)
	}
	var exam domain.ExamSession
	if err := json.Unmarshal(raw, &exam); err != nil {
		return domain.ExamSession{}, false, nil
	}
	return exam, true, nil
}
