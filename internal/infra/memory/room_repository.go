package memory

import (
	"context"
	"sort"
	"sync"

	"flashbattle-quiz-service/internal/domain"
)

// RoomRepository is an in-memory implementation of app.RoomRepository.
type RoomRepository struct {
	mu    sync.RWMutex
	rooms map[string]domain.Room
	exams map[string]domain.ExamSession
}

func NewRoomRepository() *RoomRepository {
	return &RoomRepository{
		rooms: make(map[string]domain.Room),
		exams: make(map[string]domain.ExamSession),
	}
}

func (r *RoomRepository) CreateRoom(_ context.Context, room domain.Room) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[room.RoomID]; ok {
		return false, nil
	}
	r.rooms[room.RoomID] = room
	return true, nil
}

func (r *RoomRepository) GetRoom(_ context.Context, roomID string) (domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return room, nil
}

func (r *RoomRepository) RoomExists(_ context.Context, roomID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomID]
	return ok, nil
}

func (r *RoomRepository) ListRooms(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *RoomRepository) DeleteRoom(_ context.Context, roomID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	if _, ok := r.rooms[roomID]; ok {
		delete(r.rooms, roomID)
		n++
	}
	if _, ok := r.exams[roomID]; ok {
		delete(r.exams, roomID)
		n++
	}
	return n, nil
}

func (r *RoomRepository) SaveExam(_ context.Context, exam domain.ExamSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exams[exam.RoomID] = exam
	return nil
}

func (r *RoomRepository) GetExam(_ context.Context, roomID string) (domain.ExamSession, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exam, ok := r.exams[roomID]
	return exam, ok, nil
}
