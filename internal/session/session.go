// Package session хранит состояние многошаговых диалогов: по одному
// Session на пользователя, с типизированным черновиком вместо map[string]any.
package session

import "sync"

type Flow int

const (
	FlowNone Flow = iota
	FlowSignup
	FlowQuestion
	FlowHoliday
	FlowAddGame
	FlowEditGameField
	FlowAddStory
	FlowEditStory
	FlowAddScenario
	FlowEditScenario
	FlowBroadcast
)

// Draft - накапливаемые поля всех визардов. Какие поля осмысленны,
// определяется текущим Flow; черновик целиком сбрасывается на Clear.
type Draft struct {
	// запись на игру
	GameID       int64
	GameName     string
	Participants int
	Phone        string
	Comment      string

	// игра (добавление/правка)
	Name        string
	Date        string
	Time        string
	Place       string
	Price       string
	Description string
	Limit       int
	EditID      int64
	EditField   string

	// сюжеты/сценарии
	ScenarioID int64
	Content    string
	ImageURL   string

	// рассылка
	Filter string
	Text   string
	Photo  string
}

type Session struct {
	Flow  Flow
	Step  int
	Draft Draft
}

// Store - внешнее хранилище сессий; в проде и тестах - память,
// интерфейс оставлен для персистентной замены.
type Store interface {
	Get(userID int64) Session
	Set(userID int64, s Session)
	Clear(userID int64)
}

type MemoryStore struct {
	mu sync.RWMutex
	m  map[int64]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: map[int64]Session{}}
}

func (s *MemoryStore) Get(userID int64) Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m[userID]
}

func (s *MemoryStore) Set(userID int64, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[userID] = sess
}

func (s *MemoryStore) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
}
