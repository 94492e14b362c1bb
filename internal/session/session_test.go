package session

import (
	"sync"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()

	if got := s.Get(1); got.Flow != FlowNone || got.Step != 0 {
		t.Errorf("пустой стор вернул %+v", got)
	}

	sess := Session{Flow: FlowSignup, Step: 2}
	sess.Draft.GameID = 7
	s.Set(1, sess)

	got := s.Get(1)
	if got.Flow != FlowSignup || got.Step != 2 || got.Draft.GameID != 7 {
		t.Errorf("получено %+v", got)
	}

	// сессии пользователей независимы
	if other := s.Get(2); other.Flow != FlowNone {
		t.Errorf("чужая сессия: %+v", other)
	}

	s.Clear(1)
	if got := s.Get(1); got.Flow != FlowNone || got.Draft.GameID != 0 {
		t.Errorf("после Clear: %+v", got)
	}
}

func TestMemoryStoreConcurrent(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Set(id, Session{Flow: FlowQuestion})
			s.Get(id)
			s.Clear(id)
		}(i)
	}
	wg.Wait()
}
