package chat

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrNoActiveSession возвращается, пока соединение со шлюзом не установлено.
var ErrNoActiveSession = errors.New("no active chat session")

// Session описывает установленное соединение с чатом, через которое отправляются сообщения.
type Session interface {
	ID() string
	SendText(ctx context.Context, phone, body string) error
}

type activeSession struct {
	s Session
}

// Registry хранит единственную активную сессию процесса.
// Замена сессии при переподключении атомарна.
type Registry struct {
	active atomic.Pointer[activeSession]
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{}
}

// SetActive делает сессию активной, заменяя предыдущую.
func (r *Registry) SetActive(s Session) {
	r.active.Store(&activeSession{s: s})
}

// Active возвращает активную сессию или ErrNoActiveSession.
func (r *Registry) Active() (Session, error) {
	cur := r.active.Load()
	if cur == nil {
		return nil, ErrNoActiveSession
	}
	return cur.s, nil
}

// Clear снимает сессию s, если она всё ещё активна.
func (r *Registry) Clear(s Session) {
	cur := r.active.Load()
	if cur != nil && cur.s == s {
		r.active.CompareAndSwap(cur, nil)
	}
}
