package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/travel-planner/internal/model"
	"github.com/iliyamo/travel-planner/internal/query"
	"github.com/iliyamo/travel-planner/internal/queue"
	"github.com/iliyamo/travel-planner/internal/repository"
)

type memAccounts struct {
	mu   sync.Mutex
	byID map[string]*model.Account
	seq  int
}

func newMemAccounts() *memAccounts { return &memAccounts{byID: map[string]*model.Account{}} }

func (m *memAccounts) Create(_ context.Context, a *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if x.Email == a.Email {
			return repository.ErrEmailExists
		}
	}
	m.seq++
	a.ID = fmt.Sprintf("acc-%d", m.seq)
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memAccounts) GetByID(_ context.Context, id string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memAccounts) Update(_ context.Context, a *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[a.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, x := range m.byID {
		if id != a.ID && x.Email == a.Email {
			return repository.ErrEmailExists
		}
	}
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memAccounts) UpdatePassword(_ context.Context, id, hash string, changedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.PasswordHash = hash
	a.PasswordChangedAt = &changedAt
	return nil
}

func (m *memAccounts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memAccounts) List(_ context.Context, read query.Read) (repository.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]repository.Document, 0, len(m.byID))
	for _, a := range m.byID {
		items = append(items, repository.Document{"id": a.ID, "email": a.Email})
	}
	return repository.Page{Items: items, Total: int64(len(items))}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
