package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"rvsync/backend/internal/models"
	"rvsync/backend/internal/repository"
	"rvsync/backend/internal/repository/repotest"
	"rvsync/backend/pkg/jwt"
	"rvsync/backend/pkg/logger"
	"rvsync/backend/pkg/ws"

	"gorm.io/gorm"
)

type delivery struct {
	userID uint
	event  ws.Event
}

// recordingPublisher captures pushes and optionally inspects state at push time
type recordingPublisher struct {
	mu     sync.Mutex
	sent   []delivery
	onSend func(userID uint, event ws.Event)
}

func (p *recordingPublisher) SendTo(userID uint, event ws.Event) {
	if p.onSend != nil {
		p.onSend(userID, event)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, delivery{userID, event})
}

func (p *recordingPublisher) deliveries() []delivery {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]delivery(nil), p.sent...)
}

type mapNameCache struct {
	mu    sync.Mutex
	names map[uint]string
	gets  int
}

func (m *mapNameCache) Get(_ context.Context, id uint) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	n, ok := m.names[id]
	return n, ok
}

func (m *mapNameCache) Set(_ context.Context, id uint, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[id] = name
}

func (m *mapNameCache) Forget(_ context.Context, id uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.names, id)
}

// tickingClock advances one second per call
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

type fixture struct {
	db       *gorm.DB
	users    *UserService
	chat     *ChatService
	career   *CareerService
	pub      *recordingPublisher
	messages *repository.GormMessageRepository
	ada, bob *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := repotest.NewDB(t)
	log := logger.Nop()
	users := NewUserService(repository.NewGormUserRepository(db), jwt.NewService("test", time.Hour), nil, log)
	messages := repository.NewGormMessageRepository(db)
	pub := &recordingPublisher{}

	chat := NewChatService(messages, users, pub, log, ChatOptions{PreviewLength: 50, Now: tickingClock()})
	career := NewCareerService(
		repository.NewGormSkillRepository(db),
		repository.NewGormProjectRepository(db),
		repository.NewGormOpportunityRepository(db),
		repository.NewGormPredictionRepository(db),
		users,
		log,
		CareerOptions{MaxResults: 20, HiddenGemSalary: 1_500_000, CatalogTTL: time.Minute},
	)

	return &fixture{
		db:       db,
		users:    users,
		chat:     chat,
		career:   career,
		pub:      pub,
		messages: messages,
		ada:      repotest.SeedUser(t, db, "Ada", "ada@example.com"),
		bob:      repotest.SeedUser(t, db, "Bob", "bob@example.com"),
	}
}
