package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/example/turnos/internal/db"
)

type Admin struct {
	ID           int64
	Username     string
	PasswordHash string
}

var ErrAdminExists = errors.New("admin already exists")

// Admins is where administrator accounts are kept.
type Admins interface {
	Create(ctx context.Context, username, passwordHash string) error
	Lookup(ctx context.Context, username string) (Admin, error)
}

type Querier interface {
	ExecCount(ctx context.Context, sql string, args ...any) (int64, error)
	QueryRow(ctx context.Context, sql string, args ...any) db.Row
}

// PGAdmins reads the admins table.
type PGAdmins struct{ db Querier }

func NewPGAdmins(d Querier) *PGAdmins { return &PGAdmins{db: d} }

func (p *PGAdmins) Create(ctx context.Context, username, passwordHash string) error {
	n, err := p.db.ExecCount(ctx, `INSERT INTO admins(username, password_bcrypt) VALUES ($1,$2) ON CONFLICT (username) DO NOTHING`, username, passwordHash)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAdminExists
	}
	return nil
}

func (p *PGAdmins) Lookup(ctx context.Context, username string) (Admin, error) {
	a := Admin{Username: username}
	err := p.db.QueryRow(ctx, `SELECT id, password_bcrypt FROM admins WHERE username=$1`, username).Scan(&a.ID, &a.PasswordHash)
	if err != nil {
		return Admin{}, db.WrapNotFound(err)
	}
	return a, nil
}

// MemoryAdmins backs the memory and supabase deployments, usually seeded
// from ADMIN_PASSWORD at startup.
type MemoryAdmins struct {
	mu     sync.Mutex
	byName map[string]Admin
	nextID int64
}

func NewMemoryAdmins() *MemoryAdmins {
	return &MemoryAdmins{byName: map[string]Admin{}}
}

func (m *MemoryAdmins) Create(_ context.Context, username, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[username]; ok {
		return ErrAdminExists
	}
	m.nextID++
	m.byName[username] = Admin{ID: m.nextID, Username: username, PasswordHash: passwordHash}
	return nil
}

func (m *MemoryAdmins) Lookup(_ context.Context, username string) (Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byName[username]
	if !ok {
		return Admin{}, db.ErrNotFound
	}
	return a, nil
}
