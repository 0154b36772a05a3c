package permission

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nikhilbhutani/clinicstaff/internal/models"
)

var (
	ErrCommitInProgress = errors.New("permission commit already in progress")
	ErrInvalidLevel     = errors.New("level must be view, edit or full")
)

// Saver persists a whole staff record. directory.Directory satisfies it.
type Saver interface {
	Update(ctx context.Context, u models.TenantUser) (models.TenantUser, error)
}

// Editor stages level changes for one staff member. Nothing is persisted
// until Commit.
type Editor struct {
	resolver *Resolver

	mu      sync.Mutex
	user    models.TenantUser
	working Levels
	dirty   bool

	committing atomic.Bool
}

// SetLevel grants level on id. Setting the level the permission already
// holds clears it. Any other level replaces the previous one; a permission
// never holds two levels.
func (e *Editor) SetLevel(id string, level Level) (Level, error) {
	if !e.resolver.catalog.Has(id) {
		return LevelNone, &UnknownPermissionError{ID: id}
	}
	if !level.Granted() || !level.Valid() {
		return LevelNone, ErrInvalidLevel
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.working[id] == level {
		e.working[id] = LevelNone
	} else {
		e.working[id] = level
	}
	e.dirty = true
	return e.working[id], nil
}

func (e *Editor) Level(id string) Level {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.working[id]
}

// Levels returns a snapshot of the working copy.
func (e *Editor) Levels() Levels {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.working.Clone()
}

func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

func (e *Editor) User() models.TenantUser {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.user
}

// FlatIDs returns the ids holding any level, once each, in catalog order.
func (e *Editor) FlatIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.working.Granted(e.resolver.catalog.IDs())
}

// Commit writes the working copy through s as a whole-record replace. The
// stored permissions become the flat list of granted ids. On failure nothing
// is kept and the working copy is left as it was.
func (e *Editor) Commit(ctx context.Context, s Saver) (models.TenantUser, error) {
	if !e.committing.CompareAndSwap(false, true) {
		return models.TenantUser{}, ErrCommitInProgress
	}
	defer e.committing.Store(false)

	e.mu.Lock()
	record := e.user
	record.Permissions = e.working.Granted(e.resolver.catalog.IDs())
	record.PermissionLevels = nil
	if e.resolver.mode == ModeStrict {
		record.PermissionLevels = make(map[string]string, len(record.Permissions))
		for _, id := range record.Permissions {
			record.PermissionLevels[id] = e.working[id].String()
		}
	}
	e.mu.Unlock()

	saved, err := s.Update(ctx, record)
	if err != nil {
		return models.TenantUser{}, fmt.Errorf("commit permissions for %s: %w", record.ID, err)
	}

	working, err := e.resolver.Resolve(saved)
	if err != nil {
		return saved, err
	}

	e.mu.Lock()
	e.user = saved
	e.working = working
	e.dirty = false
	e.mu.Unlock()

	return saved, nil
}
