package notify

import (
	"context"
	"sync"

	"github.com/nao1215/rtps/internal/model"
)

// BadgeBoard keeps the current badge of every tab in memory so that clients
// can query it.
type BadgeBoard struct {
	mu     sync.RWMutex
	badges map[model.TabID]model.BadgeStatus
}

// NewBadgeBoard creates an empty board.
func NewBadgeBoard() *BadgeBoard {
	return &BadgeBoard{badges: make(map[model.TabID]model.BadgeStatus)}
}

// Set implements BadgeSink.
func (b *BadgeBoard) Set(_ context.Context, tab model.TabID, status model.BadgeStatus) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == model.BadgeDefault {
		delete(b.badges, tab)
		return nil
	}
	b.badges[tab] = status
	return nil
}

// Get returns the tab's badge, BadgeDefault when none is set.
func (b *BadgeBoard) Get(tab model.TabID) model.BadgeStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.badges[tab]
}

// Forget drops the tab's badge.
func (b *BadgeBoard) Forget(tab model.TabID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.badges, tab)
}

// Len returns the number of tabs with a non-default badge.
func (b *BadgeBoard) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.badges)
}

// Clear drops every badge.
func (b *BadgeBoard) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.badges)
}
