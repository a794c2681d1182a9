package bot

import (
	"sync"

	apperrors "autoapply-engine/internal/errors"
)

type Owner string

const (
	OwnerNone   Owner = ""
	OwnerBot    Owner = "bot"
	OwnerManual Owner = "manual"
)

// Gate lets either the bot or one manual apply touch the job board, never
// both.
type Gate struct {
	mu    sync.Mutex
	owner Owner
}

func NewGate() *Gate { return &Gate{} }

// TryAcquire claims the gate for owner. The returned release is idempotent.
func (g *Gate) TryAcquire(owner Owner) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.owner {
	case OwnerNone:
	case OwnerBot:
		return nil, apperrors.Conflict("the bot is running", nil)
	default:
		return nil, apperrors.Conflict("a manual application is in progress", nil)
	}

	g.owner = owner
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			g.owner = OwnerNone
			g.mu.Unlock()
		})
	}, nil
}

func (g *Gate) Holder() Owner {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.owner
}
