package wiki

import (
	"context"
	"sync"
	"time"

	"github.com/bryanmaina/wikipedia-scraper/internal/util"
)

// Waiter is called before every outbound Wikipedia request.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Throttle sleeps a uniformly random delay before each request. Waits are
// serialized, so any number of workers sharing one Throttle never exceed one
// request per delay.
type Throttle struct {
	mu       sync.Mutex
	minDelay time.Duration
	maxDelay time.Duration
}

func NewThrottle(minDelay, maxDelay time.Duration) *Throttle {
	return &Throttle{minDelay: minDelay, maxDelay: maxDelay}
}

func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return util.SleepContext(ctx, util.UniformDuration(t.minDelay, t.maxDelay))
}
