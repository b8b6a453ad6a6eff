package underground

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultLikeWindow is how long an IP must wait before liking the same
// artist again.
const DefaultLikeWindow = 24 * time.Hour

type liker struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// likeGuard throttles repeat likes: one like per (artist, IP) pair per
// rolling window, enforced with a rate.Limiter per pair. State is
// in-memory only; per-artist entries older than the window are pruned
// lazily when that artist is next liked.
type likeGuard struct {
	mu       sync.Mutex
	window   time.Duration
	now      func() time.Time
	byArtist map[string]map[string]*liker
}

func newLikeGuard(window time.Duration, now func() time.Time) *likeGuard {
	if window <= 0 {
		window = DefaultLikeWindow
	}
	if now == nil {
		now = time.Now
	}
	return &likeGuard{
		window:   window,
		now:      now,
		byArtist: make(map[string]map[string]*liker),
	}
}

// Allow reports whether ip may like artistID now, consuming the
// allowance when it may.
func (g *likeGuard) Allow(artistID, ip string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	ips, ok := g.byArtist[artistID]
	if !ok {
		ips = make(map[string]*liker)
		g.byArtist[artistID] = ips
	}

	// lazy cleanup: anything quiet for a full window has its allowance
	// back anyway
	for addr, l := range ips {
		if now.Sub(l.lastSeen) > g.window {
			delete(ips, addr)
		}
	}

	l, ok := ips[ip]
	if !ok {
		l = &liker{limiter: rate.NewLimiter(rate.Every(g.window), 1)}
		ips[ip] = l
	}
	l.lastSeen = now
	return l.limiter.AllowN(now, 1)
}
