// Package flood rate-limits link submissions per chat user.
package flood

import (
	"sync"
	"time"
)

const (
	// window is the sliding interval submissions are counted over.
	window = time.Minute
	// sweepInterval is how often idle senders are dropped.
	sweepInterval = 10 * time.Minute
	// idleTimeout is how long a sender may stay quiet before its window
	// state is discarded.
	idleTimeout = 10 * time.Minute
)

// Floodgate counts submissions per chat and sender over a sliding one-minute
// window. It keeps a downloader bot from being used as a relay for bulk link
// dumps.
type Floodgate struct {
	limitPerMinute int
	senders        map[string]*senderWindow
	mutex          sync.Mutex
	now            func() time.Time
	stopSweep      chan struct{}
}

type senderWindow struct {
	submissions []time.Time
	lastSeen    time.Time
}

// New creates a Floodgate allowing limitPerMinute submissions per sender.
func New(limitPerMinute int) *Floodgate {
	fg := &Floodgate{
		limitPerMinute: limitPerMinute,
		senders:        make(map[string]*senderWindow),
		now:            time.Now,
		stopSweep:      make(chan struct{}),
	}

	go fg.sweep()

	return fg
}

// Stop ends the background sweep goroutine.
func (fg *Floodgate) Stop() {
	close(fg.stopSweep)
}

// CheckMessage reports whether a submission from the sender should be
// processed. A blocked submission is not counted against the window.
func (fg *Floodgate) CheckMessage(chatID, userID string) bool {
	key := chatID + ":" + userID
	now := fg.now()

	fg.mutex.Lock()
	defer fg.mutex.Unlock()

	sw, ok := fg.senders[key]
	if !ok {
		sw = &senderWindow{}
		fg.senders[key] = sw
	}
	sw.lastSeen = now

	cutoff := now.Add(-window)
	kept := sw.submissions[:0]
	for _, ts := range sw.submissions {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	sw.submissions = kept

	if len(sw.submissions) >= fg.limitPerMinute {
		return false
	}

	sw.submissions = append(sw.submissions, now)
	return true
}

func (fg *Floodgate) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fg.dropIdle()
		case <-fg.stopSweep:
			return
		}
	}
}

func (fg *Floodgate) dropIdle() {
	fg.mutex.Lock()
	defer fg.mutex.Unlock()

	cutoff := fg.now().Add(-idleTimeout)
	for key, sw := range fg.senders {
		if sw.lastSeen.Before(cutoff) {
			delete(fg.senders, key)
		}
	}
}
