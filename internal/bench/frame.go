package bench

import (
	"sync"
	"time"
)

// frameInterval approximates a 60Hz display refresh.
const frameInterval = 16 * time.Millisecond

// frameProbe estimates sustained frame rate by counting how many ticks
// of a frame-interval ticker actually fire while a run executes. A
// saturated scheduler delivers fewer ticks, so the derived rate drops
// under load the same way a UI frame counter would.
type frameProbe struct {
	start  time.Time
	done   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
	frames int
}

func startFrameProbe() *frameProbe {
	p := &frameProbe{
		start: time.Now(),
		done:  make(chan struct{}),
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(frameInterval)
		defer ticker.Stop()
		for {
			select {
			case <-p.done:
				return
			case <-ticker.C:
				p.mu.Lock()
				p.frames++
				p.mu.Unlock()
			}
		}
	}()
	return p
}

// stop ends sampling and returns frames per second over the probe's
// lifetime. Runs shorter than one frame interval report 0 rather than
// an extrapolated guess.
func (p *frameProbe) stop() float64 {
	elapsed := time.Since(p.start)
	close(p.done)
	p.wg.Wait()

	if elapsed < frameInterval {
		return 0
	}
	p.mu.Lock()
	frames := p.frames
	p.mu.Unlock()
	return float64(frames) / elapsed.Seconds()
}
