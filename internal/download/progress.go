package download

import "sync"

// progressMap tracks in-flight titles and their progress fractions.
// Fractions are keyed by asset id so the two localities of a title
// never collide in the observable map; the in-flight guard is keyed
// by title, the unit of at-most-one semantics.
type progressMap struct {
	mu       sync.Mutex
	inflight map[string]bool
	fraction map[string]float64
}

func newProgressMap() *progressMap {
	return &progressMap{
		inflight: make(map[string]bool),
		fraction: make(map[string]float64),
	}
}

// begin claims the title. Returns false if a transfer is already in
// flight for it.
func (p *progressMap) begin(title, id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inflight[title] {
		return false
	}
	p.inflight[title] = true
	p.fraction[id] = 0
	return true
}

// end releases the title and clears its progress entry. Runs on every
// terminal outcome so progress is never left at a stale value.
func (p *progressMap) end(title, id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inflight, title)
	delete(p.fraction, id)
}

// set records a progress fraction, clamped to [0,1] and never
// decreasing.
func (p *progressMap) set(id string, f float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.fraction[id]; !ok {
		return
	}
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	if f > p.fraction[id] {
		p.fraction[id] = f
	}
}

func (p *progressMap) snapshot() map[string]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]float64, len(p.fraction))
	for k, v := range p.fraction {
		out[k] = v
	}
	return out
}

// progressWriter converts streamed byte counts into progress
// fractions. With an unknown total the fraction stays at zero until
// completion.
type progressWriter struct {
	progress   *progressMap
	id         string
	total      int64
	downloaded int64
}

func (w *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	w.downloaded += int64(n)
	if w.total > 0 {
		w.progress.set(w.id, float64(w.downloaded)/float64(w.total))
	}
	return n, nil
}
