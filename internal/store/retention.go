package store

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultRetentionHours is how long uploads are kept when not configured.
const DefaultRetentionHours = 24

// RetentionConfig holds configuration for the retention cleaner.
type RetentionConfig struct {
	MaxAge   time.Duration
	Interval time.Duration
	// OnDelete runs for every expired file after its rows are gone.
	OnDelete func(FileRecord)
	Now      func() time.Time
}

// RetentionCleaner periodically deletes uploads older than MaxAge.
type RetentionCleaner struct {
	store    *Store
	cfg      RetentionConfig
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewRetentionCleaner runs one cleanup immediately and then every Interval.
// It returns nil when MaxAge is not positive (retention disabled).
func NewRetentionCleaner(store *Store, cfg RetentionConfig) *RetentionCleaner {
	if cfg.MaxAge <= 0 {
		return nil
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	rc := &RetentionCleaner{
		store: store,
		cfg:   cfg,
		done:  make(chan struct{}),
	}

	// Catch up after downtime.
	rc.Cleanup()

	rc.wg.Add(1)
	go rc.tickLoop()
	return rc
}

func (rc *RetentionCleaner) tickLoop() {
	defer rc.wg.Done()
	ticker := time.NewTicker(rc.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rc.Cleanup()
		case <-rc.done:
			return
		}
	}
}

// Cleanup deletes expired files once and reports how many were removed.
func (rc *RetentionCleaner) Cleanup() int {
	cutoff := rc.cfg.Now().Add(-rc.cfg.MaxAge)

	recs, err := rc.store.DeleteBefore(context.Background(), cutoff)
	if err != nil {
		log.Printf("store: retention cleanup error: %v", err)
		return 0
	}
	for _, rec := range recs {
		if rc.cfg.OnDelete != nil {
			rc.cfg.OnDelete(rec)
		}
	}
	if len(recs) > 0 {
		log.Printf("store: retention cleanup deleted %d files older than %s", len(recs), rc.cfg.MaxAge)
	}
	return len(recs)
}

// Stop signals the cleaner to stop and waits for it to finish.
func (rc *RetentionCleaner) Stop() {
	rc.stopOnce.Do(func() {
		close(rc.done)
		rc.wg.Wait()
	})
}
