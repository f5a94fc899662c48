package client

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"wordbuilder/internal/models"
)

// SyncState is the engine's position in its lifecycle. All transitions happen
// on the run loop goroutine; nothing else touches the state.
type SyncState int

const (
	StateIdle SyncState = iota
	StateScheduled
	StateInFlight
	StateBackoff
)

// SyncConfig tunes the engine's timers. The zero value is not usable; start
// from DefaultSyncConfig.
type SyncConfig struct {
	PeriodicInterval time.Duration
	BackoffBase      time.Duration
	MaxRetries       int
}

func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		PeriodicInterval: 30 * time.Second,
		BackoffBase:      2 * time.Second,
		MaxRetries:       3,
	}
}

// SyncEngine reconciles the local session state with the server. A single
// run-loop goroutine owns every piece of mutable state; the exported methods
// only pass messages to it, so there is exactly one writer and at most one
// sync in flight at any time.
type SyncEngine struct {
	store *SessionStore
	api   *APIClient
	cfg   SyncConfig
	log   *zap.Logger

	scheduleCh chan time.Duration
	syncNowCh  chan struct{}
	onlineCh   chan bool
	closeCh    chan struct{}
	doneCh     chan struct{}
}

func NewSyncEngine(store *SessionStore, api *APIClient, cfg SyncConfig, log *zap.Logger) *SyncEngine {
	e := &SyncEngine{
		store:      store,
		api:        api,
		cfg:        cfg,
		log:        log,
		scheduleCh: make(chan time.Duration),
		syncNowCh:  make(chan struct{}),
		onlineCh:   make(chan bool),
		closeCh:    make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	go e.run()
	return e
}

// ScheduleSync requests a sync after the given delay. Repeated calls coalesce
// into a single pending sync; the most recent delay wins.
func (e *SyncEngine) ScheduleSync(delay time.Duration) {
	select {
	case e.scheduleCh <- delay:
	case <-e.doneCh:
	}
}

// SyncNow requests an immediate sync, skipping any pending debounce delay.
func (e *SyncEngine) SyncNow() {
	select {
	case e.syncNowCh <- struct{}{}:
	case <-e.doneCh:
	}
}

// SetOnline tells the engine about network-state transitions. Going offline
// parks the engine; coming back online re-arms the periodic timer and
// schedules an immediate sync.
func (e *SyncEngine) SetOnline(online bool) {
	select {
	case e.onlineCh <- online:
	case <-e.doneCh:
	}
}

// Close stops the run loop and waits for it to finish. An in-flight sync is
// allowed to complete; its result is discarded.
func (e *SyncEngine) Close() {
	select {
	case <-e.closeCh:
	default:
		close(e.closeCh)
	}
	<-e.doneCh
}

func (e *SyncEngine) run() {
	defer close(e.doneCh)

	state := StateIdle
	online := true
	attempt := 0

	// Shared one-shot timer for both the debounce delay and backoff waits.
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	timerArmed := false
	defer timer.Stop()

	disarm := func() {
		if timerArmed && !timer.Stop() {
			<-timer.C
		}
		timerArmed = false
	}
	arm := func(d time.Duration) {
		disarm()
		timer.Reset(d)
		timerArmed = true
	}

	periodic := time.NewTicker(e.cfg.PeriodicInterval)
	defer periodic.Stop()

	var inFlight chan error
	start := func() {
		disarm()
		state = StateInFlight
		done := make(chan error, 1)
		inFlight = done
		go func() { done <- e.syncOnce() }()
	}

	for {
		select {
		case d := <-e.scheduleCh:
			if !online || state == StateInFlight {
				// The dirty flag keeps the pending work visible; the
				// periodic tick or reconnect picks it up.
				continue
			}
			state = StateScheduled
			attempt = 0
			arm(d)

		case <-e.syncNowCh:
			if !online || state == StateInFlight {
				continue
			}
			attempt = 0
			start()

		case <-timer.C:
			timerArmed = false
			if !online {
				state = StateIdle
				continue
			}
			switch state {
			case StateScheduled, StateBackoff:
				start()
			}

		case <-periodic.C:
			if !online || state != StateIdle {
				continue
			}
			st, err := e.store.Load()
			if err != nil || !st.Dirty {
				continue
			}
			attempt = 0
			start()

		case err := <-inFlight:
			inFlight = nil
			if err == nil {
				state = StateIdle
				attempt = 0
				continue
			}

			var se *StatusError
			if errors.As(err, &se) && se.Terminal() {
				e.log.Warn("sync rejected by server, not retrying", zap.Error(err))
				state = StateIdle
				attempt = 0
				continue
			}

			attempt++
			if attempt >= e.cfg.MaxRetries {
				e.log.Warn("sync failed, retries exhausted", zap.Int("attempts", attempt), zap.Error(err))
				state = StateIdle
				attempt = 0
				continue
			}
			e.log.Info("sync failed, backing off",
				zap.Int("attempt", attempt),
				zap.Duration("wait", e.cfg.BackoffBase*time.Duration(attempt)),
				zap.Error(err))
			state = StateBackoff
			arm(e.cfg.BackoffBase * time.Duration(attempt))

		case online = <-e.onlineCh:
			if online {
				periodic.Reset(e.cfg.PeriodicInterval)
				if state != StateInFlight {
					state = StateScheduled
					attempt = 0
					arm(0)
				}
			} else {
				periodic.Stop()
				disarm()
				if state != StateInFlight {
					state = StateIdle
				}
			}

		case <-e.closeCh:
			if inFlight != nil {
				<-inFlight
			}
			return
		}
	}
}

// syncOnce performs one full reconciliation: fetch the server's copy, merge
// it with the local copy, push the difference, and persist the merged result.
// Any failure leaves local state untouched so a later attempt starts clean.
func (e *SyncEngine) syncOnce() error {
	ctx := context.Background()
	syncStart := time.Now()

	state, err := e.store.Load()
	if err != nil {
		// Nothing local to reconcile.
		return nil
	}

	remote, err := e.api.FetchProgress(ctx, state.SessionID)
	if err != nil {
		return err
	}

	remoteByLevel := make(map[int]models.ProgressRecord, len(remote.Levels))
	for _, lp := range remote.Levels {
		remoteByLevel[lp.Level] = recordFromWire(state.SessionID, lp)
	}

	levels := make([]int, 0, len(state.Levels)+len(remoteByLevel))
	seen := make(map[int]bool)
	for level := range state.Levels {
		levels = append(levels, level)
		seen[level] = true
	}
	for level := range remoteByLevel {
		if !seen[level] {
			levels = append(levels, level)
		}
	}
	sort.Ints(levels)

	merged := make(map[int]models.ProgressRecord, len(levels))
	for _, level := range levels {
		var local *models.ProgressRecord
		if ls, ok := state.Levels[level]; ok {
			local = &ls.ProgressRecord
		}
		var rem *models.ProgressRecord
		if r, ok := remoteByLevel[level]; ok {
			r := r
			rem = &r
		}
		m := Merge(local, rem)
		m.SessionID = state.SessionID
		m.Level = level
		merged[level] = m
	}

	for _, level := range levels {
		serverRec := remoteByLevel[level]
		mergedRec := merged[level]
		updates := e.buildUpdates(state, level, &mergedRec, &serverRec)
		for _, u := range updates {
			if err := e.api.PushProgress(ctx, u); err != nil {
				return err
			}
		}
	}

	// The store may have been written again while the network calls were in
	// flight. Saving the pre-fetch snapshot over that write would silently
	// roll the new progress back, so fold the merge into whatever is on disk
	// now and, if it moved, leave the dirty flag set for the next sync.
	final := state
	dirty := false
	if fresh, err := e.store.Load(); err == nil && fresh.UpdatedAt.After(state.UpdatedAt) {
		final = fresh
		dirty = true
	}
	for level, m := range merged {
		m := m
		ls := final.Level(level)
		ls.ProgressRecord = Merge(&ls.ProgressRecord, &m)
	}
	final.Dirty = dirty
	final.LastSyncedAt = syncStart
	if err := e.store.Save(final); err != nil {
		return err
	}

	e.log.Debug("sync complete",
		zap.String("sessionId", final.SessionID),
		zap.Int("levels", len(levels)),
		zap.Bool("dirty", dirty))
	return nil
}

// buildUpdates turns the gap between the merged record and the server's
// current record into delta updates. Counters the server already holds are
// never re-sent, so replayed syncs cannot double-count. Attempts recorded
// since the last successful sync ride along; each update carries at most one,
// with follow-up zero-delta updates for the rest.
func (e *SyncEngine) buildUpdates(state *LocalState, level int, merged, server *models.ProgressRecord) []*models.ProgressUpdate {
	delta := &models.ProgressUpdate{
		SessionID:       state.SessionID,
		DisplayName:     state.DisplayName,
		Level:           level,
		WordsCompleted:  max(0, merged.WordsCompleted-server.WordsCompleted),
		TotalAttempts:   max(0, merged.TotalAttempts-server.TotalAttempts),
		CorrectAttempts: max(0, merged.CorrectAttempts-server.CorrectAttempts),
		TimeSpent:       max(0, merged.TimeSpentSeconds-server.TimeSpentSeconds),
	}
	if merged.CurrentStreak != server.CurrentStreak {
		streak := merged.CurrentStreak
		delta.CurrentStreak = &streak
	}

	var pending []models.WordAttempt
	for _, at := range merged.WordAttempts {
		if at.Timestamp.After(state.LastSyncedAt) {
			pending = append(pending, at)
		}
	}

	var updates []*models.ProgressUpdate
	if len(pending) == 0 {
		if !delta.IsZero() {
			updates = append(updates, delta)
		}
		return updates
	}

	for i, at := range pending {
		u := delta
		if i > 0 {
			u = &models.ProgressUpdate{
				SessionID: state.SessionID,
				Level:     level,
			}
		}
		ts := at.Timestamp
		u.WordAttempt = &models.WordAttemptPayload{
			Word:         at.Word,
			Success:      at.Success,
			TimeTaken:    at.TimeTakenSeconds,
			UserInput:    at.UserInput,
			ErrorPattern: at.ErrorPattern,
			Timestamp:    &ts,
		}
		updates = append(updates, u)
	}
	return updates
}
