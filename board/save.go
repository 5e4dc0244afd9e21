package board

import (
	"context"
	"errors"
	"time"

	"marker-mind/core"

	"github.com/sirupsen/logrus"
)

// Save replaces the remote board with the current snapshot. Only one round
// trip runs at a time: callers arriving while a save is in flight share a
// single follow-up round that saves whatever the snapshot is when it starts.
//
// On failure the local snapshot and dirty flag are left untouched and a
// *core.PersistenceError is returned. ctx only bounds how long the caller
// waits; the round itself is bounded by Options.SaveTimeout. A caller that
// stops waiting also gets a *core.PersistenceError, wrapping ctx.Err(),
// while the round carries on.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	var round *saveRound
	switch {
	case s.inflight == nil:
		round = newSaveRound()
		s.inflight = round
		go s.runSaves(round)
	case s.queued == nil:
		round = newSaveRound()
		s.queued = round
	default:
		round = s.queued
	}
	round.waiters++
	s.mu.Unlock()

	select {
	case <-round.done:
		return round.err
	case <-ctx.Done():
		return &core.PersistenceError{BoardID: s.id, Err: ctx.Err()}
	}
}

func (s *Store) runSaves(round *saveRound) {
	for round != nil {
		round.err = s.saveRound()
		close(round.done)

		s.mu.Lock()
		round = s.queued
		s.queued = nil
		s.inflight = round
		s.mu.Unlock()
	}
}

func (s *Store) saveRound() error {
	s.mu.Lock()
	snap, gen := s.snapshot, s.generation
	s.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{"board_id": s.id, "objects": snap.Len()})

	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()

	if err := s.persistence.SaveBoard(ctx, s.id, snap); err != nil {
		log.WithError(err).Error("Failed to save board")
		return &core.PersistenceError{BoardID: s.id, Err: err}
	}

	s.mu.Lock()
	if s.generation == gen {
		s.dirty = false
	}
	st, subs := s.notifyLocked()
	s.mu.Unlock()
	notify(subs, st)
	log.Info("Board saved")

	s.reconcile(ctx, gen)
	return nil
}

// reconcile refreshes the server generated fields after a successful save.
// Remote state is installed only if nothing changed locally since the save
// started; otherwise the newer local edits win and stay dirty.
func (s *Store) reconcile(ctx context.Context, gen uint64) {
	log := logrus.WithField("board_id", s.id)

	b, err := s.persistence.FetchBoard(ctx, s.id)
	if err != nil {
		log.WithError(err).Warn("Failed to refresh board after save")
		return
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		log.Debug("Skipped refresh, board changed during save")
		return
	}
	s.install(b)
	st, subs := s.notifyLocked()
	s.mu.Unlock()
	notify(subs, st)

	log.WithField("revision", b.Revision).Debug("Board reconciled")
}

// AutoSave saves the board every interval while it is dirty, until ctx is
// done. Failures are logged and retried on the next tick.
func (s *Store) AutoSave(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.Dirty() {
				continue
			}
			if err := s.Save(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logrus.WithField("board_id", s.id).WithError(err).Warn("Auto-save failed")
			}
		}
	}
}
