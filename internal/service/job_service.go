package service

import (
	"fmt"
	"log"
	"time"

	"studiobook/internal/db"
	"studiobook/internal/repository"
)

// JobService runs the periodic lifecycle sweep: checked-in bookings whose
// slot has passed become completed, confirmed bookings that never checked in
// become no-shows after a grace period.
type JobService struct {
	Repo        *repository.JobRepository
	NoShowGrace time.Duration
}

func NewJobService(repo *repository.JobRepository, noShowGrace time.Duration) *JobService {
	return &JobService{Repo: repo, NoShowGrace: noShowGrace}
}

// SweepBookingStatuses applies both transitions. Each half logs and moves on
// so one failing query never starves the other.
func (s *JobService) SweepBookingStatuses() error {
	if err := s.completePastCheckIns(); err != nil {
		log.Printf("Cron Job: %v", err)
	}
	if err := s.markNoShows(); err != nil {
		log.Printf("Cron Job: %v", err)
	}
	return nil
}

func (s *JobService) completePastCheckIns() error {
	ids, err := s.Repo.GetCheckedInPastSlotIDs()
	if err != nil {
		return fmt.Errorf("failed to get checked-in bookings past slot time: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	log.Printf("Cron Job: Marking %d bookings as '%s'. IDs: %v", len(ids), db.StatusCompleted, ids)
	if err := s.Repo.UpdateBookingStatuses(ids, db.StatusCompleted); err != nil {
		return fmt.Errorf("failed to complete bookings: %w", err)
	}
	return nil
}

func (s *JobService) markNoShows() error {
	ids, err := s.Repo.GetNoShowIDs(int(s.NoShowGrace.Minutes()))
	if err != nil {
		return fmt.Errorf("failed to get no-show candidates: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	log.Printf("Cron Job: Marking %d bookings as '%s'. IDs: %v", len(ids), db.StatusNoShow, ids)
	if err := s.Repo.UpdateBookingStatuses(ids, db.StatusNoShow); err != nil {
		return fmt.Errorf("failed to mark no-shows: %w", err)
	}
	return nil
}

// PruneReferenceSequences deletes per-minute reference counters older than a
// day. They are only needed within their own minute.
func (s *JobService) PruneReferenceSequences() error {
	cutoff := time.Now().Add(-24 * time.Hour).Format(referenceMinuteLayout)
	n, err := s.Repo.DeleteStaleReferenceSequences(cutoff)
	if err != nil {
		return fmt.Errorf("cron job: failed to prune reference sequences: %w", err)
	}
	if n > 0 {
		log.Printf("Cron Job: Pruned %d stale reference sequence rows", n)
	}
	return nil
}
