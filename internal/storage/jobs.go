package storage

import (
	"time"

	"github.com/google/uuid"

	"survey_pipeline/internal/model"
)

// StartJob records the beginning of one sync cycle.
func (s *Store) StartJob() (*model.ExtractionJob, error) {
	job := model.ExtractionJob{
		ID:        uuid.NewString(),
		Status:    model.JobRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := s.db.Create(&job).Error; err != nil {
		return nil, &StorageError{Op: "start job", Err: err}
	}
	return &job, nil
}

// FinishJob finalizes a cycle with its counts and outcome.
func (s *Store) FinishJob(job *model.ExtractionJob, attempted, succeeded, failed int, errText string) error {
	now := time.Now().UTC()
	job.Status = model.JobCompleted
	if failed > 0 && succeeded == 0 {
		job.Status = model.JobFailed
	}
	job.Attempted = attempted
	job.Succeeded = succeeded
	job.Failed = failed
	job.Error = errText
	job.FinishedAt = &now

	if err := s.db.Save(job).Error; err != nil {
		return &StorageError{Op: "finish job", Err: err}
	}
	return nil
}

// RecentJobs returns the latest cycles, newest first.
func (s *Store) RecentJobs(limit int) ([]model.ExtractionJob, error) {
	var jobs []model.ExtractionJob
	if err := s.db.Order("started_at DESC").Limit(limit).Find(&jobs).Error; err != nil {
		return nil, &StorageError{Op: "recent jobs", Err: err}
	}
	return jobs, nil
}
