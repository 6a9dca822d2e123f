// Package store provides data access for review run history.
package store

import (
	"time"

	"gorm.io/gorm"

	"github.com/mergewarden/mergewarden/internal/model"
	"github.com/mergewarden/mergewarden/pkg/errors"
)

// ListOptions filters and paginates run history queries
type ListOptions struct {
	ProjectID int64
	MRIID     int64
	Status    string
	Limit     int
	Offset    int
}

// RunStore persists review run records
type RunStore interface {
	// Create inserts a new run record
	Create(run *model.ReviewRun) error

	// Update saves changes to an existing run record
	Update(run *model.ReviewRun) error

	// GetByRunID fetches one run by its external run id
	GetByRunID(runID string) (*model.ReviewRun, error)

	// List returns runs newest first plus the total count for the filter
	List(opts ListOptions) ([]model.ReviewRun, int64, error)

	// DeleteOlderThan hard-deletes runs created before the cutoff and
	// returns how many rows went away
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

type runStore struct {
	db *gorm.DB
}

// NewRunStore creates a RunStore backed by the given database
func NewRunStore(db *gorm.DB) RunStore {
	return &runStore{db: db}
}

func (s *runStore) Create(run *model.ReviewRun) error {
	if err := s.db.Create(run).Error; err != nil {
		return errors.Wrap(errors.ErrCodeDBQuery, "failed to create review run", err)
	}
	return nil
}

func (s *runStore) Update(run *model.ReviewRun) error {
	if err := s.db.Save(run).Error; err != nil {
		return errors.Wrap(errors.ErrCodeDBQuery, "failed to update review run", err)
	}
	return nil
}

func (s *runStore) GetByRunID(runID string) (*model.ReviewRun, error) {
	var run model.ReviewRun
	err := s.db.Where("run_id = ?", runID).First(&run).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.ErrCodeNotFound, "review run not found")
		}
		return nil, errors.Wrap(errors.ErrCodeDBQuery, "failed to query review run", err)
	}
	return &run, nil
}

func (s *runStore) List(opts ListOptions) ([]model.ReviewRun, int64, error) {
	query := s.db.Model(&model.ReviewRun{})

	if opts.ProjectID > 0 {
		query = query.Where("project_id = ?", opts.ProjectID)
	}
	if opts.MRIID > 0 {
		query = query.Where("mr_iid = ?", opts.MRIID)
	}
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeDBQuery, "failed to count review runs", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	var runs []model.ReviewRun
	err := query.Order("created_at DESC").Limit(limit).Offset(opts.Offset).Find(&runs).Error
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeDBQuery, "failed to list review runs", err)
	}

	return runs, total, nil
}

func (s *runStore) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := s.db.Unscoped().Where("created_at < ?", cutoff).Delete(&model.ReviewRun{})
	if result.Error != nil {
		return 0, errors.Wrap(errors.ErrCodeDBQuery, "failed to delete old review runs", result.Error)
	}
	return result.RowsAffected, nil
}
