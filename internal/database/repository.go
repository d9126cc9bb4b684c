package database

import (
	"time"

	"github.com/pkg/errors"

	"github.com/t3track/t3agent/internal/logging"
	"github.com/t3track/t3agent/internal/models"
)

// Repository handles diagnostics storage
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateErrorLog inserts a new error log into the database
func (r *Repository) CreateErrorLog(errorLog *models.ErrorLog) error {
	result := r.db.Create(errorLog)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert error log")
	}
	return nil
}

// RecentErrors returns up to limit error logs, newest first
func (r *Repository) RecentErrors(limit int) ([]models.ErrorLog, error) {
	if limit <= 0 {
		limit = 50
	}

	var logs []models.ErrorLog
	result := r.db.Order("timestamp DESC").Order("id DESC").Limit(limit).Find(&logs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query error logs")
	}
	return logs, nil
}

// ErrorsSince returns error logs at or after since, oldest first
func (r *Repository) ErrorsSince(since time.Time) ([]models.ErrorLog, error) {
	var logs []models.ErrorLog
	result := r.db.Where("timestamp >= ?", since).Order("timestamp ASC").Find(&logs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query error logs")
	}
	return logs, nil
}

// CountBySource aggregates error logs per source
func (r *Repository) CountBySource() ([]models.ErrorCount, error) {
	var counts []models.ErrorCount
	result := r.db.Model(&models.ErrorLog{}).
		Select("source, COUNT(*) as count").
		Group("source").
		Order("count DESC").
		Scan(&counts)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to count error logs")
	}
	return counts, nil
}

// DeleteErrorsBefore removes error logs older than before (soft delete)
func (r *Repository) DeleteErrorsBefore(before time.Time) (int64, error) {
	result := r.db.Where("timestamp < ?", before).Delete(&models.ErrorLog{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete old error logs")
	}
	return result.RowsAffected, nil
}

// Clear removes all error logs from the database
func (r *Repository) Clear() error {
	result := r.db.Exec("DELETE FROM error_logs")
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to clear error logs")
	}
	return nil
}

// ErrorSink stores non-fatal failures and logs them. It satisfies
// tracking.ErrorSink and the relay's sink.
type ErrorSink struct {
	repo   *Repository
	logger logging.Logger
	now    func() time.Time
}

func NewErrorSink(repo *Repository, logger logging.Logger) *ErrorSink {
	if logger == nil {
		logger = logging.Nop()
	}
	return &ErrorSink{repo: repo, logger: logger, now: time.Now}
}

func (s *ErrorSink) RecordError(source string, err error) {
	errorLog := &models.ErrorLog{
		Timestamp: s.now(),
		Source:    source,
		ErrorMsg:  err.Error(),
	}

	if dbErr := s.repo.CreateErrorLog(errorLog); dbErr != nil {
		s.logger.Error("failed to store error in database", "source", source, "error", err, "db_error", dbErr)
		return
	}
	s.logger.Debug("error logged to database", "source", source, "error", err)
}
