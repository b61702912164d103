package service

import (
	"errors"

	"github.com/egannguyen/printshop-backend/internal/entity"
)

// storageErr passes domain errors through and wraps everything else as a
// storage failure.
func storageErr(op string, err error) error {
	if err == nil || entity.IsDomainError(err) || errors.Is(err, entity.ErrStorage) {
		return err
	}
	return &entity.StorageError{Op: op, Err: err}
}
