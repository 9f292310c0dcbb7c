package migration

import "errors"

var (
	ErrMigrationInProgress = errors.New("another migration run is in progress")
	ErrEmptyGroup          = errors.New("cannot merge an empty record group")
)
