package storage

import (
	"time"

	"github.com/papercomputeco/gauntlet/pkg/operation"
)

// OperationUpdate is a partial update of an operation record. Nil fields are
// left untouched.
type OperationUpdate struct {
	Status    *operation.Status
	Result    *operation.Result
	Notes     *string
	StartTime *time.Time
	EndTime   *time.Time

	// ClearResult removes a previously stored result. It wins over Result.
	ClearResult bool
}

// Empty reports whether the update touches no field.
func (u OperationUpdate) Empty() bool {
	return u.Status == nil && u.Result == nil && u.Notes == nil &&
		u.StartTime == nil && u.EndTime == nil && !u.ClearResult
}

// OperationQuery filters ListOperations.
type OperationQuery struct {
	Status operation.Status
	Limit  int
}

// MessageQuery filters ListMessages. OperationID is required.
type MessageQuery struct {
	OperationID string
	Limit       int
}

// PayloadQuery filters ListPayloads.
type PayloadQuery struct {
	OperationID string
	Limit       int
}
