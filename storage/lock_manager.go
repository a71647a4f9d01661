package storage

import "sync"

// OperationType defines whether an operation is read or write.
type OperationType int

const (
	// ReadOperation may run alongside other reads.
	ReadOperation OperationType = iota

	// WriteOperation excludes every other operation.
	WriteOperation
)

// String returns the string representation of the OperationType
func (o OperationType) String() string {
	if o == WriteOperation {
		return "write"
	}
	return "read"
}

// LockManager serializes access to a set of models shared between
// goroutines. The models themselves carry no locks, so every access from
// concurrent code goes through Execute.
type LockManager struct {
	mu sync.RWMutex
}

// NewLockManager creates a new lock manager instance.
func NewLockManager() *LockManager {
	return &LockManager{}
}

// Execute runs fn under the read or write lock. The lock is released when
// fn returns, including on panic.
//
//	err := lm.Execute(ReadOperation, func() error {
//	    rows = users.Query().Limit(20).All()
//	    return nil
//	})
func (lm *LockManager) Execute(opType OperationType, fn func() error) error {
	if opType == WriteOperation {
		lm.mu.Lock()
		defer lm.mu.Unlock()
	} else {
		lm.mu.RLock()
		defer lm.mu.RUnlock()
	}
	return fn()
}

// ExecuteWithResult is Execute for functions producing a value. The caller
// type-asserts the result.
func (lm *LockManager) ExecuteWithResult(opType OperationType, fn func() (interface{}, error)) (interface{}, error) {
	var result interface{}
	err := lm.Execute(opType, func() error {
		var err error
		result, err = fn()
		return err
	})
	return result, err
}
