package preflight

import (
	"fmt"

	"github.com/Aman-CERP/dictionary/internal/store"
)

// CheckDataDirLock reports whether a Bleve data directory is free.
// A held lock usually means a server is running against it.
func (c *Checker) CheckDataDirLock(dir, backend string) CheckResult {
	result := CheckResult{
		Name:     "data_dir_lock",
		Required: false,
	}

	if dir == "" || backend == string(store.BackendSQLite) {
		result.Status = StatusPass
		result.Message = "not required"
		return result
	}

	lock := store.NewDirLock(dir)
	acquired, err := lock.TryLock()
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("failed to check lock: %v", err)
		return result
	}
	if !acquired {
		result.Status = StatusWarn
		result.Message = "held by another process"
		result.Details = "Stop the running server before using offline commands such as 'indices'"
		return result
	}
	_ = lock.Unlock()

	result.Status = StatusPass
	result.Message = "free"
	return result
}

// CheckBackend warns when the data directory already holds indices written
// by the other backend. They would be invisible to the configured one.
func (c *Checker) CheckBackend(dir, backend string) CheckResult {
	result := CheckResult{
		Name:     "backend",
		Required: false,
	}

	configured, err := store.ParseBackend(backend)
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		return result
	}

	found := store.DetectBackend(dir)
	switch {
	case dir == "":
		result.Status = StatusPass
		result.Message = fmt.Sprintf("%s (in memory)", configured)
	case found == "" || found == configured:
		result.Status = StatusPass
		result.Message = string(configured)
	default:
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("data directory holds %s indices, configured backend is %s", found, configured)
		result.Details = "Set SEARCH_BACKEND to match the data directory or point DATA_DIR elsewhere"
	}
	return result
}
