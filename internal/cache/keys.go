package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// JobStatusKey returns the cache key for a job's status.
func JobStatusKey(jobID uuid.UUID) string {
	return fmt.Sprintf("docminer:job:%s:status", jobID)
}
