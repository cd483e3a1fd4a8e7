package revocation

import (
	"fmt"
	"time"

	"reliefledger/pkg/platform/sentinel"
	platformstrings "reliefledger/pkg/platform/strings"
)

// Clock returns the current time.
type Clock func() time.Time

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}

// nonEmpty drops blank and repeated JTIs. A batch upsert may not touch the
// same row twice.
func nonEmpty(jtis []string) []string {
	return platformstrings.DedupeAndTrim(jtis)
}
