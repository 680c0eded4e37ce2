package gateway

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatflowers/vipclub/pkg/types"
)

// Order reference format: <purpose>_<member_id>_<unix_timestamp>.
// Reconciliation extracts the member by position, so this format is a hard
// compatibility contract with the gateway round-trip.

func BuildOrderReference(purpose types.OrderPurpose, memberID string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%d", purpose, memberID, at.Unix())
}

var knownPurposes = map[types.OrderPurpose]struct{}{
	types.OrderPurposeSubscription: {},
	types.OrderPurposeRecurring:    {},
	types.OrderPurposeAdmin:        {},
}

// ParseOrderReference splits a reference into purpose and member id. The
// trailing timestamp only disambiguates references and is not returned.
func ParseOrderReference(ref string) (types.OrderPurpose, string, error) {
	parts := strings.Split(ref, "_")
	if len(parts) < 3 {
		return "", "", fmt.Errorf("malformed order reference: %q", ref)
	}
	purpose := types.OrderPurpose(parts[0])
	if _, ok := knownPurposes[purpose]; !ok {
		return "", "", fmt.Errorf("unknown order purpose in reference %q", ref)
	}
	if parts[1] == "" {
		return "", "", fmt.Errorf("empty member id in reference %q", ref)
	}
	return purpose, parts[1], nil
}
