package rag

import (
	"testing"

	"github.com/google/uuid"
)

// Composite chunk IDs like "policy_<hex>_0" are not valid Qdrant point IDs;
// they must be mapped onto real UUIDs before upserting.
func TestPointIDIsValidUUID(t *testing.T) {
	t.Parallel()

	for _, id := range []string{
		"policy_3f2a9c41b6d84e38a0f17c5d9b2e6a01_0",
		"collective-agreement_ffffffffffffffffffffffffffffffff_12",
		"weird title with spaces_0",
		"",
	} {
		got := pointID(id)
		if _, err := uuid.Parse(got); err != nil {
			t.Errorf("pointID(%q) = %q, not a UUID: %v", id, got, err)
		}
	}
}

func TestPointIDDeterministicAndDistinct(t *testing.T) {
	t.Parallel()

	a := pointID("policy_3f2a9c41b6d84e38a0f17c5d9b2e6a01_0")
	b := pointID("policy_3f2a9c41b6d84e38a0f17c5d9b2e6a01_0")
	c := pointID("policy_3f2a9c41b6d84e38a0f17c5d9b2e6a01_1")

	if a != b {
		t.Errorf("pointID not deterministic: %q vs %q", a, b)
	}
	if a == c {
		t.Errorf("distinct chunk IDs mapped to the same point ID %q", a)
	}
}
