package gen_test

import (
	"testing"

	"hotsoonripper/pkg/gen"

	"github.com/google/uuid"
)

func TestRunID(t *testing.T) {
	seen := make(map[string]struct{})

	for range 100 {
		id := gen.RunID()

		u, err := uuid.Parse(id)
		if err != nil {
			t.Fatalf("RunID() = %q is not a uuid: %v", id, err)
		}

		if u.Version() != 4 {
			t.Errorf("expected version 4, got %d", u.Version())
		}

		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate run id %q", id)
		}

		seen[id] = struct{}{}
	}
}
