package store

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
)

// User and chat ids are random so they carry no creation-order signal.
// Allocation draws from an 8-digit space, widens to 9 digits after repeated
// collisions and finally falls back to a uuid-derived id instead of looping
// unbounded.
const (
	idRetries  = 16
	smallIDMin = 10_000_000
	smallIDMax = 99_999_999
	wideIDMin  = 100_000_000
	wideIDMax  = 999_999_999
)

func allocID(taken func(int64) (bool, error)) (int64, error) {
	spaces := [][2]int64{
		{smallIDMin, smallIDMax},
		{wideIDMin, wideIDMax},
	}
	for _, space := range spaces {
		for i := 0; i < idRetries; i++ {
			id := space[0] + rand.Int64N(space[1]-space[0]+1)
			used, err := taken(id)
			if err != nil {
				return 0, fmt.Errorf("failed to check id: %w", err)
			}
			if !used {
				return id, nil
			}
		}
	}

	u := uuid.New()
	id := int64(binary.BigEndian.Uint64(u[:8]) &^ (1 << 63))
	used, err := taken(id)
	if err != nil {
		return 0, fmt.Errorf("failed to check id: %w", err)
	}
	if used {
		return 0, fmt.Errorf("id space exhausted")
	}
	return id, nil
}
