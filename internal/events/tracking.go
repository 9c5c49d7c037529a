package events

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/angelmondragon/civreg-backend/pkg/enums"
)

// base32 alphabet without the ambiguous 0/1/O/I characters.
const trackingAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const trackingSuffixLen = 6

// newTrackingID generates the human-readable tracking id (kind prefix plus
// six characters), retrying on the rare collision.
func (s *service) newTrackingID(ctx context.Context, kind enums.EventKind) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		candidate, err := randomTrackingID(kind)
		if err != nil {
			return "", err
		}
		exists, err := s.repo.TrackingIDExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("tracking id space exhausted after retries")
}

func randomTrackingID(kind enums.EventKind) (string, error) {
	buf := make([]byte, trackingSuffixLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading randomness: %w", err)
	}
	out := make([]byte, trackingSuffixLen)
	for i, b := range buf {
		out[i] = trackingAlphabet[int(b)%len(trackingAlphabet)]
	}
	return kind.TrackingIDPrefix() + string(out), nil
}
