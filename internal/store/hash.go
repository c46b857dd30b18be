package store

import (
	"github.com/zeebo/xxh3"

	"rubylens/internal/pin"
)

// Identity computes the content hash of a pin set. The hash covers each
// pin's identity string in order, so it changes exactly when a rebuild
// would produce a different store. ApiMap compares hashes instead of
// relying on slice aliasing to decide whether to rebuild.
func Identity(pins []*pin.Pin) uint64 {
	h := xxh3.New()
	sep := []byte{0}
	for _, p := range pins {
		_, _ = h.WriteString(p.Identity())
		_, _ = h.Write(sep)
	}
	return h.Sum64()
}
