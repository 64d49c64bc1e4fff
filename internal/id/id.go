// Package id hands out time-sortable identifiers for tickets and runs.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// Monotonic keeps IDs from the same millisecond increasing.
	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a ULID string.
func New() string {
	return At(time.Now())
}

// At returns a ULID stamped with t. Simulated brokers use their own clock.
func At(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(t.UTC()), mono)
	if err != nil {
		panic(err)
	}
	return id.String()
}

// RunName builds a filesystem safe session name such as
// "sac_500_ts_20240101T090000Z_01HN...".
func RunName(prefix string, t time.Time) string {
	parts := []string{}
	if p := strings.TrimSpace(prefix); p != "" {
		parts = append(parts, strings.NewReplacer(" ", "_", ":", "_", ".", "_", "/", "_").Replace(p))
	}
	parts = append(parts, t.UTC().Format("20060102T150405Z"), At(t))
	return strings.Join(parts, "_")
}
