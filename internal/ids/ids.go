// Package ids generates time-sortable document identifiers.
package ids

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

// TempPrefix marks ids assigned locally before the store has confirmed a create.
const TempPrefix = "temp-"

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
	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a ULID string. IDs made within the same millisecond still sort in order.
func New() string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), mono)
	if err != nil {
		panic(err)
	}
	return id.String()
}

// NewTemp returns a placeholder id for an optimistic create.
func NewTemp() string {
	return TempPrefix + New()
}

// IsTemp reports whether id is a local placeholder.
func IsTemp(id string) bool {
	return strings.HasPrefix(id, TempPrefix)
}
