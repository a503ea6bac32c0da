package ledger

import (
	"encoding/binary"
	"fmt"

	id "starbeam/pkg/domain"
)

// Key prefixes. Values are persisted, never renumber.
const (
	PrefixInstance      = 1
	PrefixBoundIdentity = 2
	PrefixOwner         = 3
	PrefixSignerKey     = 4
	PrefixNonce         = 5
	PrefixRegistry      = 6
	PrefixBalance       = 7
	PrefixGenesis       = 8
)

// EncodeKey builds a key from a prefix byte and fixed-layout segments.
func EncodeKey(prefix uint8, segments ...any) []byte {
	key := []byte{prefix}
	for _, segment := range segments {
		switch s := segment.(type) {
		case uint64:
			key = binary.BigEndian.AppendUint64(key, s)
		case id.IdentityKey:
			key = append(key, s[:]...)
		case id.Address:
			key = append(key, s...)
		case string:
			key = append(key, s...)
		case []byte:
			key = append(key, s...)
		default:
			panic(fmt.Sprintf("unknown key segment type (%T)", segment))
		}
	}
	return key
}
