package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
)

// Room suffixes for ad-hoc sessions are drawn from [0, roomSuffixRange).
const roomSuffixRange = 10000

// HashRef returns the hex sha256 of s. Used to derive fixed-size cache keys
// from arbitrary references such as file paths or URLs.
func HashRef(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:])
}

func RandomRoomSuffix() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(roomSuffixRange))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
