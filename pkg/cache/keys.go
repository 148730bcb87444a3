package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Keyer builds cache keys. The prefix isolates processes that share one
// backend but resolve against different indexes or environments.
type Keyer struct {
	prefix string
}

// NewKeyer returns a Keyer whose keys all start with prefix.
func NewKeyer(prefix string) Keyer {
	return Keyer{prefix: prefix}
}

// LinksKey is the key for the parsed links of an index page.
func (k Keyer) LinksKey(pageURL string) string {
	return k.prefix + "links:" + Hash([]byte(pageURL))
}

// MetadataKey is the key for the METADATA headers of an archive.
func (k Keyer) MetadataKey(archiveURL string) string {
	return k.prefix + "metadata:" + Hash([]byte(archiveURL))
}

// Prefix returns the namespace shared by every key this Keyer builds.
func (k Keyer) Prefix() string {
	return k.prefix
}
