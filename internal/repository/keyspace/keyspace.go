// Package keyspace derives Redis key and index names for a document index.
package keyspace

import "strings"

// TextField is the hash field holding the document text.
const TextField = "text"

// Keyspace names the keys of one document index: <prefix><index>:<id>.
type Keyspace struct {
	prefix string
	index  string
}

// New creates a keyspace for the given storage prefix and index name.
func New(keyPrefix, indexName string) Keyspace {
	return Keyspace{prefix: keyPrefix, index: indexName}
}

// DocPrefix returns the key prefix shared by every document of the index.
func (k Keyspace) DocPrefix() string {
	return k.prefix + k.index + ":"
}

// DocKey returns the hash key for a document id.
func (k Keyspace) DocKey(id string) string {
	return k.DocPrefix() + id
}

// IndexName returns the FT index name.
func (k Keyspace) IndexName() string {
	return k.prefix + k.index + ":idx"
}

// DocID strips the document prefix from a hash key.
func (k Keyspace) DocID(key string) string {
	return strings.TrimPrefix(key, k.DocPrefix())
}
