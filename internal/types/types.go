// Package types provides the filter tree model shared across qbfilter components.
//
// The rule tree is decoded once from query-builder JSON into the Node sum
// type (Leaf or Group). Translation, storage and the API operate on these
// types; encoding/json is the only wire concern handled here.
package types

// FilterID represents a UUIDv7 saved-filter identifier.
type FilterID string

// SavedFilter is a named filter payload persisted by the filter store.
type SavedFilter struct {
	FilterID  FilterID `db:"filter_id" json:"filter_id" yaml:"filter_id"`
	Name      string   `db:"name" json:"name" yaml:"name"`
	Payload   string   `db:"payload" json:"payload" yaml:"payload"`
	CreatedAt string   `db:"created_at" json:"created_at" yaml:"created_at"`
}

// Resource limits enforced while decoding and walking filter trees.
const (
	// MaxPayloadSize limits the filter document accepted for decoding.
	MaxPayloadSize = 1024 * 1024

	// MaxGroupDepth bounds recursion through nested groups.
	MaxGroupDepth = 32

	// MaxFilterNameLength bounds saved filter names.
	MaxFilterNameLength = 128
)
