package scribe

import "github.com/xraph/scribe/id"

// ID is the primary identifier type for all Scribe entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
