package wire

// Default maximum payload size accepted by Decode (16 MB)
const DefaultMaxPayload int = 16_777_216

// Default maximum nesting depth of decoded values
const DefaultMaxDepth int = 32

// Default maximum number of elements in one decoded array
const DefaultMaxArrayElements int = 1_048_576

// Default maximum number of entries in one decoded map
const DefaultMaxMapPairs int = 1_048_576

// Limits bounds what Decode will accept, guarding against malformed or
// hostile replies.
type Limits struct {
	MaxPayload       int
	MaxDepth         int
	MaxArrayElements int
	MaxMapPairs      int
}

// DefaultLimits returns the default decode limits
func DefaultLimits() Limits {
	return Limits{
		MaxPayload:       DefaultMaxPayload,
		MaxDepth:         DefaultMaxDepth,
		MaxArrayElements: DefaultMaxArrayElements,
		MaxMapPairs:      DefaultMaxMapPairs,
	}
}
