package domain

// InvalidationScope names how much derived decoration state a change event
// dirties.
type InvalidationScope string

const (
	// InvalidateAll dirties every decoration; the only scope produced today.
	InvalidateAll InvalidationScope = "all"
	// InvalidateKeys dirties a specific key set; reserved for incremental
	// invalidation.
	InvalidateKeys InvalidationScope = "keys"
)

// Invalidation asks consumers of derived state to recompute. Keys is set only
// for the InvalidateKeys scope.
type Invalidation struct {
	Scope InvalidationScope
	Keys  []PathKey
}

// InvalidateAllEvent returns the whole-tree invalidation.
func InvalidateAllEvent() Invalidation {
	return Invalidation{Scope: InvalidateAll}
}
