// ledger.go tracks per-direction resource usage against configured limits.
package wt

// Limits maps a resource name to the largest accumulated total allowed.
// Resources without an entry are unbounded.
type Limits map[string]int

// Resource names bumped by the bundled pipeline and serializer.
const (
	ResourceWikitextSize  = "wikitextSize"
	ResourceToken         = "token"
	ResourceTemplateDepth = "templateDepth"
	ResourceTransclusion  = "transclusion"
	ResourceExtension     = "extension"
	ResourceHTMLSize      = "htmlSize"
	ResourceNode          = "node"
)

// ResourceLedger accumulates usage counters for one direction.
// It is owned by a single Env and is not safe for concurrent use.
type ResourceLedger struct {
	direction Direction
	limits    Limits
	usage     map[string]int
}

// NewResourceLedger creates a ledger for the given direction. A nil limits
// map means nothing is bounded.
func NewResourceLedger(direction Direction, limits Limits) *ResourceLedger {
	copied := make(Limits, len(limits))
	for k, v := range limits {
		copied[k] = v
	}
	return &ResourceLedger{
		direction: direction,
		limits:    copied,
		usage:     make(map[string]int),
	}
}

// Bump adds count to the named counter. When a limit is configured for the
// resource and the new total exceeds it, the counter keeps the new total and
// a *ResourceLimitExceededError is returned.
func (l *ResourceLedger) Bump(resource string, count int) error {
	total := l.usage[resource] + count
	l.usage[resource] = total
	if limit, ok := l.limits[resource]; ok && total > limit {
		return &ResourceLimitExceededError{
			Direction: l.direction,
			Resource:  resource,
			Limit:     limit,
			Actual:    total,
		}
	}
	return nil
}

// Used returns the accumulated total for a resource.
func (l *ResourceLedger) Used(resource string) int {
	return l.usage[resource]
}

// Limit returns the configured limit for a resource, if any.
func (l *ResourceLedger) Limit(resource string) (int, bool) {
	limit, ok := l.limits[resource]
	return limit, ok
}

// Direction returns the conversion direction this ledger belongs to.
func (l *ResourceLedger) Direction() Direction {
	return l.direction
}

// Usage returns a copy of all counters.
func (l *ResourceLedger) Usage() map[string]int {
	out := make(map[string]int, len(l.usage))
	for k, v := range l.usage {
		out[k] = v
	}
	return out
}
