// errors.go defines the error kinds that terminate a conversion.
package wt

import "fmt"

// Direction identifies which way a conversion runs.
type Direction string

const (
	DirectionWt2HTML Direction = "wt2html" // wikitext -> annotated HTML
	DirectionHTML2Wt Direction = "html2wt" // annotated HTML -> wikitext
)

// ResourceLimitExceededError is returned when a bump pushes a resource
// counter above its configured limit. It is fatal for the request.
type ResourceLimitExceededError struct {
	Direction Direction
	Resource  string
	Limit     int
	Actual    int
}

func (e *ResourceLimitExceededError) Error() string {
	return fmt.Sprintf("%s: resource limit exceeded for %q (limit %d, actual %d)",
		e.Direction, e.Resource, e.Limit, e.Actual)
}

// NotFoundError signals a lookup of something that was never stored.
type NotFoundError struct {
	Kind string // "fragment", "template", ...
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// UnsupportedOperationError is returned by the extension API when an
// operation is called in the wrong mode or with a context it does not cover.
type UnsupportedOperationError struct {
	Op     string
	Reason string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported operation %s: %s", e.Op, e.Reason)
}
