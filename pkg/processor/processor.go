// The processor sits between the wire ports and the cache layer. It maps verb-tagged
// requests onto cache calls and wraps the outcome in a success/error envelope, so ports
// only ever translate bytes and never touch cache semantics.
//
// The processor is also the panic boundary: nothing below it is supposed to panic, but
// if something does (a bug in the cache layer), the panic is caught here and surfaced
// as an error response instead of taking the connection handler down. Panics raised by
// event subscribers never get this far: the event bus contains them itself.

package processor

import (
	"errors"
	"fmt"
	"time"

	"github.com/nobletooth/mango/pkg/cache"
)

// Operation is the verb of a cache request. The text forms are the uppercase strings
// legacy callers send on the wire.
type Operation string

const (
	OpCreate Operation = "CREATE"
	OpRead   Operation = "READ"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

// Request is one cache operation as consumed by the processor.
type Request struct {
	Operation Operation
	Key       string
	Value     any    // Used by CREATE and UPDATE.
	// ExpirationSeconds, when set, gives CREATE/UPDATE a TTL. Zero means "expires
	// immediately" and is distinct from the field being absent (nil), which means
	// "no expiry" on CREATE and "preserve the current expiry" on UPDATE.
	ExpirationSeconds *int64
}

// Response is the envelope every request resolves to. A request that simply didn't
// take effect (duplicate create, missing key, expired entry) yields Success=false
// with no Error; Error is reserved for invalid verbs and caught panics.
type Response struct {
	Success bool
	Value   any    // Set by successful READs.
	Error   string // Empty unless the request failed exceptionally.
}

// invalidOperationError is what unrecognized verbs resolve to.
const invalidOperationError = "Invalid operation"

// Processor maps requests onto a cache layer.
type Processor struct {
	cache cache.Layer
}

// New creates a processor over the given cache layer.
func New(cacheLayer cache.Layer) (*Processor, error) {
	if cacheLayer == nil {
		return nil, errors.New("expected a non-nil cache layer")
	}
	return &Processor{cache: cacheLayer}, nil
}

// Process executes one request. It never panics: exceptional failures come back as
// Response.Error.
func (p *Processor) Process(request Request) (response Response) {
	defer func() {
		if r := recover(); r != nil {
			response = Response{Success: false, Error: fmt.Sprintf("%v", r)}
		}
	}()

	switch request.Operation {
	case OpCreate:
		if request.ExpirationSeconds != nil {
			ttl := time.Duration(*request.ExpirationSeconds) * time.Second
			return Response{Success: p.cache.CreateTTL(request.Key, request.Value, ttl)}
		}
		return Response{Success: p.cache.Create(request.Key, request.Value)}
	case OpRead:
		value := p.cache.Read(request.Key)
		return Response{Success: value != nil, Value: value}
	case OpUpdate:
		if request.ExpirationSeconds != nil {
			ttl := time.Duration(*request.ExpirationSeconds) * time.Second
			return Response{Success: p.cache.UpdateTTL(request.Key, request.Value, ttl)}
		}
		return Response{Success: p.cache.Update(request.Key, request.Value)}
	case OpDelete:
		return Response{Success: p.cache.Delete(request.Key)}
	default:
		return Response{Success: false, Error: invalidOperationError}
	}
}
