package typesense

import (
	"errors"
	"fmt"
)

// ErrCollectionExists is wrapped by CreateCollection when the engine reports
// a name conflict. Callers that treat create as ensure check with errors.Is.
var ErrCollectionExists = errors.New("collection already exists")

// ConnectionError wraps transport-level failures: dial errors, resets and
// timeouts. The engine was never reached or never answered.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("typesense: %s: connection failed: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// EngineError is a non-2xx engine response that is not specifically
// tolerated by the operation. Body carries the raw response for diagnostics.
type EngineError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("typesense: %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// PartialImportError reports a batch import where some lines failed. The
// succeeded lines stay persisted; there is no rollback.
type PartialImportError struct {
	Succeeded  int
	Failed     int
	FirstError string
}

func (e *PartialImportError) Error() string {
	return fmt.Sprintf("typesense: imported %d documents, %d failed, first error: %s",
		e.Succeeded, e.Failed, e.FirstError)
}
