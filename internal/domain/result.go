package domain

// Reasons carried by the not-found sentinel
const (
	ReasonNodeNotFound     = "Node not found."
	ReasonDocumentNotFound = "Document not found."
	ReasonInvalidID        = "Invalid ID"
)

// NotFound is returned in place of an entity when an id does not resolve to
// an entity of the requested type.
type NotFound struct {
	ID     string `json:"id"`
	Errors string `json:"errors"`
}

// Result is the outcome of a read: either a found entity or a NotFound.
// The zero value is a NotFound with an empty id.
type Result struct {
	doc     Document
	missing *NotFound
}

// Found wraps an entity
func Found(doc Document) Result {
	return Result{doc: doc}
}

// Missing builds the not-found sentinel for id
func Missing(id, reason string) Result {
	return Result{missing: &NotFound{ID: id, Errors: reason}}
}

// IsFound reports whether the result holds an entity
func (r Result) IsFound() bool {
	return r.doc != nil && r.missing == nil
}

// Document returns the entity or nil
func (r Result) Document() Document {
	if !r.IsFound() {
		return nil
	}
	return r.doc
}

// NotFound returns the sentinel or nil when the entity was found
func (r Result) NotFound() *NotFound {
	if r.IsFound() {
		return nil
	}
	if r.missing == nil {
		return &NotFound{Errors: ReasonNodeNotFound}
	}
	return r.missing
}
