package aql

import "strconv"

// DocumentID identifies a document within its collection. Identifiers are
// assigned at insertion and never change.
type DocumentID uint64

func (id DocumentID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// System attributes set on every stored document.
const (
	KeyAttribute = "_key"
	IDAttribute  = "_id"
)

// Document is a stored object value together with its identifier.
type Document struct {
	ID    DocumentID
	Value Value
}

// Get reads the attribute at path p; missing attributes read as Null.
func (d Document) Get(p Path) Value {
	return d.Value.GetPath(p)
}
