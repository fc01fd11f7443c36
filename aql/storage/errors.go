package storage

import "errors"

var (
	ErrCollectionExists   = errors.New("collection already exists")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrInvalidName        = errors.New("invalid collection name")
	ErrInvalidDocument    = errors.New("document must be an object")
	ErrInvalidIndex       = errors.New("invalid index definition")
	ErrIndexNotFound      = errors.New("index not found")
	ErrUniqueConstraint   = errors.New("unique constraint violated")
	ErrCorruptStore       = errors.New("corrupt store")
)
