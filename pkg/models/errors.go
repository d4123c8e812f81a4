package models

import "fmt"

// ParseError indicates a snapshot file could not be decoded. The file is
// left in place so a later run can retry it.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// CollisionError indicates a canonical name matched more than one catalog
// entry. The row is dropped; the rest of the file still imports.
type CollisionError struct {
	Store string
	Name  string
	CName string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("name collision in %s: %s", e.Store, e.CName)
}

// MissingFieldError indicates a record lacked a field the importer requires.
type MissingFieldError struct {
	Field string
	Item  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing %s for %q", e.Field, e.Item)
}

// StorageError wraps a database failure during an import pass.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
