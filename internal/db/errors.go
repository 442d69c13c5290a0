package db

import "errors"

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrAlreadyExists is returned by Create when the document ID is already taken.
// Firestore enforces document-ID uniqueness, which is what makes the
// read-or-create provisioning flow safe under concurrent first sign-ins.
var ErrAlreadyExists = errors.New("document already exists")
