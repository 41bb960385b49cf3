package store

import (
	"errors"
)

// ErrNotFound is returned when no résumé has the requested ID.
var ErrNotFound = errors.New("resume not found")

// ErrAlreadyExists is returned by Add for a duplicate ID.
var ErrAlreadyExists = errors.New("resume already exists")
