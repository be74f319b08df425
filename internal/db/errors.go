package db

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyExists is returned when a create would overwrite an existing document.
	ErrAlreadyExists = errors.New("document already exists")
)

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func isAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists) || status.Code(err) == codes.AlreadyExists
}
