package service

import "errors"

var (
	// ErrInvalidInput reports a request that fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict reports a create or update that collides with an existing unique value.
	ErrConflict = errors.New("resource already exists")

	// ErrReferenced reports a delete of a row that other records still point to.
	ErrReferenced = errors.New("resource is still referenced")

	// ErrUploadTooLarge reports an upload over the configured size limit.
	ErrUploadTooLarge = errors.New("upload exceeds the size limit")
)
