package service

import "errors"

var (
	// ErrEmptyQuery indicates an ask request with no question text.
	ErrEmptyQuery = errors.New("foodscope: query is empty")

	// ErrDegraded indicates the service could not load its artifacts and
	// cannot answer questions.
	ErrDegraded = errors.New("foodscope: service is degraded")

	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("foodscope: client is closed")
)
