package domain

import "errors"

// Sentinel errors for fetch and decode operations
var (
	// ErrServerOffline indicates the article API is unreachable
	ErrServerOffline = errors.New("article server is unreachable")

	// ErrUnexpectedStatus indicates the server answered with a non-2xx status
	ErrUnexpectedStatus = errors.New("unexpected status code")

	// ErrDecode indicates a payload could not be decoded
	ErrDecode = errors.New("failed to decode payload")

	// ErrInvalidArticle indicates a decoded article is missing its id
	ErrInvalidArticle = errors.New("article is missing an id")

	// ErrDuplicateID indicates two articles in one payload share an id
	ErrDuplicateID = errors.New("duplicate article id")

	// ErrCacheMiss indicates the response store has no entry for a key
	ErrCacheMiss = errors.New("cache miss")
)
