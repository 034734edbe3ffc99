package document

import "errors"

// Errors returned by document operations.
var (
	// ErrInvalidPosition indicates a position outside the document or inside
	// a UTF-8 sequence.
	ErrInvalidPosition = errors.New("invalid position")

	// ErrUnknownTag indicates a tag name that is not in the tag table.
	ErrUnknownTag = errors.New("unknown tag")

	// ErrUnknownMark indicates a mark name that was never set.
	ErrUnknownMark = errors.New("unknown mark")
)
