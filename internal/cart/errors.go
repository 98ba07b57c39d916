package cart

import "errors"

var (
	ErrInvalidQuantity = errors.New("cart quantity must be positive")
	ErrInvalidProduct  = errors.New("cart product type and id are required")
	ErrSessionRequired = errors.New("cart session id is required")
	ErrPersistFailed   = errors.New("cart persist failed")
)
