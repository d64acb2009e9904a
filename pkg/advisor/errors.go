package advisor

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedSuggestions = errors.New("suggestions are not a valid product list")
	ErrNoImage              = errors.New("no image was generated")
)

// SuggestionFetchError means no product list could be produced for a query.
type SuggestionFetchError struct {
	Query string
	Err   error
}

func (e *SuggestionFetchError) Error() string {
	return fmt.Sprintf("failed to get suggestions for %q: %v", e.Query, e.Err)
}

func (e *SuggestionFetchError) Unwrap() error { return e.Err }

// ImageGenerationError is recovered per product; the card keeps its placeholder.
type ImageGenerationError struct {
	Product string
	Err     error
}

func (e *ImageGenerationError) Error() string {
	return fmt.Sprintf("failed to generate image for %q: %v", e.Product, e.Err)
}

func (e *ImageGenerationError) Unwrap() error { return e.Err }

// BuyingOptionsError is recovered per product as an empty option list.
type BuyingOptionsError struct {
	Product string
	Err     error
}

func (e *BuyingOptionsError) Error() string {
	return fmt.Sprintf("failed to find buying options for %q: %v", e.Product, e.Err)
}

func (e *BuyingOptionsError) Unwrap() error { return e.Err }
