package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrDraftNotFound is returned when a staged draft expired or never existed
	ErrDraftNotFound = errors.New("draft not found")

	// ErrCampaignNotFound is returned when a campaign id is unknown
	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrProductNotFound is returned when a product id is unknown
	ErrProductNotFound = errors.New("product not found")

	// ErrTemplateNotFound is returned when a template id is unknown
	ErrTemplateNotFound = errors.New("template not found")

	// ErrDuplicateProduct is returned when a product name is already taken
	ErrDuplicateProduct = errors.New("product name already exists")

	// ErrRenderFailed is returned when flyer generation fails
	ErrRenderFailed = errors.New("flyer rendering failed")

	// ErrStorageFailure is returned when a file cannot be stored
	ErrStorageFailure = errors.New("file storage failed")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)
