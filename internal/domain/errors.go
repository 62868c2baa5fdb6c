package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrPlatformNotConfigured = errors.New("platform not configured")
	ErrInvalidPrice          = errors.New("invalid price")
	ErrInvalidStake          = errors.New("invalid stake")
	ErrCacheMiss             = errors.New("cache miss")
)
