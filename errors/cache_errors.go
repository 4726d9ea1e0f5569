// api/errors/cache_errors.go
package errors

import "errors"

var (
	ErrCacheUnavailable = errors.New("cache backend unavailable")
	ErrFlushForbidden   = errors.New("cache flush is not allowed in production")
)
