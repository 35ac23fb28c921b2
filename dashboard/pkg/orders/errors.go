package orders

import "errors"

var (
	ErrInvalidDateRange = errors.New("invalid ship date range")
	ErrInvalidViewName  = errors.New("invalid view name")
	ErrCommentTooLong   = errors.New("view comment too long")
	ErrInvalidComment   = errors.New("invalid view comment")
	ErrInvalidLimit     = errors.New("invalid row limit")
	ErrInvalidMeasure   = errors.New("invalid measure")
)

// IsValidation reports whether err was caused by caller input rather than the warehouse.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidDateRange, ErrInvalidViewName, ErrCommentTooLong,
		ErrInvalidComment, ErrInvalidLimit, ErrInvalidMeasure,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
