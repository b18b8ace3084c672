package validators

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrEmptyTitle       = errors.New("title is required")
	ErrEmptyBody        = errors.New("comment body is required")
	ErrInvalidVote      = errors.New("vote must be like or dislike")

	// ErrInvalidContent is wrapped by every limit violation below.
	ErrInvalidContent = errors.New("invalid content")

	ErrInvalidEmail        = fmt.Errorf("%w: malformed e-mail", ErrInvalidContent)
	ErrInvalidAlias        = fmt.Errorf("%w: alias may only hold letters, digits, '_' and '.'", ErrInvalidContent)
	ErrTitleTooLong        = fmt.Errorf("%w: title is longer than %d characters", ErrInvalidContent, MaxTitleLength)
	ErrDescriptionTooLong  = fmt.Errorf("%w: description is longer than %d characters", ErrInvalidContent, MaxDescriptionLength)
	ErrTooManyImages       = fmt.Errorf("%w: more than %d images", ErrInvalidContent, MaxImages)
	ErrInvalidImage        = fmt.Errorf("%w: image reference must be non-blank and at most %d bytes", ErrInvalidContent, MaxImageRefLength)
	ErrBodyTooLong         = fmt.Errorf("%w: comment is longer than %d characters", ErrInvalidContent, MaxBodyLength)
	ErrInvalidLocalID      = fmt.Errorf("%w: local id must be positive", ErrInvalidContent)
	ErrDuplicateLocalID    = fmt.Errorf("%w: local id repeated in one batch", ErrInvalidContent)
	ErrTooManyPendingPosts = fmt.Errorf("%w: more than %d posts in one batch", ErrInvalidContent, MaxSyncBatch)
)

var contentErrors = []error{
	ErrInvalidEmail, ErrInvalidAlias, ErrTitleTooLong, ErrDescriptionTooLong, ErrTooManyImages,
	ErrInvalidImage, ErrBodyTooLong, ErrInvalidLocalID, ErrDuplicateLocalID, ErrTooManyPendingPosts,
}

// Reason returns the message of the limit violation wrapped in err, or ""
// when err wraps none.
func Reason(err error) string {
	for _, e := range contentErrors {
		if errors.Is(err, e) {
			return e.Error()
		}
	}
	return ""
}
