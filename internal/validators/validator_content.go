package validators

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/MKhiriev/go-social-sync/models"
)

// Content limits.
const (
	MaxTitleLength       = 300
	MaxDescriptionLength = 10000
	MaxImages            = 10
	MaxBodyLength        = 5000
	MaxImageRefLength    = 2048
	MaxSyncBatch         = 500
)

// Field name constants used to restrict validation to a subset of fields.
const (
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldAlias       = "alias"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldImages      = "images"
	FieldLocalID     = "local_id"
	FieldBody        = "body"
	FieldVote        = "vote"
	FieldPendingPost = "pending_posts"
)

// ContentValidator implements Validator for the user-written payloads of
// the server: registrations, posts, sync batches, comments and votes.
// Both value and pointer forms of each model are accepted.
type ContentValidator struct{}

// NewContentValidator constructs a ContentValidator.
func NewContentValidator() Validator {
	return &ContentValidator{}
}

// Validate dispatches on the dynamic type of obj. When fields is empty the
// default field set of the type is checked. Returns ErrUnsupportedType for
// any other type and ErrUnknownField for a field the type does not have.
func (v *ContentValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.RegisterRequest:
		return v.validateRegister(value, fields...)
	case *models.RegisterRequest:
		return v.validateRegister(*value, fields...)
	case models.ProfileUpdate:
		return v.validateProfile(value, fields...)
	case *models.ProfileUpdate:
		return v.validateProfile(*value, fields...)
	case models.PostInput:
		return v.validatePost(value, fields...)
	case *models.PostInput:
		return v.validatePost(*value, fields...)
	case models.PendingPost:
		return v.validatePendingPost(value, fields...)
	case *models.PendingPost:
		return v.validatePendingPost(*value, fields...)
	case models.SyncRequest:
		return v.validateSyncRequest(value, fields...)
	case *models.SyncRequest:
		return v.validateSyncRequest(*value, fields...)
	case models.CommentInput:
		return v.validateComment(value, fields...)
	case *models.CommentInput:
		return v.validateComment(*value, fields...)
	case models.VoteRequest:
		return v.validateVote(value, fields...)
	case *models.VoteRequest:
		return v.validateVote(*value, fields...)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, obj)
	}
}

func orDefault(fields []string, def ...string) []string {
	if len(fields) == 0 {
		return def
	}
	return fields
}

func (v *ContentValidator) validateRegister(r models.RegisterRequest, fields ...string) error {
	for _, field := range orDefault(fields, FieldEmail, FieldPassword, FieldAlias) {
		var err error
		switch field {
		case FieldEmail:
			err = checkEmail(r.Email)
		case FieldPassword:
			if r.Password == "" {
				err = ErrPasswordRequired
			}
		case FieldAlias:
			err = checkAlias(r.Alias)
		default:
			err = fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (v *ContentValidator) validateProfile(p models.ProfileUpdate, fields ...string) error {
	for _, field := range orDefault(fields, FieldAlias) {
		switch field {
		case FieldAlias:
			if err := checkAlias(p.Alias); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
	}
	return nil
}

func (v *ContentValidator) validatePost(in models.PostInput, fields ...string) error {
	for _, field := range orDefault(fields, FieldTitle, FieldDescription, FieldImages, FieldLocalID) {
		var err error
		switch field {
		case FieldTitle:
			err = checkTitle(in.Title)
		case FieldDescription:
			err = checkDescription(in.Description)
		case FieldImages:
			err = checkImages(in.Images)
		case FieldLocalID:
			if in.LocalID != nil && *in.LocalID <= 0 {
				err = ErrInvalidLocalID
			}
		default:
			err = fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (v *ContentValidator) validatePendingPost(p models.PendingPost, fields ...string) error {
	for _, field := range orDefault(fields, FieldLocalID, FieldTitle, FieldDescription, FieldImages) {
		var err error
		switch field {
		case FieldLocalID:
			if p.LocalID <= 0 {
				err = ErrInvalidLocalID
			}
		case FieldTitle:
			err = checkTitle(p.Title)
		case FieldDescription:
			err = checkDescription(p.Description)
		case FieldImages:
			err = checkImages(p.Images)
		default:
			err = fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// validateSyncRequest checks the batch shape only. Items are validated one
// by one so that a bad item is rejected without failing the batch.
func (v *ContentValidator) validateSyncRequest(r models.SyncRequest, fields ...string) error {
	for _, field := range orDefault(fields, FieldPendingPost) {
		if field != FieldPendingPost {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		if len(r.PendingPosts) > MaxSyncBatch {
			return ErrTooManyPendingPosts
		}
		seen := make(map[int64]struct{}, len(r.PendingPosts))
		for _, p := range r.PendingPosts {
			if _, ok := seen[p.LocalID]; ok {
				return fmt.Errorf("%w: %d", ErrDuplicateLocalID, p.LocalID)
			}
			seen[p.LocalID] = struct{}{}
		}
	}
	return nil
}

func (v *ContentValidator) validateComment(c models.CommentInput, fields ...string) error {
	for _, field := range orDefault(fields, FieldBody) {
		if field != FieldBody {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		body := strings.TrimSpace(c.Body)
		if body == "" {
			return ErrEmptyBody
		}
		if utf8.RuneCountInString(body) > MaxBodyLength {
			return ErrBodyTooLong
		}
	}
	return nil
}

func (v *ContentValidator) validateVote(r models.VoteRequest, fields ...string) error {
	for _, field := range orDefault(fields, FieldVote) {
		if field != FieldVote {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		if !r.Vote.Valid() {
			return ErrInvalidVote
		}
	}
	return nil
}

func checkEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

// checkAlias accepts the empty alias.
func checkAlias(alias string) error {
	for _, r := range alias {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' {
			return ErrInvalidAlias
		}
	}
	return nil
}

func checkTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

func checkDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// checkImages accepts any non-blank reference: URLs and device paths are
// both stored as given.
func checkImages(images []string) error {
	if len(images) > MaxImages {
		return ErrTooManyImages
	}
	for _, ref := range images {
		if strings.TrimSpace(ref) == "" || len(ref) > MaxImageRefLength {
			return fmt.Errorf("%w: %q", ErrInvalidImage, ref)
		}
	}
	return nil
}
