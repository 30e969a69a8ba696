package social

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Validate checks a comment form. Email is optional.
func (in CommentInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.ArtworkID,
			validation.Required.Error("artwork is required"),
		),
		validation.Field(&in.Name,
			validation.Required.Error("name is required"),
			validation.RuneLength(1, maxNameLength),
		),
		validation.Field(&in.Email,
			is.EmailFormat.Error("invalid email format"),
		),
		validation.Field(&in.Text,
			validation.Required.Error("comment text is required"),
			validation.RuneLength(1, maxTextLength),
		),
	)
	return asValidationError(err)
}

// Validate checks a review form.
func (in ReviewInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Name,
			validation.Required.Error("name is required"),
			validation.RuneLength(1, maxNameLength),
		),
		validation.Field(&in.Rating,
			validation.Required.Error("rating is required"),
			validation.Min(MinRating).Error("rating must be between 1 and 5"),
			validation.Max(MaxRating).Error("rating must be between 1 and 5"),
		),
		validation.Field(&in.Text,
			validation.Required.Error("review text is required"),
			validation.RuneLength(1, maxTextLength),
		),
	)
	return asValidationError(err)
}
