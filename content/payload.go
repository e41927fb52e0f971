package content

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const excerptLength = 220

var excerptPunctuation = regexp.MustCompile("[#>*_`\\-]")

// CreatePayload is the body accepted when creating a post.
type CreatePayload struct {
	Title     string   `json:"title"`
	Slug      *string  `json:"slug,omitempty"`
	Excerpt   *string  `json:"excerpt,omitempty"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	Published bool     `json:"published"`
}

// Validate checks the payload schema and returns a *ValidationError.
func (p CreatePayload) Validate() error {
	return newValidationError(validation.ValidateStruct(&p,
		validation.Field(&p.Title,
			validation.Required.Error("title is required"),
			validation.RuneLength(3, 0).Error("title needs at least 3 characters"),
		),
		validation.Field(&p.Content,
			validation.Required.Error("MDX content cannot be empty"),
		),
		validation.Field(&p.Tags,
			validation.Each(validation.Required.Error("tags cannot be empty strings")),
		),
	))
}

// UpdatePayload is a partial post. Nil fields keep the stored value; a nil
// Tags slice keeps the stored tags while an empty, non-nil one clears them.
type UpdatePayload struct {
	Title     *string  `json:"title,omitempty"`
	Slug      *string  `json:"slug,omitempty"`
	Excerpt   *string  `json:"excerpt,omitempty"`
	Content   *string  `json:"content,omitempty"`
	Tags      []string `json:"tags"`
	Published *bool    `json:"published,omitempty"`
}

// Validate applies the create rules to every supplied field.
func (p UpdatePayload) Validate() error {
	return newValidationError(validation.ValidateStruct(&p,
		validation.Field(&p.Title,
			validation.NilOrNotEmpty.Error("title is required"),
			validation.RuneLength(3, 0).Error("title needs at least 3 characters"),
		),
		validation.Field(&p.Content,
			validation.NilOrNotEmpty.Error("MDX content cannot be empty"),
		),
		validation.Field(&p.Tags,
			validation.Each(validation.Required.Error("tags cannot be empty strings")),
		),
	))
}

// BuildExcerpt returns the trimmed provided excerpt, or derives one from the
// first characters of content with markdown punctuation removed. Derived
// excerpts end in "..." unless they already end with a period.
func BuildExcerpt(content string, provided *string) string {
	if provided != nil {
		if trimmed := strings.TrimSpace(*provided); trimmed != "" {
			return trimmed
		}
	}
	snippet := excerptPunctuation.ReplaceAllString(content, "")
	if runes := []rune(snippet); len(runes) > excerptLength {
		snippet = string(runes[:excerptLength])
	}
	snippet = strings.TrimSpace(snippet)
	if snippet == "" {
		return ""
	}
	if strings.HasSuffix(snippet, ".") {
		return snippet
	}
	return snippet + "..."
}
