package posts

import (
	"fmt"
	"unicode/utf8"
)

// Authoritative field bounds in characters, used by every entry point. The
// UI repeats them client-side for immediate feedback but never relaxes them.
const (
	TitleMinLen       = 3
	TitleMaxLen       = 255
	DescriptionMinLen = 5
	DescriptionMaxLen = 255
	ContentMinLen     = 10
)

// ValidateInput checks the submitted fields in a fixed order (title,
// description, content) and stops at the first failure, so the caller gets
// exactly one message naming the offending field. Bounds count characters,
// not bytes, so multibyte input is measured the way a writer sees it.
func ValidateInput(title, description, content string) error {
	if utf8.RuneCountInString(title) < TitleMinLen {
		return NewValidationError("title",
			fmt.Sprintf("Title must be at least %d characters long", TitleMinLen))
	}
	if utf8.RuneCountInString(title) > TitleMaxLen {
		return NewValidationError("title",
			fmt.Sprintf("Title must be at most %d characters long", TitleMaxLen))
	}
	if utf8.RuneCountInString(description) < DescriptionMinLen {
		return NewValidationError("description",
			fmt.Sprintf("Description must be at least %d characters long", DescriptionMinLen))
	}
	if utf8.RuneCountInString(description) > DescriptionMaxLen {
		return NewValidationError("description",
			fmt.Sprintf("Description must be at most %d characters long", DescriptionMaxLen))
	}
	if utf8.RuneCountInString(content) < ContentMinLen {
		return NewValidationError("content",
			fmt.Sprintf("Content must be at least %d characters long", ContentMinLen))
	}
	return nil
}
