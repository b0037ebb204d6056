package services

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/taskboard/core/internal/domain/entities"
)

var colorPattern = regexp.MustCompile(`^#([A-Fa-f0-9]{6})$`)

// requireView returns the caller's view of the resolved board, or notFound when
// the board or the caller's membership did not resolve.
func requireView(path entities.PathResult, notFound error) (*entities.BoardView, error) {
	view := path.View()
	if view == nil {
		return nil, notFound
	}
	return view, nil
}

// requireEditor allows admins and members on a board that is not closed.
func requireEditor(view *entities.BoardView) error {
	if view.Closed {
		return entities.ErrBoardReadOnly
	}
	if !view.Role.CanEdit() {
		return entities.ErrViewerReadOnly
	}
	return nil
}

// requireAdmin allows board admins, and when writable is set only on a board that is not closed.
func requireAdmin(view *entities.BoardView, writable bool) error {
	if !view.IsAdmin() {
		return entities.ErrNotBoardAdmin
	}
	if writable && view.Closed {
		return entities.ErrBoardReadOnly
	}
	return nil
}

// expectOneRow turns a store write result into an error unless exactly one row changed.
func expectOneRow(rows int64, err error) error {
	if err != nil {
		return err
	}
	if rows != 1 {
		return entities.Persistence(nil, "expected one affected row, got %d", rows)
	}
	return nil
}

func validateTitle(field, value string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", entities.Validation("%s must not be blank", field)
	}
	if utf8.RuneCountInString(value) > max {
		return "", entities.Validation("%s must be at most %d characters", field, max)
	}
	return value, nil
}

// validateOptionalText checks a text field that may be absent but never blank.
func validateOptionalText(field string, value *string, max int) (*string, error) {
	if value == nil {
		return nil, nil
	}
	v, err := validateTitle(field, *value, max)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func validateColor(color string) error {
	if !colorPattern.MatchString(color) {
		return entities.Validation("Color must be a hex value like #1A2B3C")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < entities.MinPasswordLength || len(password) > entities.MaxPasswordLength {
		return entities.Validation("Password must be %d to %d characters", entities.MinPasswordLength, entities.MaxPasswordLength)
	}
	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return entities.Validation("Password must contain a letter and a digit")
	}
	return nil
}
