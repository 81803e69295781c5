package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid is returned when a backend payload fails boundary validation.
var ErrInvalid = errors.New("invalid payload")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a single decoded struct against its validate tags.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// ValidateSpaces checks every node of a space forest. Children are reached
// through the dive tags on Space.
func ValidateSpaces(spaces []*Space) error {
	for i, s := range spaces {
		if s == nil {
			return fmt.Errorf("%w: space %d is null", ErrInvalid, i)
		}
		if err := Validate(s); err != nil {
			return err
		}
	}
	return nil
}

// NormalizeDetails validates the space record and drops content items that
// fail validation, so one malformed item never hides the rest of the feed.
// It returns the number of dropped items.
func NormalizeDetails(d *SpaceDetails) (int, error) {
	if d == nil {
		return 0, fmt.Errorf("%w: empty space details", ErrInvalid)
	}
	if err := Validate(d); err != nil {
		return 0, err
	}
	dropped := 0
	d.Flashcards, dropped = keepValid(d.Flashcards, dropped)
	d.Articles, dropped = keepValid(d.Articles, dropped)
	d.Alerts, dropped = keepValid(d.Alerts, dropped)
	return dropped, nil
}

func keepValid[T any](items []*T, dropped int) ([]*T, int) {
	if items == nil {
		return nil, dropped
	}
	out := make([]*T, 0, len(items))
	for _, it := range items {
		if it == nil || validate.Struct(it) != nil {
			dropped++
			continue
		}
		out = append(out, it)
	}
	return out, dropped
}
