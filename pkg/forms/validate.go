package forms

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// FieldError reports one failed validation rule on one field.
type FieldError struct {
	Field   string
	Rule    string
	Message string
}

// ValidationError wraps the field errors that blocked a submission. It is
// recovered locally and rendered inline; it never aborts the binder.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("forms: validation failed for %d field(s)", len(e.Fields))
}

// errorMarker names elements that display a field's inline validation
// message: <span bb-error-for="email"></span>.
const errorMarker = "bb-error-for"

// Validate checks every named field in the form against its declarative
// rule attributes: required, type (email/url/number), minlength, maxlength,
// and pattern. It returns one FieldError per failed rule; an empty result
// means the form may submit.
func Validate(form *goquery.Selection) []FieldError {
	var errs []FieldError

	form.Find("input[name], select[name], textarea[name]").Each(func(_ int, field *goquery.Selection) {
		name, _ := field.Attr("name")
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}

		value := fieldValue(field)

		if _, required := field.Attr("required"); required && strings.TrimSpace(value) == "" {
			errs = append(errs, FieldError{Field: name, Rule: "required", Message: "This field is required"})
			return
		}
		if strings.TrimSpace(value) == "" {
			return
		}

		if fieldType, ok := field.Attr("type"); ok {
			if err, failed := checkType(name, fieldType, value); failed {
				errs = append(errs, err)
			}
		}
		// Length rules count code points, matching the HTML attributes.
		if raw, ok := field.Attr("minlength"); ok {
			if min, convErr := strconv.Atoi(raw); convErr == nil && utf8.RuneCountInString(value) < min {
				errs = append(errs, FieldError{Field: name, Rule: "minlength",
					Message: fmt.Sprintf("Must be at least %d characters", min)})
			}
		}
		if raw, ok := field.Attr("maxlength"); ok {
			if max, convErr := strconv.Atoi(raw); convErr == nil && utf8.RuneCountInString(value) > max {
				errs = append(errs, FieldError{Field: name, Rule: "maxlength",
					Message: fmt.Sprintf("Must be at most %d characters", max)})
			}
		}
		if pattern, ok := field.Attr("pattern"); ok {
			re, compileErr := regexp.Compile("^(?:" + pattern + ")$")
			if compileErr != nil {
				// Authoring bug; skip the rule rather than fail the field.
				return
			}
			if !re.MatchString(value) {
				errs = append(errs, FieldError{Field: name, Rule: "pattern", Message: "Invalid format"})
			}
		}
	})

	return errs
}

// RenderErrors writes each field's first message into its inline error
// element and clears elements whose fields passed.
func RenderErrors(form *goquery.Selection, errs []FieldError) {
	messages := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		if _, exists := messages[fieldErr.Field]; !exists {
			messages[fieldErr.Field] = fieldErr.Message
		}
	}

	form.Find("[" + errorMarker + "]").Each(func(_ int, slot *goquery.Selection) {
		field, _ := slot.Attr(errorMarker)
		slot.SetText(messages[field])
	})
}

func fieldValue(field *goquery.Selection) string {
	if goquery.NodeName(field) == "textarea" {
		return field.Text()
	}
	return field.AttrOr("value", "")
}

func checkType(name, fieldType, value string) (FieldError, bool) {
	switch fieldType {
	case "email":
		if _, err := mail.ParseAddress(value); err != nil {
			return FieldError{Field: name, Rule: "type", Message: "Must be a valid email address"}, true
		}
	case "url":
		parsed, err := url.Parse(value)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return FieldError{Field: name, Rule: "type", Message: "Must be a valid URL"}, true
		}
	case "number":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return FieldError{Field: name, Rule: "type", Message: "Must be a number"}, true
		}
	}
	return FieldError{}, false
}
