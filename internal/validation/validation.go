// Package validation holds the client-side validation gate. Input that fails
// here never reaches the network.
package validation

import (
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/natively/natively-cli/internal/api/apierr"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// Get returns the singleton validator instance
func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
			return fld.Name
		})

		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			if fl.Field().Kind() != reflect.String {
				return false
			}
			return strings.TrimSpace(fl.Field().String()) != ""
		})

		_ = validate.RegisterValidation("http_url", func(fl validator.FieldLevel) bool {
			if fl.Field().Kind() != reflect.String {
				return false
			}
			raw := strings.TrimSpace(fl.Field().String())
			if raw == "" {
				return false
			}
			u, err := url.Parse(raw)
			if err != nil {
				return false
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return false
			}
			return strings.TrimSpace(u.Host) != ""
		})
	})
	return validate
}

// LinkInput carries the user-editable fields of a link through validation.
type LinkInput struct {
	Title string `json:"title" validate:"notblank,max=100"`
	URL   string `json:"url" validate:"notblank,http_url,max=2000"`
}

// CheckLink validates a title and URL pair. On failure it returns a
// validation-kind error listing the offending fields.
func CheckLink(title, rawURL string) error {
	err := Get().Struct(LinkInput{Title: title, URL: rawURL})
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &apierr.Error{Kind: apierr.KindSetup, Detail: "validation failed", Err: err}
	}

	fields := make(map[string][]string)
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], messageFor(fe))
	}
	return apierr.Validation(fields)
}

// messageFor maps a failed validation tag to the user-facing message.
func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank", "required":
		if fe.Field() == "title" {
			return "Title is required"
		}
		return "URL is required"
	case "max":
		if fe.Field() == "title" {
			return "Title must be less than 100 characters"
		}
		return "URL is too long"
	case "http_url":
		return "Please enter a valid URL (include https://)"
	default:
		return "Invalid value"
	}
}
