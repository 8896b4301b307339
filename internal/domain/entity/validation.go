package entity

import (
	"fmt"
	"net/mail"
	"net/url"
)

// maxURLLength defines the maximum allowed length for URLs.
const maxURLLength = 2048

// ValidateURL validates the format of a remote resource URL.
// It checks that the URL is well-formed, uses HTTP/HTTPS scheme, and has a host.
// Returns a ValidationError naming field if the URL is invalid or empty.
func ValidateURL(field, rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: field, Message: "URL is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: field, Message: fmt.Sprintf("parse URL: %v", err)}
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: field, Message: "URL must use http or https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: field, Message: "URL must have a valid host"}
	}

	return nil
}

// ValidateEmail validates a single RFC 5322 address without a display name.
func ValidateEmail(field, address string) error {
	if address == "" {
		return &ValidationError{Field: field, Message: "email address is required"}
	}
	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return &ValidationError{Field: field, Message: fmt.Sprintf("invalid email address: %v", err)}
	}
	if parsed.Address != address {
		return &ValidationError{Field: field, Message: "email address must not include a display name"}
	}
	return nil
}
