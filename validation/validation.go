package validation

import (
	"net/url"
	"strings"

	"yt-chat/errors"
)

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateURL performs URL validation
func (v *Validator) ValidateURL(urlStr string) error {
	const op = "Validator.ValidateURL"

	if urlStr == "" {
		return errors.InvalidInput(op, nil, "URL is required")
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return errors.InvalidInput(op, err, "Invalid URL format")
	}

	// Protocol validation
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.InvalidInput(op, nil, "URL must use HTTP or HTTPS")
	}

	// Domain validation
	host := parsedURL.Hostname()
	if !strings.Contains(host, "youtube.com") && !strings.Contains(host, "youtu.be") {
		return errors.InvalidInput(op, nil, "Only YouTube URLs are supported")
	}

	return nil
}

// ExtractVideoID pulls the provider-side video id out of a YouTube URL.
// Returns an empty string when the URL carries none.
func ExtractVideoID(urlStr string) string {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}

	host := parsedURL.Hostname()
	switch {
	case strings.Contains(host, "youtu.be"):
		return strings.Trim(parsedURL.Path, "/")
	case strings.Contains(host, "youtube.com"):
		if id := parsedURL.Query().Get("v"); id != "" {
			return id
		}
		// Shorts and embeds carry the id as the last path element.
		parts := strings.Split(strings.Trim(parsedURL.Path, "/"), "/")
		if len(parts) == 2 && (parts[0] == "shorts" || parts[0] == "embed" || parts[0] == "live") {
			return parts[1]
		}
	}
	return ""
}
