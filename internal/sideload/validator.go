package sideload

import (
	"net/url"
	"path"
	"strings"

	"github.com/thatcatcamp/sideload/internal/media"
)

// Candidate is a file URL that passed validation, along with what its
// filename claims to be.
type Candidate struct {
	URL          *url.URL
	Filename     string
	DeclaredMime string
}

// ValidateURL checks that raw is an absolute http(s) URL whose filename
// extension maps to an allowed media type. It performs no network access;
// the declared type is re-checked against the content after download.
func ValidateURL(raw string) (*Candidate, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, newError(KindInvalidURL, "Invalid URL provided.", nil)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, newError(KindInvalidURL, "Invalid URL provided.", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, newError(KindInvalidURL, "Invalid URL provided.", nil)
	}
	if u.Host == "" || u.Hostname() == "" || u.Opaque != "" {
		return nil, newError(KindInvalidURL, "Invalid URL provided.", nil)
	}

	filename := path.Base(u.Path)
	if filename == "/" || filename == "." {
		filename = ""
	}

	declared := media.TypeByExtension(filename)
	if !media.IsAllowed(declared) {
		return nil, newError(KindUnsupportedType, "Unsupported file type.", nil)
	}

	return &Candidate{URL: u, Filename: filename, DeclaredMime: declared}, nil
}
