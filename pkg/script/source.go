package script

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Source identifies where a script originated so loaders can operate
// on files, fs.FS entries, or URLs without leaking implementation details.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
	// SourceKindUpload marks text that arrived in memory (e.g. a browser
	// upload) and never touches a loader.
	SourceKindUpload SourceKind = "upload"
)

// fileSource identifies on-disk scripts.
type fileSource struct {
	path string
}

func (s fileSource) Location() string {
	return s.path
}

func (s fileSource) Kind() SourceKind {
	return SourceKindFile
}

// SourceFromFile returns a Source pointing to a file path.
func SourceFromFile(path string) Source {
	return fileSource{path: filepath.Clean(path)}
}

// fsSource references a path within an fs.FS.
type fsSource struct {
	name string
}

func (s fsSource) Location() string {
	return s.name
}

func (s fsSource) Kind() SourceKind {
	return SourceKindFS
}

// SourceFromFS returns a Source identifying a resource inside an fs.FS.
func SourceFromFS(name string) Source {
	return fsSource{name: name}
}

// urlSource references an HTTP/HTTPS endpoint.
type urlSource struct {
	raw string
}

func (s urlSource) Location() string {
	return s.raw
}

func (s urlSource) Kind() SourceKind {
	return SourceKindURL
}

// SourceFromURL parses the supplied URL string and returns a Source. It panics
// if the URL is invalid to surface configuration mistakes early.
func SourceFromURL(raw string) Source {
	if raw == "" {
		panic("script: empty URL source")
	}
	if _, err := url.ParseRequestURI(raw); err != nil {
		panic(fmt.Sprintf("script: invalid URL %q: %v", raw, err))
	}
	return urlSource{raw: raw}
}

// uploadSource names an in-memory script.
type uploadSource struct {
	name string
}

func (s uploadSource) Location() string {
	return s.name
}

func (s uploadSource) Kind() SourceKind {
	return SourceKindUpload
}

// SourceFromUpload returns a Source describing in-memory text under name.
func SourceFromUpload(name string) Source {
	if strings.TrimSpace(name) == "" {
		name = "upload.js"
	}
	return uploadSource{name: name}
}

// ParseSource turns a CLI-style location into a Source: http(s) URLs become
// URL sources, everything else a file path.
func ParseSource(raw string) (Source, error) {
	location := strings.TrimSpace(raw)
	if location == "" {
		return nil, errors.New("script: source location is required")
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		if _, err := url.ParseRequestURI(location); err != nil {
			return nil, fmt.Errorf("script: invalid URL %q: %w", location, err)
		}
		return urlSource{raw: location}, nil
	}
	return SourceFromFile(location), nil
}
