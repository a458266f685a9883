package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/goliatone/go-paramkit/pkg/script"
)

// Loader implements script.Loader by delegating to file, fs.FS, or HTTP
// strategies. Construction helpers live in the top-level paramkit package.
type Loader struct {
	fs        fs.FS
	http      *http.Client
	allowHTTP bool
	timeout   time.Duration
	maxBytes  int64
}

// Ensure the implementation satisfies the public interface.
var _ script.Loader = (*Loader)(nil)

// New constructs a Loader from pre-resolved options.
func New(options script.LoaderOptions) script.Loader {
	timeout := options.RequestTimeout

	var httpClient *http.Client
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if timeout > 0 && clone.Timeout == 0 {
			clone.Timeout = timeout
		}
		httpClient = &clone
	case options.AllowHTTPFallback:
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := options.MaxBytes
	if limit <= 0 {
		limit = script.DefaultMaxBytes
	}

	return &Loader{
		fs:        options.FileSystem,
		http:      httpClient,
		allowHTTP: httpClient != nil,
		timeout:   timeout,
		maxBytes:  limit,
	}
}

// Load fetches a script from the provided source and wraps it in a Document.
func (l *Loader) Load(ctx context.Context, src script.Source) (script.Document, error) {
	if src == nil {
		return script.Document{}, errors.New("script loader: source is nil")
	}

	var (
		data []byte
		err  error
	)

	switch src.Kind() {
	case script.SourceKindFile:
		data, err = loadFile(ctx, src.Location(), l.maxBytes)
	case script.SourceKindFS:
		data, err = loadFromFS(ctx, l.fs, src.Location(), l.maxBytes)
	case script.SourceKindURL:
		if !l.allowHTTP {
			return script.Document{}, errors.New("script loader: http support disabled")
		}
		data, err = loadHTTP(ctx, l.http, src.Location(), l.timeout, l.maxBytes)
	default:
		err = fmt.Errorf("script loader: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return script.Document{}, err
	}

	return script.NewDocument(src, data)
}

func tooLarge(location string, limit int64) error {
	return fmt.Errorf("script loader: %s exceeds %d bytes", location, limit)
}
