package paramkit

import (
	internalLoader "github.com/goliatone/go-paramkit/internal/script/loader"
	"github.com/goliatone/go-paramkit/pkg/script"
)

// NewLoader constructs a loader using the internal implementation while
// keeping the concrete type hidden from consumers.
func NewLoader(options ...script.LoaderOption) script.Loader {
	cfg := script.NewLoaderOptions(options...)
	return internalLoader.New(cfg)
}
