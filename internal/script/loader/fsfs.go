package loader

import (
	"context"
	"errors"
	"io/fs"
)

func loadFromFS(ctx context.Context, files fs.FS, name string, limit int64) ([]byte, error) {
	if name == "" {
		return nil, errors.New("script loader: fs path is required")
	}
	if files == nil {
		return nil, errors.New("script loader: filesystem is not configured")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if info, err := fs.Stat(files, name); err == nil && info.Size() > limit {
		return nil, tooLarge(name, limit)
	}

	return fs.ReadFile(files, name)
}
