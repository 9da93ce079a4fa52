package blob

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// File reads documents from the local filesystem.
type File struct{}

// Fetch implements Fetcher. Accepts plain paths and file:// URIs.
func (File) Fetch(ctx context.Context, locator string) (*Object, error) {
	p := strings.TrimPrefix(locator, "file://")
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return &Object{Data: data, ContentType: typeByName(p)}, nil
}
