package fetcher

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// DecodeJSONArray decodes a JSON array streaming, sending each element to a channel.
// Expects input in the form [{...},{...}].
// Both channels are closed when processing completes.
func DecodeJSONArray[T any](ctx context.Context, r io.Reader) (<-chan T, <-chan error) {
	outCh := make(chan T, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(outCh)
		defer close(errCh)

		decoder := json.NewDecoder(r)

		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				return
			}
			errCh <- eris.Wrap(err, "json: read opening token")
			return
		}

		delim, ok := tok.(json.Delim)
		if !ok || delim != '[' {
			errCh <- eris.Errorf("json: expected '[', got %v", tok)
			return
		}

		for decoder.More() {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "json: context cancelled")
				return
			}

			var item T
			if err := decoder.Decode(&item); err != nil {
				errCh <- eris.Wrap(err, "json: decode element")
				return
			}

			select {
			case outCh <- item:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "json: context cancelled")
				return
			}
		}

		if _, err := decoder.Token(); err != nil && err != io.EOF {
			errCh <- eris.Wrap(err, "json: read closing token")
		}
	}()

	return outCh, errCh
}

// ReadJSONArrayFile decodes every element of the JSON array stored at path.
func ReadJSONArrayFile[T any](ctx context.Context, path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "json: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	outCh, errCh := DecodeJSONArray[T](ctx, f)
	var items []T
	for item := range outCh {
		items = append(items, item)
	}
	for err := range errCh {
		if err != nil {
			return items, err
		}
	}
	return items, nil
}

// WriteJSONFile writes v as indented JSON without HTML escaping, creating the
// parent directory when needed. The file is written to a temp name and
// renamed over path.
func WriteJSONFile(path string, v any) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "json: create directory %s", dir)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrapf(err, "json: create temp file for %s", path)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_ = tmp.Close()
		return eris.Wrapf(err, "json: encode %s", path)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "json: close %s", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "json: rename to %s", path)
	}
	return nil
}
