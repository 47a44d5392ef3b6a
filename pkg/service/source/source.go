package source

import (
	"context"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
)

// Read loads the knowledge source document as text. The location is either
// a local file path or a gs://bucket/object URL. The pipeline only needs a
// sequence of characters; format concerns stay with the caller.
func Read(ctx context.Context, location string) (string, error) {
	if strings.HasPrefix(location, "gs://") {
		return readGCS(ctx, location)
	}
	return readFile(location)
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read source file", goerr.V("path", path))
	}
	return string(data), nil
}

func readGCS(ctx context.Context, url string) (string, error) {
	bucket, object, err := splitGCSURL(url)
	if err != nil {
		return "", err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create storage client")
	}
	defer client.Close()

	reader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to open source object", goerr.V("url", url))
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read source object", goerr.V("url", url))
	}

	return string(data), nil
}

func splitGCSURL(url string) (bucket, object string, err error) {
	rest := strings.TrimPrefix(url, "gs://")
	bucket, object, found := strings.Cut(rest, "/")
	if !found || bucket == "" || object == "" {
		return "", "", goerr.New("invalid gs:// URL", goerr.V("url", url))
	}
	return bucket, object, nil
}
