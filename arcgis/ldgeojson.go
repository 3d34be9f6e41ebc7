package arcgis

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// WriteLineDelimited writes each feature in the FeatureCollection 'body' to 'wr' as a single line of
// compact JSON. It returns the number of features written.
func WriteLineDelimited(ctx context.Context, body []byte, wr io.Writer) (int, error) {

	buf := bufio.NewWriter(wr)
	count := 0

	for _, f_rsp := range gjson.GetBytes(body, "features").Array() {

		select {
		case <-ctx.Done():
			return count, ctx.Err()
		default:
			// pass
		}

		_, err := buf.Write(pretty.Ugly([]byte(f_rsp.Raw)))

		if err != nil {
			return count, err
		}

		err = buf.WriteByte('\n')

		if err != nil {
			return count, err
		}

		count += 1
	}

	err := buf.Flush()

	if err != nil {
		return count, err
	}

	return count, nil
}

// WriteLineDelimitedFile writes the FeatureCollection 'body' to 'path' as line-delimited GeoJSON,
// replacing any existing file.
func WriteLineDelimitedFile(ctx context.Context, body []byte, path string) (int, error) {

	wr, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)

	if err != nil {
		return 0, fmt.Errorf("Failed to open %s for writing, %w", path, err)
	}

	count, err := WriteLineDelimited(ctx, body, wr)

	if err != nil {
		wr.Close()
		return count, fmt.Errorf("Failed to write %s, %w", path, err)
	}

	err = wr.Close()

	if err != nil {
		return count, fmt.Errorf("Failed to close %s after writing, %w", path, err)
	}

	return count, nil
}
