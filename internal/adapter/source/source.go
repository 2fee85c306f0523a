package source

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"loanledger/internal/domain/importer"
)

// Format names an import wire format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatJSON:
		return f, nil
	case "":
		return FormatCSV, nil
	}
	return "", &importer.ParseError{Reason: fmt.Sprintf("unsupported format %q", s)}
}

// FormatFromName guesses the format from a file extension.
func FormatFromName(name string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".json":
		return FormatJSON, nil
	case ".csv", ".txt", "":
		return FormatCSV, nil
	default:
		return "", &importer.ParseError{Reason: fmt.Sprintf("unsupported file type %q", ext)}
	}
}

// Read consumes r completely and returns the normalized batch. Nothing is
// returned until the whole source has been read; read failures and
// cancellation are reported as a ParseError.
func Read(ctx context.Context, f Format, r io.Reader) (*importer.Batch, error) {
	raw, err := io.ReadAll(&ctxReader{ctx: ctx, r: r})
	if err != nil {
		return nil, &importer.ParseError{Reason: "read source", Err: err}
	}
	switch f {
	case FormatCSV, "":
		return readCSV(raw)
	case FormatXLSX:
		return readXLSX(raw)
	case FormatJSON:
		return readJSON(raw)
	}
	return nil, &importer.ParseError{Reason: fmt.Sprintf("unsupported format %q", f)}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// Input binds a reader to its format.
type Input struct {
	Format Format
	R      io.Reader
}

func (in Input) Read(ctx context.Context) (*importer.Batch, error) {
	return Read(ctx, in.Format, in.R)
}
