package core

import (
	"bytes"
	"context"
	"log/slog"
	"runtime"

	"github.com/JonMunkholm/intake/internal/logging"
)

// utf8BOM is commonly prepended by Windows spreadsheet exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DefaultChunkSize is how many rows are processed between yield points.
const DefaultChunkSize = 500

// sanitizeText strips a leading UTF-8 BOM and replaces invalid UTF-8
// sequences with U+FFFD so the CSV reader never sees broken runes.
func sanitizeText(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	return bytes.ToValidUTF8(data, []byte("\uFFFD"))
}

// ParseOptions tunes parsing and normalization of one upload.
type ParseOptions struct {
	FileName  string
	ChunkSize int              // rows between yield points (default DefaultChunkSize)
	Progress  ProgressCallback // optional
	FirmUsers []FirmUser       // optional; used to tag matching company applicants
	Logger    *slog.Logger     // optional; defaults to the context logger
}

func (o ParseOptions) chunkSize() int {
	if o.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return o.ChunkSize
}

func (o ParseOptions) logger(ctx context.Context) *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logging.FromContext(ctx)
}

// yield is the cooperative pause between chunks: it honours cancellation,
// reports progress, and lets other goroutines run.
func (o ParseOptions) yield(ctx context.Context, p ImportProgress) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if o.Progress != nil {
		p.FileName = o.FileName
		o.Progress(p)
	}
	runtime.Gosched()
	return nil
}

// atChunk reports whether row n (1-based) closes a chunk.
func (o ParseOptions) atChunk(n int) bool {
	return n > 0 && n%o.chunkSize() == 0
}
