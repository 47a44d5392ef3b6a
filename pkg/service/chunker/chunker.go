package chunker

import (
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/papyrus-lab/alexandria/pkg/domain/model"
	"github.com/papyrus-lab/alexandria/pkg/domain/types"
)

// Options control the two-stage split. Sizes are in runes so multi-byte
// source text splits at character boundaries.
type Options struct {
	// CoarseSize is the target size of a first-pass segment. Paragraphs
	// are packed into segments up to this size with no overlap.
	CoarseSize int
	// FineSize is the size of a second-pass chunk
	FineSize int
	// Overlap is the number of runes shared between adjacent fine chunks
	// within the same coarse segment
	Overlap int
}

// DefaultOptions returns the split parameters used for annual-report style
// documents
func DefaultOptions() Options {
	return Options{
		CoarseSize: 1200,
		FineSize:   300,
		Overlap:    50,
	}
}

// Validate checks the option invariants
func (o Options) Validate() error {
	if o.CoarseSize <= 0 {
		return goerr.New("coarse size must be positive", goerr.V("coarseSize", o.CoarseSize))
	}
	if o.FineSize <= 0 {
		return goerr.New("fine size must be positive", goerr.V("fineSize", o.FineSize))
	}
	if o.Overlap < 0 || o.Overlap >= o.FineSize {
		return goerr.New("overlap must be non-negative and smaller than fine size",
			goerr.V("overlap", o.Overlap), goerr.V("fineSize", o.FineSize))
	}
	return nil
}

// Split cuts source text into chunks: first into coarse segments along
// paragraph boundaries, then each segment into fine chunks of FineSize
// runes with Overlap runes shared between neighbours. Chunk IDs are
// sequential from 0 in document order, so the same text and options always
// produce the same chunks.
func Split(text string, opts Options) ([]*model.Chunk, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	normalized := normalize(text)
	if normalized == "" {
		return nil, goerr.Wrap(types.ErrEmptySource, "nothing to chunk after normalization")
	}

	var chunks []*model.Chunk
	for segIdx, segment := range coarseSegments(normalized, opts.CoarseSize) {
		section := "segment-" + strconv.Itoa(segIdx)
		for _, part := range fineSplit(segment, opts.FineSize, opts.Overlap) {
			chunks = append(chunks, &model.Chunk{
				ID:      model.ChunkID(len(chunks)),
				Text:    part,
				Section: section,
			})
		}
	}

	return chunks, nil
}

func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimSpace(text)
}

// coarseSegments packs paragraphs into segments of at most size runes, with
// no overlap. A single paragraph longer than size becomes its own segment
// and is cut down by the fine pass.
func coarseSegments(text string, size int) []string {
	paragraphs := strings.Split(text, "\n\n")

	var segments []string
	var buf []string
	var bufLen int

	flush := func() {
		if len(buf) == 0 {
			return
		}
		segments = append(segments, strings.Join(buf, "\n\n"))
		buf = nil
		bufLen = 0
	}

	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		pLen := len([]rune(p))
		if bufLen > 0 && bufLen+pLen > size {
			flush()
		}
		buf = append(buf, p)
		bufLen += pLen
		if bufLen >= size {
			flush()
		}
	}
	flush()

	return segments
}

// fineSplit cuts a segment into windows of fineSize runes advancing by
// fineSize-overlap, so the tail of each chunk and the head of the next
// share exactly overlap runes. A segment shorter than fineSize yields the
// segment itself.
func fineSplit(segment string, fineSize, overlap int) []string {
	runes := []rune(segment)
	if len(runes) <= fineSize {
		return []string{segment}
	}

	step := fineSize - overlap
	var parts []string
	for start := 0; start < len(runes); start += step {
		end := start + fineSize
		if end >= len(runes) {
			parts = append(parts, string(runes[start:]))
			break
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}
