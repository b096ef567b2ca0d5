package wand

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
	"os"

	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/mmap"
	apperrors "github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/errors"
)

const (
	MagicBytes    uint32 = 0x444E4157 // "WAND"
	FormatVersion uint32 = 1
	HeaderSize           = 64

	flagCompressed uint32 = 1
)

// Header is the fixed-size preamble of a score-bound file.
type Header struct {
	Magic     uint32
	Version   uint32
	Flags     uint32
	NumTerms  uint32
	NumDocs   uint32
	BlockSize uint32
	NumBlocks uint64
	K1        float64
	B         float64
	QuantStep float64
	Checksum  uint32
}

func encodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.Flags)
	binary.LittleEndian.PutUint32(buf[12:16], h.NumTerms)
	binary.LittleEndian.PutUint32(buf[16:20], h.NumDocs)
	binary.LittleEndian.PutUint32(buf[20:24], h.BlockSize)
	binary.LittleEndian.PutUint64(buf[24:32], h.NumBlocks)
	binary.LittleEndian.PutUint64(buf[32:40], math.Float64bits(h.K1))
	binary.LittleEndian.PutUint64(buf[40:48], math.Float64bits(h.B))
	binary.LittleEndian.PutUint64(buf[48:56], math.Float64bits(h.QuantStep))
	binary.LittleEndian.PutUint32(buf[56:60], h.Checksum)
	return buf
}

func decodeHeader(buf []byte) Header {
	return Header{
		Magic:     binary.LittleEndian.Uint32(buf[0:4]),
		Version:   binary.LittleEndian.Uint32(buf[4:8]),
		Flags:     binary.LittleEndian.Uint32(buf[8:12]),
		NumTerms:  binary.LittleEndian.Uint32(buf[12:16]),
		NumDocs:   binary.LittleEndian.Uint32(buf[16:20]),
		BlockSize: binary.LittleEndian.Uint32(buf[20:24]),
		NumBlocks: binary.LittleEndian.Uint64(buf[24:32]),
		K1:        math.Float64frombits(binary.LittleEndian.Uint64(buf[32:40])),
		B:         math.Float64frombits(binary.LittleEndian.Uint64(buf[40:48])),
		QuantStep: math.Float64frombits(binary.LittleEndian.Uint64(buf[48:56])),
		Checksum:  binary.LittleEndian.Uint32(buf[56:60]),
	}
}

func (t *Table) numBlocks() int {
	return len(t.blockDocs) / 4
}

// Write stores t at path. With compressed set, block scores are quantized
// to one byte each, rounding up so that every stored bound still covers the
// true block maximum.
func (t *Table) Write(path string, compressed bool) error {
	var (
		scores []byte
		step   float64
	)
	if compressed {
		var fileMax float32
		for term := range t.numTerms {
			fileMax = max(fileMax, t.MaxScore(term))
		}
		step = quantStep(fileMax)
		scores = make([]byte, t.numBlocks())
		for i := range scores {
			scores[i] = quantize(t.blockScore(i), step)
		}
	} else {
		scores = make([]byte, 0, t.numBlocks()*4)
		for i := range t.numBlocks() {
			scores = binary.LittleEndian.AppendUint32(scores, math.Float32bits(t.blockScore(i)))
		}
	}

	crc := crc32.NewIEEE()
	for _, section := range [][]byte{t.termMax, t.termBlocks, t.blockDocs, scores} {
		crc.Write(section)
	}
	header := Header{
		Magic:     MagicBytes,
		Version:   FormatVersion,
		NumTerms:  t.numTerms,
		NumDocs:   t.numDocs,
		BlockSize: t.blockSize,
		NumBlocks: uint64(t.numBlocks()),
		K1:        t.params.K1,
		B:         t.params.B,
		QuantStep: step,
		Checksum:  crc.Sum32(),
	}
	if compressed {
		header.Flags |= flagCompressed
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating score-bound file: %w", err)
	}
	w := bufio.NewWriterSize(f, 1<<20)
	for _, section := range [][]byte{encodeHeader(header), t.termMax, t.termBlocks, t.blockDocs, scores} {
		if _, err := w.Write(section); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("writing score-bound file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flushing score-bound file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing score-bound file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing score-bound file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming score-bound file: %w", err)
	}
	return nil
}

// Open maps the score-bound file at path. compressed must match the encoding
// the file was written with.
func Open(path string, compressed bool) (*Table, error) {
	f, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening score-bound file: %w", err)
	}
	t, err := newTable(f.Data, compressed)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening score-bound file %s: %w", path, err)
	}
	t.file = f
	return t, nil
}

func newTable(data []byte, compressed bool) (*Table, error) {
	if len(data) < HeaderSize {
		return nil, apperrors.Newf(apperrors.ErrCorruptFile, apperrors.ExitSetup, "file too short (%d bytes)", len(data))
	}
	h := decodeHeader(data[:HeaderSize])
	if h.Magic != MagicBytes {
		return nil, apperrors.Newf(apperrors.ErrCorruptFile, apperrors.ExitSetup, "bad magic bytes %x", h.Magic)
	}
	if h.Version != FormatVersion {
		return nil, apperrors.Newf(apperrors.ErrCorruptFile, apperrors.ExitSetup, "unsupported version %d", h.Version)
	}
	fileCompressed := h.Flags&flagCompressed != 0
	if fileCompressed != compressed {
		return nil, apperrors.Newf(apperrors.ErrCorruptFile, apperrors.ExitSetup,
			"file compressed=%v, opened with compressed=%v", fileCompressed, compressed)
	}
	if compressed && !(h.QuantStep > 0) {
		return nil, apperrors.New(apperrors.ErrCorruptFile, apperrors.ExitSetup, "missing quantization step")
	}

	scoreWidth := uint64(4)
	if compressed {
		scoreWidth = 1
	}
	termMaxEnd := uint64(HeaderSize) + uint64(h.NumTerms)*4
	termBlocksEnd := termMaxEnd + (uint64(h.NumTerms)+1)*4
	blockDocsEnd := termBlocksEnd + h.NumBlocks*4
	scoresEnd := blockDocsEnd + h.NumBlocks*scoreWidth
	if scoresEnd != uint64(len(data)) {
		return nil, apperrors.New(apperrors.ErrCorruptFile, apperrors.ExitSetup, "section sizes do not match file size")
	}
	body := data[HeaderSize:]
	if crc := crc32.ChecksumIEEE(body); crc != h.Checksum {
		return nil, apperrors.Newf(apperrors.ErrCorruptFile, apperrors.ExitSetup, "checksum mismatch %x", crc)
	}

	t := &Table{
		params:      Params{K1: h.K1, B: h.B},
		numTerms:    h.NumTerms,
		numDocs:     h.NumDocs,
		blockSize:   h.BlockSize,
		termMax:     data[HeaderSize:termMaxEnd],
		termBlocks:  data[termMaxEnd:termBlocksEnd],
		blockDocs:   data[termBlocksEnd:blockDocsEnd],
		blockScores: data[blockDocsEnd:scoresEnd],
	}
	if compressed {
		t.quantStep = h.QuantStep
	}
	if last := binary.LittleEndian.Uint32(t.termBlocks[h.NumTerms*4:]); uint64(last) != h.NumBlocks {
		return nil, apperrors.New(apperrors.ErrCorruptFile, apperrors.ExitSetup, "block table does not cover all blocks")
	}
	return t, nil
}

// CheckParams fails with ErrScoreBoundsMismatch unless d was computed with
// the scorer parameters k1 and b.
func CheckParams(d Data, k1, b float64) error {
	p := d.Params()
	if p.K1 != k1 || p.B != b {
		return apperrors.Newf(apperrors.ErrScoreBoundsMismatch, apperrors.ExitConfig,
			"bounds computed with k1=%g b=%g, scorer uses k1=%g b=%g", p.K1, p.B, k1, b)
	}
	return nil
}
