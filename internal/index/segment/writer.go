package segment

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/index"
)

// MagicBytes identifies a valid index file.
const (
	MagicBytes    uint32 = 0x51455649
	FormatVersion uint32 = 1
	HeaderSize    int    = 64
	DictEntrySize int    = 16
	FooterSize    int    = 16
	// BlockSize is the number of postings per skip-table entry in block
	// indexes.
	BlockSize = 128
)

// Header is the 64-byte header written at the start of every index file.
type Header struct {
	Magic       uint32
	Version     uint32
	Type        uint32
	NumDocs     uint32
	NumTerms    uint32
	BlockSize   uint32
	DocLenOff   uint64
	DictOffset  uint64
	PostOffset  uint64
	PostSize    uint64
	TotalDocLen uint64
}

func (h Header) encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.Type)
	binary.LittleEndian.PutUint32(buf[12:16], h.NumDocs)
	binary.LittleEndian.PutUint32(buf[16:20], h.NumTerms)
	binary.LittleEndian.PutUint32(buf[20:24], h.BlockSize)
	binary.LittleEndian.PutUint64(buf[24:32], h.DocLenOff)
	binary.LittleEndian.PutUint64(buf[32:40], h.DictOffset)
	binary.LittleEndian.PutUint64(buf[40:48], h.PostOffset)
	binary.LittleEndian.PutUint64(buf[48:56], h.PostSize)
	binary.LittleEndian.PutUint64(buf[56:64], h.TotalDocLen)
	return buf
}

func decodeHeader(buf []byte) Header {
	return Header{
		Magic:       binary.LittleEndian.Uint32(buf[0:4]),
		Version:     binary.LittleEndian.Uint32(buf[4:8]),
		Type:        binary.LittleEndian.Uint32(buf[8:12]),
		NumDocs:     binary.LittleEndian.Uint32(buf[12:16]),
		NumTerms:    binary.LittleEndian.Uint32(buf[16:20]),
		BlockSize:   binary.LittleEndian.Uint32(buf[20:24]),
		DocLenOff:   binary.LittleEndian.Uint64(buf[24:32]),
		DictOffset:  binary.LittleEndian.Uint64(buf[32:40]),
		PostOffset:  binary.LittleEndian.Uint64(buf[40:48]),
		PostSize:    binary.LittleEndian.Uint64(buf[48:56]),
		TotalDocLen: binary.LittleEndian.Uint64(buf[56:64]),
	}
}

// Source is the in-memory index a Writer serialises.
type Source interface {
	NumDocs() uint32
	NumTerms() uint32
	List(term index.TermID) index.PostingList
	DocLens() []uint32
}

// Writer serialises an in-memory index into a single file of the given type.
type Writer struct {
	typ index.Type
}

func NewWriter(typ index.Type) *Writer {
	return &Writer{typ: typ}
}

// listBytes is the on-disk size of one posting list.
func (w *Writer) listBytes(n int) uint64 {
	size := uint64(n) * 8
	if w.typ == index.TypeBlock {
		size += uint64(numBlocks(n)) * 4
	}
	return size
}

// Write atomically creates the index file at path. It writes to a .tmp file
// first and renames on success.
func (w *Writer) Write(path string, src Source) error {
	if _, ok := typeNamesOnDisk[w.typ]; !ok {
		return fmt.Errorf("writing index: unsupported type %v", w.typ)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp index file: %w", err)
	}
	defer f.Close()

	numDocs, numTerms := src.NumDocs(), src.NumTerms()
	docLens := src.DocLens()

	header := Header{
		Magic:    MagicBytes,
		Version:  FormatVersion,
		Type:     uint32(w.typ),
		NumDocs:  numDocs,
		NumTerms: numTerms,
	}
	if w.typ == index.TypeBlock {
		header.BlockSize = BlockSize
	}
	header.DocLenOff = uint64(HeaderSize)
	header.DictOffset = header.DocLenOff + uint64(numDocs)*4
	header.PostOffset = header.DictOffset + uint64(numTerms)*uint64(DictEntrySize)

	dict := make([]byte, 0, int(numTerms)*DictEntrySize)
	var offset uint64
	for term := range numTerms {
		n := len(src.List(term))
		dict = binary.LittleEndian.AppendUint64(dict, offset)
		dict = binary.LittleEndian.AppendUint32(dict, uint32(n))
		dict = binary.LittleEndian.AppendUint32(dict, 0)
		offset += w.listBytes(n)
	}
	header.PostSize = offset
	for _, l := range docLens {
		header.TotalDocLen += uint64(l)
	}

	bw := bufio.NewWriterSize(f, 1<<20)
	if _, err := bw.Write(header.encode()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	scratch := make([]byte, 0, 4096)
	for _, l := range docLens {
		scratch = binary.LittleEndian.AppendUint32(scratch[:0], l)
		if _, err := bw.Write(scratch); err != nil {
			return fmt.Errorf("writing document lengths: %w", err)
		}
	}
	if _, err := bw.Write(dict); err != nil {
		return fmt.Errorf("writing dictionary: %w", err)
	}
	for term := range numTerms {
		if err := w.writeList(bw, src.List(term)); err != nil {
			return fmt.Errorf("writing postings for term %d: %w", term, err)
		}
	}

	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer[0:4], crc32.ChecksumIEEE(dict))
	binary.LittleEndian.PutUint32(footer[4:8], MagicBytes)
	binary.LittleEndian.PutUint64(footer[8:16], header.PostOffset+header.PostSize+uint64(FooterSize))
	if _, err := bw.Write(footer); err != nil {
		return fmt.Errorf("writing footer: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing index file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing index file: %w", err)
	}
	f.Close()
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming index file: %w", err)
	}
	return nil
}

func (w *Writer) writeList(bw *bufio.Writer, list index.PostingList) error {
	buf := make([]byte, 0, w.listBytes(len(list)))
	if w.typ == index.TypeBlock {
		for b := range numBlocks(len(list)) {
			last := min((b+1)*BlockSize, len(list)) - 1
			buf = binary.LittleEndian.AppendUint32(buf, list[last].DocID)
		}
	}
	for _, p := range list {
		buf = binary.LittleEndian.AppendUint32(buf, p.DocID)
	}
	for _, p := range list {
		buf = binary.LittleEndian.AppendUint32(buf, p.Freq)
	}
	_, err := bw.Write(buf)
	return err
}

func numBlocks(n int) int {
	return (n + BlockSize - 1) / BlockSize
}

var typeNamesOnDisk = map[index.Type]struct{}{
	index.TypeRaw:   {},
	index.TypeBlock: {},
}
