package segment

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/index"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/mmap"
	apperrors "github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/errors"
)

// Reader is an index.Index served from a memory-mapped index file.
type Reader struct {
	file      *mmap.File
	filePath  string
	header    Header
	typ       index.Type
	docLens   []byte
	dict      []byte
	postings  []byte
	avgDocLen float64
}

// Open maps the index file at path and checks that it holds an index of the
// requested type.
func Open(typ index.Type, path string) (*Reader, error) {
	if _, ok := typeNamesOnDisk[typ]; !ok {
		return nil, apperrors.Config(apperrors.ErrUnknownIndexType, "%v", typ)
	}
	f, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	r, err := newReader(f.Data, typ)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening index file %s: %w", path, err)
	}
	r.file = f
	r.filePath = path
	return r, nil
}

func newReader(data []byte, typ index.Type) (*Reader, error) {
	if len(data) < HeaderSize+FooterSize {
		return nil, apperrors.Newf(apperrors.ErrCorruptFile, apperrors.ExitSetup, "file too short (%d bytes)", len(data))
	}
	header := decodeHeader(data[:HeaderSize])
	if header.Magic != MagicBytes {
		return nil, apperrors.Newf(apperrors.ErrCorruptFile, apperrors.ExitSetup, "bad magic bytes %x", header.Magic)
	}
	if header.Version != FormatVersion {
		return nil, apperrors.Newf(apperrors.ErrCorruptFile, apperrors.ExitSetup, "unsupported version %d", header.Version)
	}
	if index.Type(header.Type) != typ {
		return nil, apperrors.Newf(apperrors.ErrCorruptFile, apperrors.ExitSetup,
			"file holds a %v index, %v requested", index.Type(header.Type), typ)
	}
	if typ == index.TypeBlock && header.BlockSize != BlockSize {
		return nil, apperrors.Newf(apperrors.ErrCorruptFile, apperrors.ExitSetup, "unsupported block size %d", header.BlockSize)
	}
	dictEnd := header.DictOffset + uint64(header.NumTerms)*uint64(DictEntrySize)
	postEnd := header.PostOffset + header.PostSize
	if header.DocLenOff+uint64(header.NumDocs)*4 != header.DictOffset ||
		dictEnd != header.PostOffset ||
		postEnd+uint64(FooterSize) != uint64(len(data)) {
		return nil, apperrors.New(apperrors.ErrCorruptFile, apperrors.ExitSetup, "section offsets do not match file size")
	}
	dict := data[header.DictOffset:dictEnd]
	footer := data[postEnd:]
	if crc := binary.LittleEndian.Uint32(footer[0:4]); crc != crc32.ChecksumIEEE(dict) {
		return nil, apperrors.Newf(apperrors.ErrCorruptFile, apperrors.ExitSetup, "dictionary checksum mismatch %x", crc)
	}
	w := Writer{typ: typ}
	for term := range header.NumTerms {
		entry := dict[int(term)*DictEntrySize:]
		offset := binary.LittleEndian.Uint64(entry[0:8])
		n := int(binary.LittleEndian.Uint32(entry[8:12]))
		if offset+w.listBytes(n) > header.PostSize {
			return nil, apperrors.Newf(apperrors.ErrCorruptFile, apperrors.ExitSetup, "postings of term %d out of bounds", term)
		}
	}
	r := &Reader{
		header:   header,
		typ:      typ,
		docLens:  data[header.DocLenOff:header.DictOffset],
		dict:     dict,
		postings: data[header.PostOffset:postEnd],
	}
	if header.NumDocs > 0 {
		r.avgDocLen = float64(header.TotalDocLen) / float64(header.NumDocs)
	}
	return r, nil
}

func (r *Reader) NumDocs() uint32 { return r.header.NumDocs }

func (r *Reader) NumTerms() uint32 { return r.header.NumTerms }

func (r *Reader) Type() index.Type { return r.typ }

func (r *Reader) DocLen(doc uint32) uint32 {
	return binary.LittleEndian.Uint32(r.docLens[doc*4:])
}

func (r *Reader) AvgDocLen() float64 { return r.avgDocLen }

func (r *Reader) Postings(term index.TermID) (index.PostingCursor, bool) {
	if term >= r.header.NumTerms {
		return nil, false
	}
	entry := r.dict[int(term)*DictEntrySize:]
	offset := binary.LittleEndian.Uint64(entry[0:8])
	n := int(binary.LittleEndian.Uint32(entry[8:12]))
	if n == 0 {
		return nil, false
	}
	list := r.postings[offset:]
	end := r.header.NumDocs
	switch r.typ {
	case index.TypeBlock:
		nb := numBlocks(n)
		skips := list[:nb*4]
		docs := list[nb*4 : nb*4+n*4]
		freqs := list[nb*4+n*4 : nb*4+n*8]
		return &blockCursor{rawCursor: rawCursor{docs: docs, freqs: freqs, n: n, end: end}, skips: skips, blocks: nb}, true
	default:
		return &rawCursor{docs: list[:n*4], freqs: list[n*4 : n*8], n: n, end: end}, true
	}
}

// Close unmaps the index file. Cursors must not be used afterwards.
func (r *Reader) Close() error {
	return r.file.Close()
}

func u32(b []byte, i int) uint32 {
	return binary.LittleEndian.Uint32(b[i*4:])
}

// rawCursor walks flat docid/freq arrays; NextGEQ gallops then bisects.
type rawCursor struct {
	docs  []byte
	freqs []byte
	n     int
	pos   int
	end   uint32
}

func (c *rawCursor) DocID() uint32 {
	if c.pos >= c.n {
		return c.end
	}
	return u32(c.docs, c.pos)
}

func (c *rawCursor) Freq() uint32 {
	if c.pos >= c.n {
		return 0
	}
	return u32(c.freqs, c.pos)
}

func (c *rawCursor) Next() {
	if c.pos < c.n {
		c.pos++
	}
}

func (c *rawCursor) NextGEQ(target uint32) {
	if c.DocID() >= target {
		return
	}
	c.pos = c.search(c.pos, c.n, target)
}

// search returns the first position in [lo, hi) whose document id is >=
// target, or hi. The posting at lo is known to be < target.
func (c *rawCursor) search(lo, hi int, target uint32) int {
	step := 1
	for lo+step < hi && u32(c.docs, lo+step) < target {
		lo += step
		step <<= 1
	}
	hi = min(lo+step+1, hi)
	lo++
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if u32(c.docs, mid) < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func (c *rawCursor) Size() int { return c.n }

// blockCursor skips whole blocks through the per-list table of last document
// ids before scanning inside one block.
type blockCursor struct {
	rawCursor
	skips  []byte
	blocks int
	block  int
}

func (c *blockCursor) Next() {
	c.rawCursor.Next()
	c.block = c.pos / BlockSize
}

func (c *blockCursor) NextGEQ(target uint32) {
	if c.DocID() >= target {
		return
	}
	for c.block < c.blocks && u32(c.skips, c.block) < target {
		c.block++
	}
	if c.block == c.blocks {
		c.pos = c.n
		return
	}
	c.pos = max(c.pos, c.block*BlockSize)
	for u32(c.docs, c.pos) < target {
		c.pos++
	}
}
