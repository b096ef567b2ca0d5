package index

import "sort"

type Posting struct {
	DocID uint32
	Freq  uint32
}

type PostingList []Posting

// listCursor is a PostingCursor over an in-memory PostingList.
type listCursor struct {
	list PostingList
	pos  int
	end  uint32
}

// NewListCursor returns a cursor over list that reports end once exhausted.
func NewListCursor(list PostingList, end uint32) PostingCursor {
	return &listCursor{list: list, end: end}
}

func (c *listCursor) DocID() uint32 {
	if c.pos >= len(c.list) {
		return c.end
	}
	return c.list[c.pos].DocID
}

func (c *listCursor) Freq() uint32 {
	if c.pos >= len(c.list) {
		return 0
	}
	return c.list[c.pos].Freq
}

func (c *listCursor) Next() {
	if c.pos < len(c.list) {
		c.pos++
	}
}

func (c *listCursor) NextGEQ(target uint32) {
	if c.DocID() >= target {
		return
	}
	rest := c.list[c.pos:]
	c.pos += sort.Search(len(rest), func(i int) bool {
		return rest[i].DocID >= target
	})
}

func (c *listCursor) Size() int {
	return len(c.list)
}
