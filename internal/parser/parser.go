// Package parser reads deck files. A deck is a plain text file holding
// tagged blocks:
//
//	Q: What is spaced repetition?
//	A: Reviewing material at growing intervals,
//	   timed to just before you would forget it.
//	C: Learning
//
// Untagged lines continue the field above them, so questions and answers
// may span several lines. A new Q: line or a --- rule starts the next
// entry. C: names the entry's category and may be omitted; callers decide
// the fallback. Entries missing a question or an answer are dropped.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/recall/internal/domain"
)

const (
	questionTag = "Q:"
	answerTag   = "A:"
	categoryTag = "C:"
	entryRule   = "---"
)

// ParseFile parses the deck file at path.
func ParseFile(path string) ([]domain.MemoryItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

// Parse extracts every entry from r in file order.
func Parse(r io.Reader) ([]domain.MemoryItem, error) {
	var p deckScan
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		p.line(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	p.flushItem()
	return p.items, nil
}

// deckScan accumulates one entry at a time as lines stream past.
type deckScan struct {
	items  []domain.MemoryItem
	item   domain.MemoryItem
	block  []string
	target *string // field the open block belongs to, nil between entries
}

func (p *deckScan) line(s string) {
	switch {
	case strings.TrimSpace(s) == entryRule:
		p.flushItem()
	case strings.HasPrefix(s, questionTag):
		if p.target != nil {
			// A question tag always opens a fresh entry.
			p.flushItem()
		}
		p.open(&p.item.Question, s[len(questionTag):])
	case strings.HasPrefix(s, answerTag):
		p.flushBlock()
		p.open(&p.item.Answer, s[len(answerTag):])
	case strings.HasPrefix(s, categoryTag):
		p.flushBlock()
		p.open(&p.item.Category, s[len(categoryTag):])
	case p.target != nil:
		p.block = append(p.block, s)
	}
}

func (p *deckScan) open(dst *string, rest string) {
	p.target = dst
	p.block = append(p.block, strings.TrimPrefix(rest, " "))
}

func (p *deckScan) flushBlock() {
	if p.target != nil && len(p.block) > 0 {
		*p.target = strings.TrimSpace(strings.Join(p.block, "\n"))
	}
	p.block = nil
}

func (p *deckScan) flushItem() {
	p.flushBlock()
	if p.item.Question != "" && p.item.Answer != "" {
		p.items = append(p.items, p.item)
	}
	p.item = domain.MemoryItem{}
	p.target = nil
}
