package parse

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnbalanced is returned by the strict splitter when brace depth goes
// negative or a block is left open at end of input.
var ErrUnbalanced = errors.New("malformed block structure")

// BoundaryError reports where the strict splitter lost track of block
// boundaries. Line is 1-based; Depth is the brace depth after that line.
type BoundaryError struct {
	Line  int
	Depth int
}

func (e *BoundaryError) Error() string {
	if e.Depth < 0 {
		return fmt.Sprintf("%s: unmatched '}' at line %d", ErrUnbalanced, e.Line)
	}
	return fmt.Sprintf("%s: %d unclosed '{' at end of input (line %d)", ErrUnbalanced, e.Depth, e.Line)
}

func (e *BoundaryError) Unwrap() error { return ErrUnbalanced }

// Policy selects how the splitter treats broken block boundaries.
type Policy int

const (
	// Tolerant never fails: negative depth is carried along and an
	// unterminated trailing buffer is dropped.
	Tolerant Policy = iota
	// Strict fails on negative depth or an unterminated trailing buffer.
	Strict
)

// Splitter collects pretty-printed JSON objects from a line stream by
// tracking brace depth outside of string literals.
//
// It has two states: outside a block (buffer empty, blank lines skipped)
// and inside a block at depth N (every line buffered).
type Splitter struct {
	policy Policy
	depth  int
	line   int
	buf    []string
	blocks []string
}

func NewSplitter(policy Policy) *Splitter {
	return &Splitter{policy: policy}
}

// Feed consumes one line (without its trailing newline).
func (s *Splitter) Feed(line string) error {
	s.line++

	if len(s.buf) == 0 && strings.TrimSpace(line) == "" {
		return nil
	}

	opens, closes := countBraces(stripStrings(line))
	s.depth += opens - closes
	if s.depth < 0 && s.policy == Strict {
		return &BoundaryError{Line: s.line, Depth: s.depth}
	}

	s.buf = append(s.buf, line)
	if s.depth == 0 {
		s.flush()
	}
	return nil
}

// Finish ends the stream and returns the collected blocks in input order.
func (s *Splitter) Finish() ([]string, error) {
	if s.depth != 0 {
		if s.policy == Strict {
			return nil, &BoundaryError{Line: s.line, Depth: s.depth}
		}
		return s.blocks, nil
	}
	s.flush()
	return s.blocks, nil
}

func (s *Splitter) flush() {
	if len(s.buf) == 0 {
		return
	}
	block := strings.TrimSpace(strings.Join(s.buf, "\n"))
	s.buf = s.buf[:0]
	if block != "" {
		s.blocks = append(s.blocks, block)
	}
}

// SplitBlocks splits raw text into candidate JSON block texts with the
// tolerant policy.
func SplitBlocks(raw string) []string {
	blocks, _ := split(raw, Tolerant)
	return blocks
}

// SplitBlocksStrict is SplitBlocks for callers about to rewrite the source:
// any boundary problem fails the whole split.
func SplitBlocksStrict(raw string) ([]string, error) {
	return split(raw, Strict)
}

func split(raw string, policy Policy) ([]string, error) {
	s := NewSplitter(policy)
	for _, line := range strings.Split(raw, "\n") {
		if err := s.Feed(line); err != nil {
			return nil, err
		}
	}
	return s.Finish()
}

func countBraces(s string) (opens, closes int) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			opens++
		case '}':
			closes++
		}
	}
	return opens, closes
}

// stripStrings removes every double-quoted literal from line. A literal is
// a quote, then any run of backslash-escaped characters or characters other
// than quote and backslash, then a closing quote. A quote that does not
// start a complete literal is kept and scanning resumes at the next byte.
func stripStrings(line string) string {
	if strings.IndexByte(line, '"') < 0 {
		return line
	}

	var b strings.Builder
	b.Grow(len(line))
	for i := 0; i < len(line); {
		if line[i] == '"' {
			if end, ok := literalEnd(line, i); ok {
				i = end
				continue
			}
		}
		b.WriteByte(line[i])
		i++
	}
	return b.String()
}

// literalEnd returns the index just past the literal opening at start.
func literalEnd(line string, start int) (int, bool) {
	for j := start + 1; j < len(line); {
		switch line[j] {
		case '"':
			return j + 1, true
		case '\\':
			n := escapedWidth(line[j+1:])
			if n == 0 {
				return 0, false
			}
			j += 1 + n
		default:
			j++
		}
	}
	return 0, false
}

// escapedWidth is the byte width of the character following a backslash,
// or 0 when there is none or it is a line terminator.
func escapedWidth(rest string) int {
	switch {
	case rest == "":
		return 0
	case rest[0] == '\r':
		return 0
	case strings.HasPrefix(rest, "\u2028"), strings.HasPrefix(rest, "\u2029"):
		return 0
	default:
		return 1
	}
}
