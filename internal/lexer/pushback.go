package lexer

import "github.com/berrym/lusush/internal/token"

// DefaultPushbackCapacity bounds the push-back ring (spec.md §4.2:
// "Push-back is a bounded ring of configurable capacity with LIFO pop
// semantics").
const DefaultPushbackCapacity = 8

// Stream wraps a Lexer with an unbounded-ahead peek(k) and a bounded
// LIFO push-back buffer, per spec.md §4.2's push-back manager contract.
type Stream struct {
	lex      *Lexer
	capacity int
	buf      []token.Token // ahead buffer: buf[0] is the next token to return
	logger   interface {
		Warn(msg string, args ...any)
	}
}

// NewStream wraps lex with a push-back manager of the given capacity.
// A non-positive capacity uses DefaultPushbackCapacity.
func NewStream(lex *Lexer, capacity int) *Stream {
	if capacity <= 0 {
		capacity = DefaultPushbackCapacity
	}
	return &Stream{lex: lex, capacity: capacity, logger: lex.logger}
}

// fill ensures at least n+1 tokens are available in buf, pulling fresh
// tokens from the underlying Lexer as needed. It never pulls past the
// first EOF token.
func (s *Stream) fill(n int) {
	for len(s.buf) <= n {
		if len(s.buf) > 0 && s.buf[len(s.buf)-1].Kind == token.EOF {
			return
		}
		s.buf = append(s.buf, s.lex.Next())
	}
}

// Next consumes and returns the next token.
func (s *Stream) Next() token.Token {
	s.fill(0)
	t := s.buf[0]
	if t.Kind != token.EOF {
		s.buf = s.buf[1:]
	}
	return t
}

// Peek returns the k-th unread token (0 = the very next) without
// consuming it.
func (s *Stream) Peek(k int) token.Token {
	s.fill(k)
	if k >= len(s.buf) {
		return s.buf[len(s.buf)-1] // EOF sentinel
	}
	return s.buf[k]
}

// Push returns a previously consumed token to the front of the stream,
// so the next Next() call yields it again. On overflow (more pushed
// tokens than capacity allows ahead), the oldest buffered token is
// evicted with a warning, as spec.md §4.2 requires. An evicted EOF token
// is dropped without a warning, since the lexer hands back another EOF
// on the next fill.
func (s *Stream) Push(t token.Token) {
	s.buf = append([]token.Token{t}, s.buf...)
	if len(s.buf) > s.capacity {
		evicted := s.buf[len(s.buf)-1]
		s.buf = s.buf[:len(s.buf)-1]
		if evicted.Kind != token.EOF && s.logger != nil {
			s.logger.Warn("pushback ring overflow, evicting oldest buffered token", "evicted", evicted.String())
		}
	}
}

// Heredoc plumbing passes through to the underlying Lexer so the parser
// does not need to hold a separate reference to it.
func (s *Stream) MarkHeredocDelimiter(delimiter string, stripTabs, quoted bool) {
	s.lex.MarkHeredocDelimiter(delimiter, stripTabs, quoted)
}

func (s *Stream) PopHeredocBody() (HeredocBody, bool) {
	return s.lex.PopHeredocBody()
}
