// Package parser implements the recursive-descent parser described in
// spec.md §4.3: it consumes a token stream from internal/lexer and
// produces an *ast.Node tree per the POSIX shell grammar, augmented with
// arrays, [[...]], ((...)), <<<, process substitution, time, coproc, and
// select. Function definitions use the name() form only; the `function`
// keyword form, named or anonymous, is not parsed.
package parser

import (
	"strings"
	"sync/atomic"

	"github.com/berrym/lusush/internal/alias"
	"github.com/berrym/lusush/internal/ast"
	"github.com/berrym/lusush/internal/diag"
	"github.com/berrym/lusush/internal/lexer"
	"github.com/berrym/lusush/internal/token"
)

// DefaultMaxDepth bounds recursive-descent depth (spec.md §4.3:
// "Recursion depth is bounded by a configurable limit").
const DefaultMaxDepth = 200

// Option configures a Parser at construction time, following the
// teacher's functional-options style (runtime/parser/options.go).
type Option func(*Parser)

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(p *Parser) { p.maxDepth = n }
}

// WithAliasExpander attaches an alias expander; command-position words
// are run through it before being classified as command names.
func WithAliasExpander(e *alias.Expander) Option {
	return func(p *Parser) { p.aliases = e }
}

// Parser holds state for one parse over a token Stream.
type Parser struct {
	stream  *lexer.Stream
	sink    *diag.Sink
	aliases *alias.Expander

	depth     int
	maxDepth  int
	cancelled atomic.Bool
}

// New constructs a Parser reading from stream and reporting diagnostics
// to sink.
func New(stream *lexer.Stream, sink *diag.Sink, opts ...Option) *Parser {
	p := &Parser{stream: stream, sink: sink, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Cancel requests cooperative cancellation; parsing stops at the next
// statement boundary (spec.md §5).
func (p *Parser) Cancel() { p.cancelled.Store(true) }

func (p *Parser) peek(k int) token.Token { return p.stream.Peek(k) }
func (p *Parser) advance() token.Token   { return p.stream.Next() }

func (p *Parser) at(k token.Kind) bool { return p.peek(0).Kind == k }

func (p *Parser) expect(k token.Kind) (token.Token, bool) {
	t := p.peek(0)
	if t.Kind != k {
		p.sink.Add(diag.Diagnostic{
			Severity: diag.Error, Kind: diag.Syntax, Pos: t.Pos,
			Message:  "unexpected " + t.Kind.String() + ", expected " + k.String(),
			Expected: []string{k.String()}, Got: t.Kind.String(),
		})
		return t, false
	}
	return p.advance(), true
}

func (p *Parser) skipNewlines() {
	for p.at(token.NEWLINE) {
		p.advance()
	}
}

// enter guards one recursive-descent call against RECURSION_LIMIT. It
// returns false (and records the diagnostic) if the limit is exceeded;
// callers must still call leave in that case via the paired defer.
func (p *Parser) enter(pos token.Position) bool {
	p.depth++
	if p.depth > p.maxDepth {
		p.sink.Add(diag.Diagnostic{Severity: diag.Fatal, Kind: diag.RecursionLimit, Pos: pos, Message: "parser recursion limit exceeded"})
		return false
	}
	return true
}

func (p *Parser) leave() { p.depth-- }

// atStatementBoundary reports whether cancellation has been requested.
// Parse checks it before each complete command and parseList checks it
// after each list element; there is no separate check when a
// compound-command body ends.
func (p *Parser) atStatementBoundary() bool {
	return p.cancelled.Load()
}

// atSyncPoint reports whether the current token is a point from which a
// list may legally stop: a closing keyword for whatever compound
// construct encloses this parse, or EOF. This is a conservative
// approximation of full POSIX grammar context tracking, sufficient to
// recover deterministically at `list` boundaries per spec.md §4.3.
func (p *Parser) atSyncPoint() bool {
	switch p.peek(0).Kind {
	case token.EOF, token.THEN, token.ELIF, token.ELSE, token.FI,
		token.DO, token.DONE, token.ESAC, token.RBRACE, token.RPAREN,
		token.DRPAREN, token.DRBRACKET:
		return true
	default:
		return false
	}
}

// recover discards tokens up to the next synchronization point (spec.md
// §4.3: end of list — ";", "&", NEWLINE, or EOF).
func (p *Parser) recover() {
	for {
		switch p.peek(0).Kind {
		case token.SEMI, token.AMP, token.NEWLINE, token.EOF:
			return
		}
		p.advance()
	}
}

// Parse returns the next complete command (a list followed by an
// optional separator) or reports eof=true at end of input.
func (p *Parser) Parse() (node *ast.Node, eof bool) {
	p.skipNewlines()
	if p.at(token.EOF) {
		return nil, true
	}
	if p.atStatementBoundary() {
		p.sink.Add(diag.Diagnostic{Severity: diag.Info, Kind: diag.Cancelled, Pos: p.peek(0).Pos, Message: "parse cancelled"})
		return nil, true
	}
	node = p.parseList()
	switch t := p.peek(0); t.Kind {
	case token.SEMI, token.AMP:
		p.advance()
	case token.NEWLINE, token.EOF:
	default:
		p.sink.Add(diag.Diagnostic{
			Severity: diag.Error, Kind: diag.Syntax, Pos: t.Pos,
			Message: "unexpected " + t.Kind.String(), Got: t.Kind.String(),
		})
		p.recover()
	}
	return node, false
}

// parseList implements `list := and_or ( (';' | '&' | NEWLINE) and_or )*`.
func (p *Parser) parseList() *ast.Node {
	first := p.parseAndOr()
	items := []*ast.Node{first}

	for {
		tok := p.peek(0)
		if tok.Kind != token.SEMI && tok.Kind != token.AMP && tok.Kind != token.NEWLINE {
			break
		}
		// At top level a NEWLINE ends the complete command; Parse leaves
		// it for the next call, so each line is returned on its own.
		if tok.Kind == token.NEWLINE && p.depth == 0 {
			break
		}
		async := tok.Kind == token.AMP
		p.advance()
		p.skipNewlines()
		if async {
			items[len(items)-1] = ast.New(ast.BACKGROUND, items[len(items)-1].Pos, items[len(items)-1])
		}
		if p.atSyncPoint() {
			break
		}
		if p.atStatementBoundary() {
			break
		}
		items = append(items, p.parseAndOr())
	}

	if len(items) == 1 {
		return items[0]
	}
	return ast.New(ast.LIST, items[0].Pos, items...)
}

// parseAndOr implements `and_or := pipeline ( ('&&' | '||') linebreak pipeline )*`.
func (p *Parser) parseAndOr() *ast.Node {
	left := p.parsePipeline()
	for p.at(token.AND_AND) || p.at(token.OR_OR) {
		tok := p.advance()
		p.skipNewlines()
		right := p.parsePipeline()
		kind := ast.LOGICAL_AND
		if tok.Kind == token.OR_OR {
			kind = ast.LOGICAL_OR
		}
		left = ast.New(kind, left.Pos, left, right)
	}
	return left
}

// parsePipeline implements `pipeline := ['!'] pipe_sequence`.
func (p *Parser) parsePipeline() *ast.Node {
	pos := p.peek(0).Pos
	negate := false
	if p.at(token.BANG) {
		p.advance()
		negate = true
	}
	cmds := []*ast.Node{p.parseCommand()}
	for p.at(token.PIPE) {
		p.advance()
		p.skipNewlines()
		cmds = append(cmds, p.parseCommand())
	}
	var node *ast.Node
	if len(cmds) == 1 {
		node = cmds[0]
	} else {
		node = ast.New(ast.PIPELINE, pos, cmds...)
	}
	if negate {
		node = ast.New(ast.NEGATE, pos, node)
	}
	return node
}

// parseCommand implements `command := simple_command | compound_command
// [redirect_list] | function_def`, guarded against RECURSION_LIMIT.
func (p *Parser) parseCommand() *ast.Node {
	pos := p.peek(0).Pos
	if !p.enter(pos) {
		defer p.leave()
		return ast.New(ast.COMMAND, pos)
	}
	defer p.leave()

	var node *ast.Node
	switch p.peek(0).Kind {
	case token.LBRACE:
		node = p.parseBraceGroup()
	case token.LPAREN:
		node = p.parseSubshell()
	case token.IF:
		node = p.parseIf()
	case token.WHILE:
		node = p.parseWhile()
	case token.UNTIL:
		node = p.parseUntil()
	case token.FOR:
		node = p.parseFor()
	case token.CASE:
		node = p.parseCase()
	case token.SELECT:
		node = p.parseSelect()
	case token.DLPAREN:
		node = p.parseArithCmd()
	case token.DLBRACKET:
		node = p.parseExtendedTest()
	case token.TIME:
		node = p.parseTime()
	case token.COPROC:
		node = p.parseCoproc()
	case token.WORD:
		if p.isFunctionDefinitionAhead() {
			node = p.parseFunctionDef()
		} else {
			node = p.parseSimpleCommand()
		}
	default:
		node = p.parseSimpleCommand()
	}

	// trailing redirections after a compound command: `{ ...; } > out`
	for {
		r, ok := p.tryParseRedirection()
		if !ok {
			break
		}
		node.Append(r)
	}
	return node
}

// isFunctionDefinitionAhead implements Open Question decision 2
// (DESIGN.md): two-token lookahead `IDENTIFIER '(' ')'`.
func (p *Parser) isFunctionDefinitionAhead() bool {
	return p.peek(0).Kind == token.WORD && p.peek(1).Kind == token.LPAREN && p.peek(2).Kind == token.RPAREN
}

func (p *Parser) parseFunctionDef() *ast.Node {
	name := p.advance()
	p.advance() // (
	p.advance() // )
	p.skipNewlines()
	pos := name.Pos
	body := p.parseCommand()
	node := ast.New(ast.FUNCTION, pos, body).WithValue(name.Lexeme)
	return node
}

func (p *Parser) parseBraceGroup() *ast.Node {
	pos := p.advance().Pos // {
	p.skipNewlines()
	body := p.parseList()
	p.skipNewlines()
	p.expect(token.RBRACE)
	return ast.New(ast.BRACE_GROUP, pos, body)
}

func (p *Parser) parseSubshell() *ast.Node {
	pos := p.advance().Pos // (
	p.skipNewlines()
	body := p.parseList()
	p.skipNewlines()
	p.expect(token.RPAREN)
	return ast.New(ast.SUBSHELL, pos, body)
}

func (p *Parser) parseIf() *ast.Node {
	pos := p.advance().Pos // if
	children := []*ast.Node{}
	children = append(children, p.parseCompoundListUntil(token.THEN))
	p.expect(token.THEN)
	children = append(children, p.parseCompoundListUntil(token.ELIF, token.ELSE, token.FI))
	for p.at(token.ELIF) {
		p.advance()
		children = append(children, p.parseCompoundListUntil(token.THEN))
		p.expect(token.THEN)
		children = append(children, p.parseCompoundListUntil(token.ELIF, token.ELSE, token.FI))
	}
	if p.at(token.ELSE) {
		p.advance()
		children = append(children, p.parseCompoundListUntil(token.FI))
	}
	p.expect(token.FI)
	return ast.New(ast.IF, pos, children...)
}

func (p *Parser) parseWhile() *ast.Node {
	pos := p.advance().Pos
	cond := p.parseCompoundListUntil(token.DO)
	p.expect(token.DO)
	body := p.parseCompoundListUntil(token.DONE)
	p.expect(token.DONE)
	return ast.New(ast.WHILE, pos, cond, body)
}

func (p *Parser) parseUntil() *ast.Node {
	pos := p.advance().Pos
	cond := p.parseCompoundListUntil(token.DO)
	p.expect(token.DO)
	body := p.parseCompoundListUntil(token.DONE)
	p.expect(token.DONE)
	return ast.New(ast.UNTIL, pos, cond, body)
}

func (p *Parser) parseFor() *ast.Node {
	pos := p.advance().Pos // for
	if p.at(token.DLPAREN) {
		return p.parseForArith(pos)
	}
	name, _ := p.expect(token.WORD)
	p.skipNewlines()
	words := ast.New(ast.LIST, p.peek(0).Pos)
	if p.atIn() {
		p.advance()
		for !p.at(token.SEMI) && !p.at(token.NEWLINE) && !p.at(token.EOF) {
			words.Append(p.parseWordlike())
		}
	}
	if p.at(token.SEMI) || p.at(token.NEWLINE) {
		p.advance()
	}
	p.skipNewlines()
	p.expect(token.DO)
	body := p.parseCompoundListUntil(token.DONE)
	p.expect(token.DONE)
	return ast.New(ast.FOR, pos, words, body).WithValue(name.Lexeme)
}

func (p *Parser) parseForArith(pos token.Position) *ast.Node {
	p.advance() // ((
	expr := p.scanArithText(token.DRPAREN)
	p.expect(token.DRPAREN)
	p.skipNewlines()
	if p.at(token.SEMI) {
		p.advance()
	}
	p.skipNewlines()
	p.expect(token.DO)
	body := p.parseCompoundListUntil(token.DONE)
	p.expect(token.DONE)
	return ast.New(ast.FOR_ARITH, pos, body).WithValue(expr)
}

func (p *Parser) parseSelect() *ast.Node {
	pos := p.advance().Pos
	name, _ := p.expect(token.WORD)
	words := ast.New(ast.LIST, p.peek(0).Pos)
	if p.atIn() {
		p.advance()
		for !p.at(token.SEMI) && !p.at(token.NEWLINE) && !p.at(token.EOF) {
			words.Append(p.parseWordlike())
		}
	}
	if p.at(token.SEMI) || p.at(token.NEWLINE) {
		p.advance()
	}
	p.skipNewlines()
	p.expect(token.DO)
	body := p.parseCompoundListUntil(token.DONE)
	p.expect(token.DONE)
	return ast.New(ast.SELECT, pos, words, body).WithValue(name.Lexeme)
}

func (p *Parser) parseCase() *ast.Node {
	pos := p.advance().Pos
	subject, _ := p.expect(token.WORD)
	p.skipNewlines()
	if p.atIn() {
		p.advance()
	} else {
		p.expect(token.IN)
	}
	p.skipNewlines()
	var items []*ast.Node
	for !p.at(token.ESAC) && !p.at(token.EOF) {
		items = append(items, p.parseCaseItem())
		p.skipNewlines()
	}
	p.expect(token.ESAC)
	return ast.New(ast.CASE, pos, items...).WithValue(subject.Lexeme)
}

func (p *Parser) parseCaseItem() *ast.Node {
	pos := p.peek(0).Pos
	if p.at(token.LPAREN) {
		p.advance()
	}
	var patterns []string
	patterns = append(patterns, p.advance().Lexeme)
	for p.at(token.PIPE) {
		p.advance()
		patterns = append(patterns, p.advance().Lexeme)
	}
	p.expect(token.RPAREN)
	p.skipNewlines()
	body := ast.New(ast.LIST, p.peek(0).Pos)
	if !p.at(token.SEMI_SEMI) && !p.at(token.SEMI_AMP) && !p.at(token.SEMI_SEMI_AMP) && !p.at(token.ESAC) {
		body = p.parseCompoundListUntil(token.ESAC)
	}
	term := 0
	switch p.peek(0).Kind {
	case token.SEMI_AMP:
		term = 1
		p.advance()
	case token.SEMI_SEMI_AMP:
		term = 2
		p.advance()
	case token.SEMI_SEMI:
		p.advance()
	}
	p.skipNewlines()
	return ast.New(ast.CASE_ITEM, pos, body).WithValue(strings.Join(patterns, "|")).WithFd(term)
}

func (p *Parser) parseArithCmd() *ast.Node {
	pos := p.advance().Pos // ((
	expr := p.scanArithText(token.DRPAREN)
	p.expect(token.DRPAREN)
	return ast.New(ast.ARITH_CMD, pos).WithValue(expr)
}

func (p *Parser) parseExtendedTest() *ast.Node {
	pos := p.advance().Pos // [[
	expr := p.scanArithText(token.DRBRACKET)
	p.expect(token.DRBRACKET)
	return ast.New(ast.EXTENDED_TEST, pos).WithValue(expr)
}

func (p *Parser) parseTime() *ast.Node {
	pos := p.advance().Pos
	body := p.parsePipeline()
	return ast.New(ast.TIME, pos, body)
}

func (p *Parser) parseCoproc() *ast.Node {
	pos := p.advance().Pos
	name := ""
	if p.at(token.WORD) && p.peek(1).Kind != token.LPAREN {
		name = p.advance().Lexeme
	}
	body := p.parseCommand()
	return ast.New(ast.COPROC, pos, body).WithValue(name)
}

// parseCompoundListUntil parses a list and stops at EOF or any of the
// given terminator kinds, without consuming the terminator.
func (p *Parser) parseCompoundListUntil(terminators ...token.Kind) *ast.Node {
	p.skipNewlines()
	if p.at(token.EOF) || p.atAnyOf(terminators) {
		return ast.New(ast.LIST, p.peek(0).Pos)
	}
	return p.parseList()
}

// atIn reports whether the current token is the `in` of a for, select,
// or case clause. The scanner classifies reserved words only in command
// position, and the word after the loop variable or case subject is not
// in command position, so `in` arrives there as a plain WORD.
func (p *Parser) atIn() bool {
	t := p.peek(0)
	return t.Kind == token.IN || (t.Kind == token.WORD && t.Lexeme == "in")
}

func (p *Parser) atAnyOf(kinds []token.Kind) bool {
	cur := p.peek(0).Kind
	for _, k := range kinds {
		if cur == k {
			return true
		}
	}
	return false
}

// scanArithText concatenates raw token lexemes up to (not including) the
// given closing token kind, for arithmetic/extended-test bodies that the
// arithmetic evaluator or test collaborator re-parses independently.
func (p *Parser) scanArithText(closing token.Kind) string {
	var b strings.Builder
	for !p.at(closing) && !p.at(token.EOF) {
		t := p.advance()
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t.Lexeme)
	}
	return b.String()
}
