package parser

import (
	"regexp"
	"strings"

	"github.com/berrym/lusush/internal/ast"
	"github.com/berrym/lusush/internal/token"
)

// parseSimpleCommand implements `simple_command` (spec.md §4.3): a flat
// sequence of assignment words, redirections, and words in original
// order. Assignments before the first ordinary WORD are command-local
// variable settings; assignments after it are ordinary arguments — both
// are represented the same way in the tree (the distinction is an
// executor concern), matching the grammar note that "redirections
// attach to the command regardless of position."
//
// Process substitution is checked before redirection on every
// iteration: `<(` and `>(` start with the same LESS/GREAT tokens a
// plain redirection operator does, so testing redirection first would
// always win and swallow the `<`/`>` before process substitution ever
// saw it (it only worked by accident in for/select word lists and
// array literals, which reach parseWordlike directly).
func (p *Parser) parseSimpleCommand() *ast.Node {
	pos := p.peek(0).Pos
	node := ast.New(ast.COMMAND, pos)

	// aliasEligible tracks spec.md §4.4's command-position rule: only
	// the word in command-name position is a candidate for alias
	// substitution, and rule (b) keeps the *next* word eligible too
	// when the replacement text ends in whitespace.
	aliasEligible := true

	for {
		if procSub, ok := p.tryParseProcessSubstitution(); ok {
			node.Append(procSub)
			aliasEligible = false
			continue
		}
		if r, ok := p.tryParseRedirection(); ok {
			node.Append(r)
			continue
		}
		switch p.peek(0).Kind {
		case token.ASSIGNMENT_WORD:
			node.Append(p.parseAssignmentOrWord())
			continue
		case token.WORD:
			if aliasEligible && p.aliases != nil {
				if words, trailingSpace, ok := p.expandAliasWord(); ok {
					for _, w := range words {
						node.Append(w)
					}
					aliasEligible = trailingSpace
					continue
				}
			}
			node.Append(p.parseWordlike())
			aliasEligible = false
			continue
		}
		break
	}
	return node
}

// expandAliasWord runs the current WORD token through the alias
// expander (spec.md §4.4). ok is false when the word names no alias,
// in which case the caller falls back to the ordinary word parse.
// Quoted words are never candidates (rule (c)); the scanner folds
// quote characters into Lexeme for any word that isn't cleanly
// single-quoted, so their presence is enough to exclude it here.
func (p *Parser) expandAliasWord() (words []*ast.Node, trailingSpace bool, ok bool) {
	t := p.peek(0)
	if strings.ContainsAny(t.Lexeme, `'"`) {
		return nil, false, false
	}
	expanded, trailing := p.aliases.Expand(t.Lexeme)
	if expanded == t.Lexeme {
		return nil, false, false
	}
	p.advance()
	fields := strings.Fields(expanded)
	nodes := make([]*ast.Node, 0, len(fields))
	for _, f := range fields {
		nodes = append(nodes, ast.New(ast.STRING_EXPANDABLE, t.Pos).WithValue(f))
	}
	return nodes, trailing, true
}

// parseAssignmentOrWord consumes an ASSIGNMENT_WORD token. If it is
// followed by an LPAREN it is an array assignment
// (`name=(...)` or `name+=(...)`); otherwise it is a scalar assignment,
// represented as a STRING_EXPANDABLE node carrying the raw "name=value"
// text (expansion of the value happens at execution time).
func (p *Parser) parseAssignmentOrWord() *ast.Node {
	t := p.advance()
	name, _, isAppend := splitAssignment(t.Lexeme)

	if p.at(token.LPAREN) {
		p.advance()
		lit := ast.New(ast.ARRAY_LITERAL, t.Pos)
		for !p.at(token.RPAREN) && !p.at(token.EOF) {
			lit.Append(p.parseWordlike())
		}
		p.expect(token.RPAREN)
		kind := ast.ARRAY_ASSIGN
		if isAppend {
			kind = ast.ARRAY_APPEND
		}
		return ast.New(kind, t.Pos, lit).WithValue(name)
	}

	return ast.New(ast.STRING_EXPANDABLE, t.Pos).WithValue(t.Lexeme)
}

// splitAssignment splits an ASSIGNMENT_WORD lexeme into name and value,
// reporting whether it used the "+=" compound-assignment operator.
func splitAssignment(lexeme string) (name, value string, isAppend bool) {
	if i := strings.Index(lexeme, "+="); i >= 0 {
		return lexeme[:i], lexeme[i+2:], true
	}
	if i := strings.Index(lexeme, "="); i >= 0 {
		return lexeme[:i], lexeme[i+1:], false
	}
	return lexeme, "", false
}

// parseWordlike consumes one WORD, recognizing process substitution
// (`<(...)`/`>(...)` — detected at parse time since the scanner emits
// LESS/GREAT and LPAREN as separate adjacent tokens), and otherwise
// returns a literal, expandable, or array-access string node depending
// on the token's raw text. Alias substitution does not happen here: it
// is a command-position rule, handled by parseSimpleCommand before it
// ever calls parseWordlike.
func (p *Parser) parseWordlike() *ast.Node {
	if procSub, ok := p.tryParseProcessSubstitution(); ok {
		return procSub
	}
	t := p.advance()
	return wordNode(t)
}

// arrayAccessPattern recognizes `${name[subscript]}`, the supplemented
// ARRAY_ACCESS form (SPEC_FULL.md §12): the scanner already captures the
// whole `${...}` span as one WORD via scanWord's brace-depth tracking,
// so the node shape is teased out of the finished lexeme rather than
// during scanning itself.
var arrayAccessPattern = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*\[[^}]*\])\}$`)

func wordNode(t token.Token) *ast.Node {
	if isFullySingleQuoted(t.Raw) {
		return ast.New(ast.STRING_LITERAL, t.Pos).WithValue(t.Lexeme)
	}
	if m := arrayAccessPattern.FindStringSubmatch(t.Lexeme); m != nil {
		return ast.New(ast.ARRAY_ACCESS, t.Pos).WithValue(m[1])
	}
	return ast.New(ast.STRING_EXPANDABLE, t.Pos).WithValue(t.Lexeme)
}

func isFullySingleQuoted(raw string) bool {
	return len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\''
}

// tryParseProcessSubstitution recognizes `<(list)` / `>(list)` at the
// current position.
func (p *Parser) tryParseProcessSubstitution() (*ast.Node, bool) {
	if !p.at(token.LESS) && !p.at(token.GREAT) {
		return nil, false
	}
	if p.peek(1).Kind != token.LPAREN {
		return nil, false
	}
	lessGreat := p.advance()
	p.advance() // (
	body := p.parseList()
	p.expect(token.RPAREN)
	kind := ast.PROC_SUB_IN
	if lessGreat.Kind == token.GREAT {
		kind = ast.PROC_SUB_OUT
	}
	return ast.New(kind, lessGreat.Pos, body), true
}

// tryParseRedirection recognizes an optional IO_NUMBER followed by a
// redirection operator and its target word, per spec.md §4.3 ("the
// optional leading IO_NUMBER binds to the immediately following
// operator").
func (p *Parser) tryParseRedirection() (*ast.Node, bool) {
	fd := -1
	pos := p.peek(0).Pos
	if p.at(token.IO_NUMBER) {
		t := p.peek(0)
		if !isRedirOperator(p.peek(1).Kind) {
			return nil, false
		}
		fd = t.IONumber
		p.advance()
		pos = t.Pos
	}
	if !isRedirOperator(p.peek(0).Kind) {
		return nil, false
	}
	opTok := p.advance()
	kind, ok := redirKind(opTok.Kind)
	if !ok {
		return nil, false
	}

	if kind == ast.REDIR_HEREDOC || kind == ast.REDIR_HEREDOC_STRIP {
		return p.finishHeredocRedirection(kind, pos, fd)
	}

	target := p.parseWordlike()
	return ast.New(kind, pos, target).WithFd(fd), true
}

func (p *Parser) finishHeredocRedirection(kind ast.Kind, pos token.Position, fd int) (*ast.Node, bool) {
	delimTok := p.advance()
	quoted := strings.ContainsAny(delimTok.Raw, "\"'\\")
	stripTabs := kind == ast.REDIR_HEREDOC_STRIP
	p.stream.MarkHeredocDelimiter(delimTok.Lexeme, stripTabs, quoted)

	delimNode := wordNode(delimTok)
	node := ast.New(kind, pos, delimNode).WithFd(fd)

	if body, ok := p.stream.PopHeredocBody(); ok {
		bodyKind := ast.STRING_EXPANDABLE
		if body.Quoted {
			bodyKind = ast.STRING_LITERAL
		}
		node.Append(ast.New(bodyKind, pos).WithValue(body.Text))
	}
	return node, true
}

func isRedirOperator(k token.Kind) bool {
	switch k {
	case token.LESS, token.GREAT, token.DGREAT, token.DLESS, token.DLESS_DASH,
		token.DLESSLESS, token.LESSAMP, token.GREATAMP, token.LESSGREAT,
		token.CLOBBER:
		return true
	default:
		return false
	}
}

func redirKind(k token.Kind) (ast.Kind, bool) {
	switch k {
	case token.LESS:
		return ast.REDIR_IN, true
	case token.GREAT:
		return ast.REDIR_OUT, true
	case token.DGREAT:
		return ast.REDIR_APPEND, true
	case token.CLOBBER:
		return ast.REDIR_CLOBBER, true
	case token.LESSAMP:
		return ast.REDIR_DUP_IN, true
	case token.GREATAMP:
		return ast.REDIR_DUP_OUT, true
	case token.LESSGREAT:
		return ast.REDIR_RDWR, true
	case token.DLESS:
		return ast.REDIR_HEREDOC, true
	case token.DLESS_DASH:
		return ast.REDIR_HEREDOC_STRIP, true
	case token.DLESSLESS:
		return ast.REDIR_HERESTRING, true
	default:
		return 0, false
	}
}
