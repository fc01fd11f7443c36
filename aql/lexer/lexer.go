// Package lexer tokenizes AQL query text.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
)

// Error reports a lexical error at a source position.
type Error struct {
	Line int
	Col  int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lex error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// Lexer tokenizes AQL input
type Lexer struct {
	input  []rune
	pos    int
	line   int
	col    int
	tokens []Token
}

// NewLexer creates a new lexer for the given input
func NewLexer(input string) *Lexer {
	return &Lexer{
		input: []rune(input),
		line:  1,
		col:   1,
	}
}

// Tokenize lexes input in one call.
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	if err := l.Lex(); err != nil {
		return nil, err
	}
	return l.Tokens(), nil
}

// Tokens returns the lexed tokens, ending with TokenEOF.
func (l *Lexer) Tokens() []Token {
	return l.tokens
}

// Lex tokenizes the entire input
func (l *Lexer) Lex() error {
	for {
		if err := l.skipWhitespaceAndComments(); err != nil {
			return err
		}
		if l.pos >= len(l.input) {
			break
		}

		line, col := l.line, l.col
		ch := l.peek()

		switch {
		case ch == '"' || ch == '\'':
			str, err := l.readString(ch)
			if err != nil {
				return err
			}
			l.emit(TokenString, str, line, col)

		case ch == '@':
			l.advance()
			name := l.readIdent()
			if name == "" {
				return &Error{Line: line, Col: col, Msg: "expected bind parameter name after '@'"}
			}
			l.emit(TokenBindParam, name, line, col)

		case unicode.IsDigit(ch):
			l.emit(TokenNumber, l.readNumber(), line, col)

		case ch == '-' && unicode.IsDigit(l.peekAt(1)):
			l.advance()
			l.emit(TokenNumber, "-"+l.readNumber(), line, col)

		case ch == '_' || unicode.IsLetter(ch):
			l.emit(TokenIdent, l.readIdent(), line, col)

		case ch == '`':
			l.advance()
			start := l.pos
			for l.pos < len(l.input) && l.peek() != '`' {
				l.advance()
			}
			if l.pos >= len(l.input) {
				return &Error{Line: line, Col: col, Msg: "unterminated quoted name"}
			}
			name := string(l.input[start:l.pos])
			l.advance()
			l.emit(TokenIdent, name, line, col)

		default:
			typ, width := l.operator()
			if width == 0 {
				return &Error{Line: line, Col: col, Msg: fmt.Sprintf("unexpected character '%c'", ch)}
			}
			for i := 0; i < width; i++ {
				l.advance()
			}
			l.emit(typ, "", line, col)
		}
	}

	l.emit(TokenEOF, "", l.line, l.col)
	return nil
}

func (l *Lexer) operator() (TokenType, int) {
	two := string([]rune{l.peek(), l.peekAt(1)})
	switch two {
	case "==":
		return TokenEq, 2
	case "!=":
		return TokenNe, 2
	case "<=":
		return TokenLe, 2
	case ">=":
		return TokenGe, 2
	case "&&":
		return TokenAnd, 2
	case "||":
		return TokenOr, 2
	}
	switch l.peek() {
	case '(':
		return TokenLeftParen, 1
	case ')':
		return TokenRightParen, 1
	case '[':
		return TokenLeftBracket, 1
	case ']':
		return TokenRightBracket, 1
	case '{':
		return TokenLeftBrace, 1
	case '}':
		return TokenRightBrace, 1
	case ',':
		return TokenComma, 1
	case '.':
		return TokenDot, 1
	case ':':
		return TokenColon, 1
	case '=':
		return TokenAssign, 1
	case '<':
		return TokenLt, 1
	case '>':
		return TokenGt, 1
	case '!':
		return TokenNot, 1
	}
	return TokenEOF, 0
}

func (l *Lexer) emit(typ TokenType, value string, line, col int) {
	l.tokens = append(l.tokens, Token{Type: typ, Value: value, Line: line, Col: col})
}

func (l *Lexer) peek() rune {
	return l.peekAt(0)
}

func (l *Lexer) peekAt(offset int) rune {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *Lexer) advance() {
	if l.pos >= len(l.input) {
		return
	}
	if l.input[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

func (l *Lexer) skipWhitespaceAndComments() error {
	for l.pos < len(l.input) {
		ch := l.peek()
		switch {
		case unicode.IsSpace(ch):
			l.advance()
		case ch == '/' && l.peekAt(1) == '/':
			for l.pos < len(l.input) && l.peek() != '\n' {
				l.advance()
			}
		case ch == '/' && l.peekAt(1) == '*':
			line, col := l.line, l.col
			l.advance()
			l.advance()
			for {
				if l.pos >= len(l.input) {
					return &Error{Line: line, Col: col, Msg: "unterminated comment"}
				}
				if l.peek() == '*' && l.peekAt(1) == '/' {
					l.advance()
					l.advance()
					break
				}
				l.advance()
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *Lexer) readIdent() string {
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.peek()
		if ch != '_' && !unicode.IsLetter(ch) && !unicode.IsDigit(ch) {
			break
		}
		l.advance()
	}
	return string(l.input[start:l.pos])
}

func (l *Lexer) readNumber() string {
	start := l.pos
	for unicode.IsDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && unicode.IsDigit(l.peekAt(1)) {
		l.advance()
		for unicode.IsDigit(l.peek()) {
			l.advance()
		}
	}
	if ch := l.peek(); ch == 'e' || ch == 'E' {
		next := l.peekAt(1)
		if unicode.IsDigit(next) || ((next == '+' || next == '-') && unicode.IsDigit(l.peekAt(2))) {
			l.advance()
			l.advance()
			for unicode.IsDigit(l.peek()) {
				l.advance()
			}
		}
	}
	return string(l.input[start:l.pos])
}

func (l *Lexer) readString(quote rune) (string, error) {
	line, col := l.line, l.col
	l.advance()

	var sb strings.Builder
	for {
		if l.pos >= len(l.input) {
			return "", &Error{Line: line, Col: col, Msg: "unterminated string"}
		}
		ch := l.peek()
		l.advance()
		if ch == quote {
			return sb.String(), nil
		}
		if ch != '\\' {
			sb.WriteRune(ch)
			continue
		}
		if l.pos >= len(l.input) {
			return "", &Error{Line: line, Col: col, Msg: "unterminated string"}
		}
		esc := l.peek()
		l.advance()
		switch esc {
		case 'n':
			sb.WriteRune('\n')
		case 't':
			sb.WriteRune('\t')
		case 'r':
			sb.WriteRune('\r')
		case '\\', '"', '\'', '/':
			sb.WriteRune(esc)
		default:
			return "", &Error{Line: l.line, Col: l.col - 2, Msg: fmt.Sprintf("invalid escape '\\%c'", esc)}
		}
	}
}
