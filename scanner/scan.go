package scanner

import (
	"strings"
	"sync"

	"github.com/npillmayer/minic"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

// --- Tokens -----------------------------------------------------------------

// Kind is the category of a token.
type Kind int

// The token vocabulary of MiniC.
const (
	None Kind = iota
	EOF
	Ident
	IntConst
	FPConst
	CharConst
	StringConst
	Assign
	Plus
	Minus
	Star
	Slash
	Equal
	NotEqual
	Less
	Greater
	LessEq
	GreaterEq
	Not
	Amp
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Semicolon
	Comma
	LogicalAnd
	LogicalOr
	AddAssign
	SubAssign
	Increment
	Decrement
	Pipe
	Caret
	Tilde
	KwInt
	KwChar
	KwFloat
	KwDouble
	KwVoid
	KwIf
	KwElse
	KwWhile
	KwDo
	KwFor
	KwBreak
	KwReturn
	KwDefine
)

var kindNames = []string{
	"none", "EOF", "identifier", "integer constant", "fp constant",
	"character constant", "string constant",
	"=", "+", "-", "*", "/", "==", "!=", "<", ">", "<=", ">=", "!", "&",
	"(", ")", "{", "}", "[", "]", ";", ",", "&&", "||", "+=", "-=",
	"++", "--", "|", "^", "~",
	"int", "char", "float", "double", "void",
	"if", "else", "while", "do", "for", "break", "return", "#define",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "?"
	}
	return kindNames[k]
}

// Token is one lexical token. The lexeme is a slice of the source text.
type Token struct {
	Kind   Kind
	Lexeme string
	Line   int
	Span   minic.Span
}

// State is a resume-position token: an opaque capture of the scanner's
// input position, to be restored later. The stack-frame manager saves
// one per call.
type State struct {
	TC   int
	Line int
}

// --- DFA setup --------------------------------------------------------------

// keywords must be matched before the identifier pattern; for equal
// match lengths, the pattern added first wins.
var keywords = []struct {
	lit  string
	kind Kind
}{
	{"int", KwInt}, {"char", KwChar}, {"float", KwFloat},
	{"double", KwDouble}, {"void", KwVoid},
	{"if", KwIf}, {"else", KwElse}, {"while", KwWhile}, {"do", KwDo},
	{"for", KwFor}, {"break", KwBreak}, {"return", KwReturn},
	{"#define", KwDefine},
}

// operators and punctuation, two-character lexemes first
var operators = []struct {
	lit  string
	kind Kind
}{
	{"==", Equal}, {"!=", NotEqual}, {"<=", LessEq}, {">=", GreaterEq},
	{"&&", LogicalAnd}, {"||", LogicalOr},
	{"+=", AddAssign}, {"-=", SubAssign}, {"++", Increment}, {"--", Decrement},
	{"=", Assign}, {"+", Plus}, {"-", Minus}, {"*", Star}, {"/", Slash},
	{"<", Less}, {">", Greater}, {"!", Not}, {"&", Amp},
	{"|", Pipe}, {"^", Caret}, {"~", Tilde},
	{"(", LParen}, {")", RParen}, {"{", LBrace}, {"}", RBrace},
	{"[", LBracket}, {"]", RBracket}, {";", Semicolon}, {",", Comma},
}

var initOnce sync.Once // monitors one-time DFA compilation
var lexer *lexmachine.Lexer

func initLexer() {
	initOnce.Do(func() {
		lexer = lexmachine.NewLexer()
		lexer.Add([]byte(`//[^\n]*`), skip)
		lexer.Add([]byte(`( |\t|\n|\r)+`), skip)
		for _, kw := range keywords {
			lexer.Add([]byte(kw.lit), makeToken(kw.kind))
		}
		for _, op := range operators {
			r := "\\" + strings.Join(strings.Split(op.lit, ""), "\\")
			lexer.Add([]byte(r), makeToken(op.kind))
		}
		lexer.Add([]byte(`([a-z]|[A-Z]|_)([a-z]|[A-Z]|[0-9]|_)*`), makeToken(Ident))
		lexer.Add([]byte(`[0-9]+\.[0-9]+`), makeToken(FPConst))
		lexer.Add([]byte(`[0-9]+`), makeToken(IntConst))
		lexer.Add([]byte(`'(\\.|[^'\\])'`), makeToken(CharConst))
		lexer.Add([]byte(`"[^"]*"`), makeToken(StringConst))
		if err := lexer.Compile(); err != nil {
			panic("error compiling DFA: " + err.Error())
		}
	})
}

// skip is an action which ignores the scanned match.
func skip(*lexmachine.Scanner, *machines.Match) (interface{}, error) {
	return nil, nil
}

// makeToken is an action which wraps a scanned match into a token.
func makeToken(kind Kind) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(int(kind), string(m.Bytes), m), nil
	}
}

// --- Scanner ----------------------------------------------------------------

// Scanner tokenizes one piece of MiniC source text.
type Scanner struct {
	scanner *lexmachine.Scanner
	file    string
	line    int         // line of the most recent token
	Error   func(error) // error handler
}

// Default error reporting function for scanners
func logError(e error) {
	tracer().Errorf("scanner error: " + e.Error())
}

// New creates a scanner for the given input. The file name is used for
// positions in diagnostics only.
func New(file string, input string) (*Scanner, error) {
	initLexer()
	s, err := lexer.Scanner([]byte(input))
	if err != nil {
		return nil, err
	}
	return &Scanner{scanner: s, file: file, line: 1, Error: logError}, nil
}

// SetErrorHandler sets an error handler for the scanner.
func (s *Scanner) SetErrorHandler(h func(error)) {
	if h == nil {
		s.Error = logError
		return
	}
	s.Error = h
}

// Pos returns the position of the most recent token, for diagnostics.
func (s *Scanner) Pos() minic.Position {
	return minic.Position{File: s.file, Line: s.line}
}

// File returns the name the scanner was created with.
func (s *Scanner) File() string {
	return s.file
}

// State captures the current input position.
func (s *Scanner) State() State {
	return State{TC: s.scanner.TC, Line: s.line}
}

// SetState re-positions the scanner to a previously captured state.
func (s *Scanner) SetState(st State) {
	s.scanner.TC = st.TC
	s.line = st.Line
}

// Next scans the next token. At the end of input it returns EOF tokens
// forever.
func (s *Scanner) Next() Token {
	tok, err, eof := s.scanner.Next()
	for err != nil {
		s.Error(err)
		if ui, is := err.(*machines.UnconsumedInput); is {
			s.scanner.TC = ui.FailTC
		}
		tok, err, eof = s.scanner.Next()
	}
	if eof {
		return Token{Kind: EOF, Line: s.line}
	}
	token := tok.(*lexmachine.Token)
	s.line = token.StartLine
	tracer().Debugf("token %s '%s'", Kind(token.Type), string(token.Lexeme))
	return Token{
		Kind:   Kind(token.Type),
		Lexeme: string(token.Lexeme),
		Line:   token.StartLine,
		Span:   minic.Span{uint64(token.TC), uint64(token.TC + len(token.Lexeme))},
	}
}

// Peek scans the next token without consuming it.
func (s *Scanner) Peek() Token {
	st := s.State()
	tok := s.Next()
	s.SetState(st)
	return tok
}
