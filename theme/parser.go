package theme

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	themeLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		// 6-digit form must come first: regexp alternation is
		// leftmost-first, so the short form would truncate #223344
		// to #223 and leave a stray number token.
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})`},
		{Name: "Number", Pattern: `(?:\d+\.\d+|\d+)(?:pt|mm|x|%)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Colon", Pattern: `:`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	fileParser = participle.MustBuild[File](
		participle.Lexer(themeLexer),
		participle.Elide("Whitespace", "LineComment"),
	)
)

// File is the root AST node for a theme file.
type File struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Name    string         `parser:"Newline* 'theme' @Ident"`
	Version string         `parser:"@Ident"`
	Decls   []*Decl        `parser:"LBrace Newline* ( @@ Newline* )* RBrace Newline*"`
}

// Decl is a top-level declaration inside a theme block.
type Decl struct {
	Font     *FontDecl     `parser:"  @@"`
	Color    *ColorDecl    `parser:"| @@"`
	Style    *StyleDecl    `parser:"| @@"`
	Rules    *RulesDecl    `parser:"| @@"`
	Defaults *DefaultsDecl `parser:"| @@"`
}

// FontDecl declares a font face, eg: font Body { src: "..." style: "Bold" }.
type FontDecl struct {
	Name  string `parser:"'font' @Ident"`
	Block *Block `parser:"@@"`
}

// ColorDecl declares a named color, eg: color ink #223344.
type ColorDecl struct {
	Name  string `parser:"'color' @Ident"`
	Value string `parser:"@Color"`
}

// StyleDecl declares a named text style, optionally extending another.
type StyleDecl struct {
	Name    string `parser:"'style' @Ident"`
	Extends string `parser:"( 'extends' @Ident )?"`
	Block   *Block `parser:"@@"`
}

// RulesDecl configures the ruled-line look, eg: rules { theme: rough }.
type RulesDecl struct {
	Block *Block `parser:"'rules' @@"`
}

// DefaultsDecl sets theme-wide defaults, eg: defaults { line-height: 1.3x }.
type DefaultsDecl struct {
	Block *Block `parser:"'defaults' @@"`
}

// Block is a brace-delimited list of key: value assignments.
type Block struct {
	Entries []*Entry `parser:"LBrace Newline* ( @@ Newline* )* RBrace"`
}

// Entry is a single key: value pair.
type Entry struct {
	Key   string `parser:"@Ident"`
	Value *Value `parser:"Colon @@"`
}

// Value is a string, number (with optional unit suffix), color or bare ident.
type Value struct {
	String *Quoted `parser:"  @String"`
	Number *string `parser:"| @Number"`
	Color  *string `parser:"| @Color"`
	Ident  *string `parser:"| @Ident"`
}

// Text returns the raw textual form of a value.
func (v *Value) Text() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Color != nil:
		return *v.Color
	case v.Ident != nil:
		return *v.Ident
	default:
		return ""
	}
}

// Quoted unquotes Go-style strings on capture.
type Quoted string

// Capture implements participle.Capture.
func (q *Quoted) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*q = Quoted(val)
	return nil
}

// ParseFile parses a theme file from an io.Reader.
func ParseFile(r io.Reader) (*File, error) {
	return fileParser.Parse("", r)
}

// ParseString parses theme content from a string.
func ParseString(input string) (*File, error) {
	return fileParser.ParseString("", input)
}
