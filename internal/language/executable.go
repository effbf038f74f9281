package language

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/lexer"
)

type chunkKind int

const (
	chunkExecutable chunkKind = iota
	chunkTypeSystem
	chunkUnknown
)

var definitionKeywords = map[string]chunkKind{
	"query":        chunkExecutable,
	"mutation":     chunkExecutable,
	"subscription": chunkExecutable,
	"fragment":     chunkExecutable,
	"schema":       chunkTypeSystem,
	"scalar":       chunkTypeSystem,
	"type":         chunkTypeSystem,
	"interface":    chunkTypeSystem,
	"union":        chunkTypeSystem,
	"enum":         chunkTypeSystem,
	"input":        chunkTypeSystem,
	"directive":    chunkTypeSystem,
	"extend":       chunkTypeSystem,
}

type chunk struct {
	kind  chunkKind
	start int // rune offset of the first token
}

// ExecutableSource blanks every top-level type-system definition of source,
// keeping line breaks so positions reported for the remaining operations and
// fragments are unchanged. The second result reports whether anything was
// removed. Sources the lexer rejects are returned unchanged.
func ExecutableSource(source string) (string, bool) {
	chunks, ok := splitDefinitions(source)
	if !ok {
		return source, false
	}

	runes := []rune(source)
	removed := false
	for i, c := range chunks {
		if c.kind != chunkTypeSystem {
			continue
		}
		end := len(runes)
		if i+1 < len(chunks) {
			end = chunks[i+1].start
		}
		for j := c.start; j < end && j < len(runes); j++ {
			if runes[j] != '\n' && runes[j] != '\r' {
				runes[j] = ' '
			}
		}
		removed = true
	}
	if !removed {
		return source, false
	}
	return string(runes), true
}

// splitDefinitions finds where each top-level definition begins. An
// executable definition ends with its closing brace; a type-system
// definition may omit its body, so it also ends at the next keyword.
func splitDefinitions(source string) ([]chunk, bool) {
	lex := lexer.New(&ast.Source{Input: source})
	var (
		chunks []chunk
		depth  int
		closed = true
	)
	for {
		tok, err := lex.ReadToken()
		if err != nil {
			return nil, false
		}
		switch tok.Kind {
		case lexer.EOF:
			return chunks, true
		case lexer.Comment:
			continue
		}

		if depth == 0 {
			if kind, starts := chunkStart(tok, closed, chunks); starts {
				chunks = append(chunks, chunk{kind: kind, start: tok.Pos.Start})
				closed = false
			}
		}

		switch tok.Kind {
		case lexer.BraceL, lexer.ParenL, lexer.BracketL:
			depth++
		case lexer.BraceR, lexer.ParenR, lexer.BracketR:
			if depth > 0 {
				depth--
			}
			if depth == 0 && tok.Kind == lexer.BraceR {
				closed = true
			}
		}
	}
}

func chunkStart(tok lexer.Token, closed bool, chunks []chunk) (chunkKind, bool) {
	current := chunkUnknown
	if len(chunks) > 0 {
		current = chunks[len(chunks)-1].kind
	}
	switch tok.Kind {
	case lexer.Name:
		kind, keyword := definitionKeywords[tok.Value]
		switch {
		case keyword && (closed || current != chunkExecutable):
			return kind, true
		case closed:
			return chunkUnknown, true
		}
	case lexer.BraceL:
		if closed {
			return chunkExecutable, true
		}
	case lexer.String, lexer.BlockString:
		if closed || current != chunkExecutable {
			return chunkTypeSystem, true
		}
	default:
		if closed {
			return chunkUnknown, true
		}
	}
	return 0, false
}
