// Package highlighter renders code snippets carried in record payloads
// with syntax colors, for list variants that show source previews.
package highlighter

import (
	"strings"
	"sync"

	"charm.land/lipgloss/v2"
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlighter colorizes code snippets. It is safe for concurrent use;
// list renderers call it from the View path for every visible snippet,
// so lexers and per-token styles are memoized.
type Highlighter struct {
	style *chroma.Style

	mu         sync.RWMutex
	lexerCache map[string]chroma.Lexer
	styleCache map[chroma.TokenType]lipgloss.Style
}

// New creates a highlighter with the given chroma theme. An unknown
// theme falls back to chroma's default.
func New(theme string) *Highlighter {
	return &Highlighter{
		style:      styles.Get(theme),
		lexerCache: make(map[string]chroma.Lexer),
		styleCache: make(map[chroma.TokenType]lipgloss.Style),
	}
}

// Render colorizes a snippet for the given language. A snippet that
// fails to tokenize is returned as-is; unknown languages use chroma's
// fallback lexer.
func (h *Highlighter) Render(code, language string) string {
	iterator, err := h.lexer(language).Tokenise(nil, code)
	if err != nil {
		return code
	}

	var b strings.Builder
	b.Grow(len(code) * 2)
	for _, token := range iterator.Tokens() {
		// Newlines must stay unstyled, otherwise the style escape codes
		// bleed across line boundaries.
		value := token.Value
		for strings.Contains(value, "\n") {
			before, after, _ := strings.Cut(value, "\n")
			if before != "" {
				b.WriteString(h.tokenStyle(token.Type).Render(before))
			}
			b.WriteByte('\n')
			value = after
		}
		if value != "" {
			b.WriteString(h.tokenStyle(token.Type).Render(value))
		}
	}
	return b.String()
}

func (h *Highlighter) lexer(language string) chroma.Lexer {
	h.mu.RLock()
	lexer, ok := h.lexerCache[language]
	h.mu.RUnlock()
	if ok {
		return lexer
	}

	lexer = lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	h.mu.Lock()
	h.lexerCache[language] = lexer
	h.mu.Unlock()
	return lexer
}

// tokenStyle converts a chroma token type to a lipgloss style.
func (h *Highlighter) tokenStyle(tokenType chroma.TokenType) lipgloss.Style {
	h.mu.RLock()
	style, ok := h.styleCache[tokenType]
	h.mu.RUnlock()
	if ok {
		return style
	}

	entry := h.style.Get(tokenType)

	style = lipgloss.NewStyle()
	if entry.Colour.IsSet() {
		style = style.Foreground(lipgloss.Color(entry.Colour.String()))
	}
	if entry.Bold == chroma.Yes {
		style = style.Bold(true)
	}
	if entry.Italic == chroma.Yes {
		style = style.Italic(true)
	}
	if entry.Underline == chroma.Yes {
		style = style.Underline(true)
	}

	h.mu.Lock()
	h.styleCache[tokenType] = style
	h.mu.Unlock()
	return style
}
