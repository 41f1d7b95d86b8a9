package chat

import (
	"bytes"
	"os"
	"strings"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
)

const chromaStyleName = "dracula"

// highlightCodeBlocks colors fenced code in a message body. Unterminated
// fences are left as typed.
func highlightCodeBlocks(body string) string {
	if body == "" || os.Getenv("NO_COLOR") != "" {
		return body
	}

	lines := strings.Split(body, "\n")
	var out strings.Builder
	for i := 0; i < len(lines); i++ {
		fence, lang, ok := parseFence(lines[i])
		end := -1
		if ok {
			end = findClosingFence(lines, i+1, fence)
		}
		if end == -1 {
			out.WriteString(lines[i])
			if i < len(lines)-1 {
				out.WriteByte('\n')
			}
			continue
		}

		out.WriteString(lines[i])
		out.WriteByte('\n')
		if end > i+1 {
			out.WriteString(highlightCode(strings.Join(lines[i+1:end], "\n"), lang))
			out.WriteByte('\n')
		}
		out.WriteString(lines[end])
		if end < len(lines)-1 {
			out.WriteByte('\n')
		}
		i = end
	}
	return out.String()
}

func parseFence(line string) (fence, lang string, ok bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if len(trimmed) < 3 || (trimmed[0] != '`' && trimmed[0] != '~') {
		return "", "", false
	}
	count := 0
	for count < len(trimmed) && trimmed[count] == trimmed[0] {
		count++
	}
	if count < 3 {
		return "", "", false
	}
	if fields := strings.Fields(trimmed[count:]); len(fields) > 0 {
		lang = fields[0]
	}
	return trimmed[:count], lang, true
}

func findClosingFence(lines []string, start int, fence string) int {
	for i := start; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if len(trimmed) >= len(fence) && strings.Trim(trimmed, fence[:1]) == "" {
			return i
		}
	}
	return -1
}

func highlightCode(code, lang string) string {
	if code == "" {
		return ""
	}
	iterator, err := resolveLexer(code, lang).Tokenise(nil, code)
	if err != nil {
		return code
	}
	style := styles.Get(chromaStyleName)
	if style == nil {
		style = styles.Fallback
	}
	var buf bytes.Buffer
	if err := formatters.TTY256.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func resolveLexer(code, lang string) chroma.Lexer {
	lang = strings.ToLower(strings.TrimSpace(lang))
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}
