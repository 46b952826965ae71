package interpreter

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Command is one tokenized input line.
type Command struct {
	Name string
	// Args holds quoted arguments first, then bare positionals.
	Args []string
	// Short accumulates the characters of every -xyz token.
	Short string
	// Long holds --name=value options; bare --name tokens are dropped.
	Long      map[string]string
	longOrder []string
	// Words is the line split on whitespace outside quotes, quotes removed.
	Words []string
	Line  string
}

// Parse tokenizes line. Quoted substrings are pulled out as literal
// arguments before the remainder is split on whitespace, wherever in the
// line the quotes appear. An unmatched quote is kept as an ordinary
// character.
func Parse(line string) Command {
	line = strings.TrimSpace(line)
	rest, quoted := extractQuoted(line)

	cmd := Command{
		Args:  quoted,
		Long:  map[string]string{},
		Words: splitWords(line),
		Line:  line,
	}

	parts := strings.Fields(rest)
	if len(parts) == 0 {
		return cmd
	}
	cmd.Name = parts[0]

	for _, part := range parts[1:] {
		switch {
		case strings.HasPrefix(part, "--"):
			name, value, ok := strings.Cut(part[2:], "=")
			if !ok {
				continue
			}
			if _, seen := cmd.Long[name]; !seen {
				cmd.longOrder = append(cmd.longOrder, name)
			}
			cmd.Long[name] = value
		case strings.HasPrefix(part, "-"):
			cmd.Short += part[1:]
		default:
			cmd.Args = append(cmd.Args, part)
		}
	}

	return cmd
}

func extractQuoted(line string) (string, []string) {
	var rest strings.Builder
	var args []string

	for i := 0; i < len(line); i++ {
		c := line[i]
		if c != '"' && c != '\'' {
			rest.WriteByte(c)
			continue
		}
		end := strings.IndexByte(line[i+1:], c)
		if end == -1 {
			rest.WriteByte(c)
			continue
		}
		args = append(args, line[i+1:i+1+end])
		i += end + 1
	}

	return strings.TrimSpace(rest.String()), args
}

// wordsAfterName drops every word up to and including the command name, which
// need not be the first word when quoted text precedes it.
func (c Command) wordsAfterName() []string {
	idx := slices.Index(c.Words, c.Name)
	if idx == -1 {
		idx = 0
	}
	if idx >= len(c.Words) {
		return nil
	}
	return c.Words[idx+1:]
}

func splitWords(line string) []string {
	var words []string
	var word strings.Builder
	inWord := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"' || c == '\'':
			end := strings.IndexByte(line[i+1:], c)
			if end == -1 {
				word.WriteByte(c)
			} else {
				word.WriteString(line[i+1 : i+1+end])
				i += end + 1
			}
			inWord = true
		case c == ' ' || c == '\t':
			if inWord {
				words = append(words, word.String())
				word.Reset()
				inWord = false
			}
		default:
			word.WriteByte(c)
			inWord = true
		}
	}
	if inWord {
		words = append(words, word.String())
	}

	return words
}
