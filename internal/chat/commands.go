package chat

import (
	"fmt"
	"strconv"
	"strings"
)

type slashCommand struct {
	name string
	// rest is everything after the name, trimmed.
	rest string
}

func parseSlashCommand(input string) (slashCommand, bool) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "/") || strings.HasPrefix(trimmed, "//") {
		return slashCommand{}, false
	}
	name, rest, _ := strings.Cut(trimmed[1:], " ")
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return slashCommand{}, false
	}
	return slashCommand{name: name, rest: strings.TrimSpace(rest)}, true
}

// messageArg splits "<n> [text]" into a 1-based message number and the
// remaining text.
func messageArg(rest string) (int, string, error) {
	head, tail, _ := strings.Cut(strings.TrimSpace(rest), " ")
	if head == "" {
		return 0, "", fmt.Errorf("missing message number")
	}
	n, err := strconv.Atoi(strings.TrimPrefix(head, "#"))
	if err != nil || n < 1 {
		return 0, "", fmt.Errorf("invalid message number %q", head)
	}
	return n, strings.TrimSpace(tail), nil
}

// occurrenceSuffix reads a trailing "@k" occurrence selector from text.
func occurrenceSuffix(text string) (string, int) {
	i := strings.LastIndex(text, " @")
	if i < 0 {
		return text, 1
	}
	k, err := strconv.Atoi(text[i+2:])
	if err != nil || k < 1 {
		return text, 1
	}
	return strings.TrimSpace(text[:i]), k
}

const helpText = `Commands:
  /new [message]          start a new thread
  /branch <n> [text [@k]] branch from message n, optionally from a selection
  /quote <n> [text]       quote message n (or a selection of it) into the input
  /fork <n>               fork the thread at message n
  /rename <title>         rename the thread on screen
  /delete                 delete the main thread and its branches
  /rmbranch <n>           delete branch n from the indicator list
  /copy [n]               copy message n (default: last reply)
  /parent, /root          go to the parent or root thread
  /back, /close           leave one overlay or all of them
  /refresh                reload the thread on screen
Keys: enter send · esc back · tab sidebar · ctrl+n new thread · ctrl+c quit`
