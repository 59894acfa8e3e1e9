package extract

import (
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"
)

// Strategy names the extraction stage that produced a candidate.
type Strategy string

const (
	StrategyDirect      Strategy = "direct"
	StrategyTaggedFence Strategy = "tagged_fence"
	StrategyAnyFence    Strategy = "any_fence"
	StrategyBraceSpan   Strategy = "brace_span"
	StrategyNone        Strategy = "none"
)

// Result is the outcome of Extract.
type Result struct {
	Candidate Candidate
	Strategy  Strategy
}

var (
	// A block explicitly tagged json: ```json ... ```
	taggedFence = regexp.MustCompile("(?is)```json\\b(.*?)```")
	// Any block; an info string is only consumed when it ends the opening line.
	anyFence = regexp.MustCompile("(?s)```(?:[\\w+.-]*[ \\t]*\\r?\\n)?(.*?)```")
)

// ordered from most to least trustworthy; the first success wins.
var strategies = []struct {
	name Strategy
	find func(raw string) (string, bool)
}{
	{StrategyDirect, Direct},
	{StrategyTaggedFence, TaggedFence},
	{StrategyAnyFence, AnyFence},
	{StrategyBraceSpan, BraceSpan},
}

// Extract runs every strategy in order and returns the first parsed candidate.
// A failed parse falls through to the next strategy unchanged.
func Extract(raw string) Result {
	for _, s := range strategies {
		text, ok := s.find(raw)
		if !ok {
			continue
		}
		if c := parse(text); c.Present() {
			return Result{Candidate: c, Strategy: s.name}
		}
	}
	return Result{Candidate: None(), Strategy: StrategyNone}
}

// Direct offers the whole text.
func Direct(raw string) (string, bool) {
	return raw, strings.TrimSpace(raw) != ""
}

// TaggedFence offers the content of the first fenced block tagged json.
func TaggedFence(raw string) (string, bool) {
	return firstGroup(taggedFence, raw)
}

// AnyFence offers the content of the first fenced block, tagged or not.
func AnyFence(raw string) (string, bool) {
	return firstGroup(anyFence, raw)
}

// BraceSpan offers the substring from the first '{' to the last '}'. The scan
// is greedy, not balanced: text holding several independent objects yields
// the span covering all of them, which then usually fails to parse.
func BraceSpan(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func firstGroup(re *regexp.Regexp, raw string) (string, bool) {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func parse(text string) Candidate {
	text = strings.TrimSpace(text)
	if text == "" {
		return None()
	}
	// Numbers stay json.Number so an out-of-range value fails only its own
	// field instead of the whole document.
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		return None()
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return None()
	}
	return Some(tree)
}
