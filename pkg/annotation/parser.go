package annotation

import (
	"regexp"
	"strings"

	"github.com/fatih/color"
)

var (
	markerPattern = regexp.MustCompile(`(?i)\bTODO\b(?:\(([^)]*)\))?\s*[!:]?(.*)$`)
	wordPattern   = regexp.MustCompile(`(?i)\bTODO\b`)
)

// commentLeaders are the comment openers recognized by HasCommentPrefix.
var commentLeaders = []string{"//", "#", "/*", "*", "--", ";", "<!--", "%", "'", `"""`}

// trailingLeaders may also end the code that precedes a marker. Single-character
// leaders such as '*' are operators or quotes there.
var trailingLeaders = []string{"//", "#", "/*", "--", "<!--"}

// wrapChars are the quote and paren characters stripped from messages.
const wrapChars = `"'()`

// Match is the structured form of an annotated line.
type Match struct {
	Tags    []string
	Message string
	Display string
	// Column is the byte offset of the marker within the untrimmed line.
	Column int
}

// ParserConfig configures a Parser.
type ParserConfig struct {
	// CommentsOnly rejects markers that are not preceded by a comment leader.
	CommentsOnly bool
	// Emphasis wraps each marker occurrence in Display. Nil leaves it plain.
	Emphasis func(string) string
}

// Parser turns raw lines into Matches.
type Parser struct {
	commentsOnly bool
	emphasis     func(string) string
}

// NewParser creates a Parser.
func NewParser(cfg ParserConfig) *Parser {
	return &Parser{
		commentsOnly: cfg.CommentsOnly,
		emphasis:     cfg.Emphasis,
	}
}

var plain = NewParser(ParserConfig{})

// Parse parses line with the default parser: no comment check, no emphasis.
func Parse(line string) (Match, bool) {
	return plain.Parse(line)
}

// MayContain is a cheap prefilter run before the regular expression.
func MayContain(line string) bool {
	return strings.Contains(strings.ToLower(line), "todo")
}

// Parse reports whether line carries an annotation and extracts it.
// An empty Message is returned as a match; callers discard it.
func (p *Parser) Parse(line string) (Match, bool) {
	if !MayContain(line) {
		return Match{}, false
	}

	loc := markerPattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return Match{}, false
	}

	if p.commentsOnly && !HasCommentPrefix(line[:loc[0]]) {
		return Match{}, false
	}

	var tags []string
	if loc[2] >= 0 {
		tags = splitTags(line[loc[2]:loc[3]])
	}

	return Match{
		Tags:    tags,
		Message: cleanMessage(line[loc[4]:loc[5]]),
		Display: Highlight(strings.TrimSpace(line), p.emphasis),
		Column:  loc[0],
	}, true
}

func splitTags(list string) []string {
	var tags []string

	for raw := range strings.SplitSeq(list, ",") {
		if tag := strings.TrimSpace(raw); tag != "" {
			tags = append(tags, tag)
		}
	}

	return tags
}

func cleanMessage(raw string) string {
	msg := strings.TrimSpace(raw)

	if len(msg) >= 2 {
		first, last := msg[0], msg[len(msg)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '(' && last == ')') {
			msg = strings.TrimSpace(msg[1 : len(msg)-1])
		}
	}

	if strings.Trim(msg, wrapChars) == "" {
		return ""
	}

	return msg
}

// Highlight wraps every whole-word marker in line with emphasis.
func Highlight(line string, emphasis func(string) string) string {
	if emphasis == nil {
		return line
	}

	return wordPattern.ReplaceAllStringFunc(line, emphasis)
}

// Red renders s in bold red unless colour output is disabled.
func Red(s string) string {
	return color.New(color.FgRed, color.Bold).Sprint(s)
}

// HasCommentPrefix reports whether the text preceding a marker looks like a comment.
func HasCommentPrefix(before string) bool {
	trimmed := strings.TrimSpace(before)
	if trimmed == "" {
		return false
	}

	for _, leader := range commentLeaders {
		if strings.HasPrefix(trimmed, leader) {
			return true
		}
	}

	for _, leader := range trailingLeaders {
		if strings.HasSuffix(trimmed, leader) {
			return true
		}
	}

	return false
}
