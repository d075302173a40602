package quiz

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/BesuglovS/akaquiz/internal/domain"
)

// Quiz file markers. The source format is plain text: blocks separated
// by blank lines, each block carrying a question line, an options marker
// followed by one option per line, and a 1-based answer line.
const (
	questionPrefix = "Вопрос:"
	optionsPrefix  = "Варианты:"
	answerPrefix   = "Ответ:"
)

var imgTag = regexp.MustCompile(`\[img:([^\]]+)\]`)

// Parser turns raw quiz text into structured questions. MediaPath is
// prepended to bare image filenames; http/https references pass through
// untouched.
type Parser struct {
	MediaPath string
}

func NewParser(mediaPath string) *Parser {
	return &Parser{MediaPath: mediaPath}
}

// Parse never fails: malformed blocks are skipped, a missing or
// non-numeric answer line yields CorrectIndex -1 (no option is ever
// treated as correct for that question).
func (p *Parser) Parse(name, raw string) domain.Quiz {
	quiz := domain.Quiz{Name: name}

	for _, block := range splitBlocks(raw) {
		if q, ok := p.parseBlock(block); ok {
			quiz.Questions = append(quiz.Questions, q)
		}
	}
	return quiz
}

func (p *Parser) parseBlock(lines []string) (domain.Question, bool) {
	q := domain.Question{CorrectIndex: -1}
	inOptions := false

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, questionPrefix):
			inOptions = false
			q.Text, q.ImageRef = p.extractImage(strings.TrimSpace(strings.TrimPrefix(line, questionPrefix)))
		case strings.HasPrefix(line, optionsPrefix):
			inOptions = true
		case strings.HasPrefix(line, answerPrefix):
			inOptions = false
			q.CorrectIndex = parseAnswer(strings.TrimSpace(strings.TrimPrefix(line, answerPrefix)))
		case inOptions:
			text, img := p.extractImage(line)
			q.Options = append(q.Options, domain.Option{Text: text, ImageRef: img})
		case q.Text != "":
			// Continuation of the question text.
			q.Text += " " + line
		}
	}

	if q.Text == "" || len(q.Options) == 0 {
		return domain.Question{}, false
	}
	if q.CorrectIndex >= len(q.Options) {
		q.CorrectIndex = -1
	}
	return q, true
}

// extractImage pulls the first [img:...] tag out of the text and returns
// the cleaned text plus the resolved image reference.
func (p *Parser) extractImage(text string) (string, string) {
	match := imgTag.FindStringSubmatch(text)
	if match == nil {
		return strings.TrimSpace(text), ""
	}
	cleaned := strings.TrimSpace(imgTag.ReplaceAllString(text, ""))
	return cleaned, p.resolveRef(strings.TrimSpace(match[1]))
}

func (p *Parser) resolveRef(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return strings.TrimSuffix(p.MediaPath, "/") + "/" + ref
}

// parseAnswer converts the 1-based answer line to a 0-based index,
// -1 when absent or non-numeric.
func parseAnswer(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return -1
	}
	return n - 1
}

func splitBlocks(raw string) [][]string {
	var blocks [][]string
	var current []string

	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}
