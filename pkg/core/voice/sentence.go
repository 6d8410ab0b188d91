// Package voice holds the text-side helpers shared by the speech pipeline:
// sentence segmentation for pipelined synthesis.
package voice

import "strings"

// SplitSentences breaks reply text into complete sentences so synthesis can
// start on the first sentence while later ones are still being voiced.
// Boundaries are '.', '!' or '?' followed by whitespace (or end of text),
// with terminal punctuation preserved. Periods inside decimals ("3.14") and
// common abbreviations do not split.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	last := 0
	for i := 0; i < len(text); i++ {
		if !sentenceEndAt(text, i) {
			continue
		}
		s := strings.TrimSpace(text[last : i+1])
		if s != "" {
			sentences = append(sentences, s)
		}
		last = i + 1
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

func sentenceEndAt(s string, i int) bool {
	c := s[i]
	if c != '.' && c != '!' && c != '?' {
		return false
	}
	if i+1 < len(s) {
		switch s[i+1] {
		case ' ', '\n', '\r', '\t':
		default:
			return false
		}
	}
	if c == '.' && looksAbbreviated(s, i) {
		return false
	}
	return true
}

// Abbreviations a tutor is likely to speak or a model likely to emit.
var abbreviations = []string{
	"Dr.", "Mr.", "Mrs.", "Ms.", "Prof.",
	"vs.", "etc.", "i.e.", "e.g.", "approx.",
	"Fig.", "No.", "Eq.", "Ch.", "Sec.",
	"a.m.", "p.m.",
}

func looksAbbreviated(s string, i int) bool {
	start := i
	for start > 0 && s[start-1] != ' ' && s[start-1] != '\n' && s[start-1] != '\t' {
		start--
	}
	word := s[start : i+1]
	for _, abbr := range abbreviations {
		if strings.EqualFold(word, abbr) {
			return true
		}
	}
	// Single capital letter before the period reads as an initial ("W. Rudin").
	if i >= 1 && s[i-1] >= 'A' && s[i-1] <= 'Z' {
		if i < 2 || s[i-2] == ' ' || s[i-2] == '\n' {
			return true
		}
	}
	return false
}
