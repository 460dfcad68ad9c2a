package summarize

import "strings"

// sentenceEnders terminate a sentence for budget splitting. Covers both
// Japanese and Latin punctuation plus newlines.
var sentenceEnders = map[rune]bool{
	'。': true, '！': true, '？': true,
	'.': true, '!': true, '?': true,
	'\n': true,
}

// Split breaks text into ordered chunks of at most charBudget characters
// (counted in runes). Paragraph boundaries are preferred; a paragraph that
// alone exceeds the budget is split at sentence boundaries, and a single
// oversized sentence is cut hard. Concatenating the chunks reconstructs the
// input modulo whitespace trimming, and no chunk is empty.
func Split(text string, charBudget int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len([]rune(text)) <= charBudget {
		return []string{text}
	}

	var chunks []string
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n\n"))
			current = nil
			currentLen = 0
		}
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		paraLen := len([]rune(para))

		if paraLen > charBudget {
			flush()
			chunks = append(chunks, splitSentences(para, charBudget)...)
			continue
		}

		// +2 accounts for the paragraph separator when joining.
		if currentLen > 0 && currentLen+2+paraLen > charBudget {
			flush()
		}
		current = append(current, para)
		currentLen += paraLen
		if len(current) > 1 {
			currentLen += 2
		}
	}
	flush()

	return chunks
}

// splitSentences packs sentences of an oversized paragraph into chunks
// within the budget. A sentence that alone exceeds the budget is cut at
// the budget boundary.
func splitSentences(para string, charBudget int) []string {
	var chunks []string
	var current strings.Builder
	currentLen := 0

	emit := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
		currentLen = 0
	}

	for _, sentence := range sentences(para) {
		sentLen := len([]rune(sentence))

		if sentLen > charBudget {
			emit()
			runes := []rune(sentence)
			for len(runes) > 0 {
				n := charBudget
				if n > len(runes) {
					n = len(runes)
				}
				if s := strings.TrimSpace(string(runes[:n])); s != "" {
					chunks = append(chunks, s)
				}
				runes = runes[n:]
			}
			continue
		}

		if currentLen > 0 && currentLen+sentLen > charBudget {
			emit()
		}
		current.WriteString(sentence)
		currentLen += sentLen
	}
	emit()

	return chunks
}

// sentences cuts text after each terminator rune, keeping the terminator
// attached to its sentence. The trailing fragment without a terminator is
// returned as a final sentence.
func sentences(text string) []string {
	var out []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if sentenceEnders[r] {
			out = append(out, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}
