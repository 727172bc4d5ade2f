package extract

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/speedata/hyphenation"
)

// PreprocessTranscript strips transcription markup from an utterance:
// uncertainty brackets, bracketed noise annotations, spelled-out
// abbreviation dots and the $ and # markers. Hyphenated words are split and
// whitespace is collapsed.
func PreprocessTranscript(transcript string) string {
	words := strings.ToLower(transcript)
	words = strings.ReplaceAll(words, "((", "")
	words = strings.ReplaceAll(words, "))", "")
	for {
		lb := strings.Index(words, "[")
		if lb < 0 {
			break
		}
		rb := strings.Index(words, "]")
		if rb < 0 {
			words = words[:lb]
			break
		}
		if rb < lb {
			words = words[:rb] + words[rb+1:]
			continue
		}
		words = words[:lb] + words[rb+1:]
	}
	words = strings.ReplaceAll(words, "._", " ")
	words = strings.ReplaceAll(words, ".", " ")
	words = strings.ReplaceAll(words, "$", "")
	words = strings.ReplaceAll(words, "#", "")
	words = strings.ReplaceAll(words, "-", " ")
	return strings.Join(strings.Fields(words), " ")
}

// Dictionary maps lowercase words to syllable counts.
type Dictionary map[string]int

// LoadCMUDict reads a pronouncing dictionary in CMU format ("WORD  P1 P2 ..."
// with stress digits on vowels). Only the first pronunciation of a word is
// kept; alternatives are marked "WORD(2)". Lines starting with ;;; are
// comments.
func LoadCMUDict(r io.Reader) (Dictionary, error) {
	d := Dictionary{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, ";;;") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		word := strings.ToLower(fields[0])
		if strings.HasSuffix(word, ")") {
			continue
		}
		if _, ok := d[word]; ok {
			continue
		}
		n := 0
		for _, p := range fields[1:] {
			if unicode.IsDigit(rune(p[len(p)-1])) {
				n++
			}
		}
		d[word] = n
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read pronouncing dictionary: %w", err)
	}
	return d, nil
}

// Syllabifier counts syllables from a pronouncing dictionary, falling back
// to Liang hyphenation patterns for words the dictionary lacks.
type Syllabifier struct {
	Dict Dictionary
	Hyph *hyphenation.Lang
}

// NewSyllabifier reads TeX hyphenation patterns (e.g. hyph-en-us.pat.txt)
// from patterns. dict may be nil.
func NewSyllabifier(dict Dictionary, patterns io.Reader) (*Syllabifier, error) {
	h, err := hyphenation.New(patterns)
	if err != nil {
		return nil, fmt.Errorf("read hyphenation patterns: %w", err)
	}
	return &Syllabifier{Dict: dict, Hyph: h}, nil
}

// LoadSyllabifier opens the pronouncing dictionary at dictPath (skipped when
// empty) and the hyphenation patterns at patternsPath.
func LoadSyllabifier(dictPath, patternsPath string) (*Syllabifier, error) {
	var dict Dictionary
	if dictPath != "" {
		f, err := os.Open(dictPath)
		if err != nil {
			return nil, fmt.Errorf("pronouncing dictionary: %w", err)
		}
		dict, err = LoadCMUDict(f)
		f.Close()
		if err != nil {
			return nil, err
		}
	}
	f, err := os.Open(patternsPath)
	if err != nil {
		return nil, fmt.Errorf("hyphenation patterns: %w", err)
	}
	defer f.Close()
	return NewSyllabifier(dict, f)
}

// Count counts the syllables of space-separated words. A trailing '-' marks
// a cut-off word and is ignored, as is a trailing 's when only the stem is
// in the dictionary. Unknown words count one syllable more than they have
// hyphenation points.
func (s *Syllabifier) Count(words string) int {
	total := 0
	for _, w := range strings.Split(words, " ") {
		w = strings.ToLower(strings.TrimSpace(w))
		w = strings.TrimSuffix(w, "-")
		if _, ok := s.Dict[w]; !ok && len(w) > 1 && strings.HasSuffix(w, "'s") {
			w = w[:len(w)-2]
		}
		if w == "" {
			continue
		}
		if n, ok := s.Dict[w]; ok {
			total += n
			continue
		}
		total += len(s.Hyph.Hyphenate(w)) + 1
	}
	return total
}
