package stitching

import (
	"strings"
	"unicode"

	"github.com/kirillkom/profile-export/internal/core/domain"
)

// Signal is one reason a header row was judged to be data.
type Signal string

const (
	SignalMostlyEmpty Signal = "mostly_empty"
	SignalYear        Signal = "year"
	SignalCompany     Signal = "company"
	SignalJobDesc     Signal = "job_desc"
)

// ContinuationDetector decides whether an unclassified fragment continues the
// table of the preceding fragment.
type ContinuationDetector struct {
	vocab domain.Vocabulary
}

func NewContinuationDetector(vocab domain.Vocabulary) *ContinuationDetector {
	return &ContinuationDetector{vocab: vocab}
}

// Signals returns every data-like signal found in the row, in detection order.
func (d *ContinuationDetector) Signals(row []string) []Signal {
	var signals []Signal
	if len(row) > 0 && d.emptyRatio(row) >= d.vocab.Thresholds.MostlyEmptyRatio {
		signals = append(signals, SignalMostlyEmpty)
	}
	for _, cell := range row {
		if d.vocab.Blank(cell) {
			continue
		}
		text := trim(cell)
		if d.isYear(text) {
			signals = append(signals, SignalYear)
		}
		if containsAny(text, d.vocab.OrgTokens) {
			signals = append(signals, SignalCompany)
		}
		if containsAny(strings.ToLower(text), lowerAll(d.vocab.LaborTokens)) {
			signals = append(signals, SignalJobDesc)
		}
	}
	return signals
}

// LooksLikeData reports whether at least one data-like signal is present.
func (d *ContinuationDetector) LooksLikeData(row []string) bool {
	return len(d.Signals(row)) > 0
}

// Detect returns the inherited category when the row is confirmed as a
// continuation of previous. Only work experience and education continue.
func (d *ContinuationDetector) Detect(row []string, previous domain.Category) (domain.Category, bool) {
	if !d.LooksLikeData(row) {
		return domain.CategoryUnknown, false
	}

	joined := strings.ToLower(strings.Join(row, " "))
	switch previous {
	case domain.CategoryWorkExperience:
		if d.emptyRatio(row) >= d.vocab.Thresholds.WorkEmptyRatio || containsAny(joined, lowerAll(d.vocab.WorkTokens)) {
			return domain.CategoryWorkExperience, true
		}
	case domain.CategoryEducation:
		if containsAny(joined, lowerAll(d.vocab.EducationTokens)) {
			return domain.CategoryEducation, true
		}
	}
	return domain.CategoryUnknown, false
}

func (d *ContinuationDetector) emptyRatio(row []string) float64 {
	if len(row) == 0 {
		return 0
	}
	empty := 0
	for _, cell := range row {
		if d.vocab.Blank(cell) {
			empty++
		}
	}
	return float64(empty) / float64(len(row))
}

// isYear matches bare numeric tokens such as "2007.0" or "2015-".
func (d *ContinuationDetector) isYear(cell string) bool {
	stripped := strings.NewReplacer(".", "", "-", "").Replace(cell)
	if len([]rune(stripped)) < d.vocab.Thresholds.MinYearDigits {
		return false
	}
	for _, r := range stripped {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if t != "" && strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func lowerAll(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = strings.ToLower(t)
	}
	return out
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
