// Package submission defines the data received from the grading backend: the
// ordered page descriptors of one submission and its evaluation record.
// All optional-field fallbacks live here, at the ingestion boundary, so the
// rest of the application sees one resolved shape.
package submission

import (
	"encoding/json"
	"fmt"
)

// Page describes one raster image belonging to a submission. Immutable
// once loaded.
type Page struct {
	Index          int    `json:"index"`
	SourceURL      string `json:"sourceUrl"`
	OriginalWidth  int    `json:"originalWidth"`
	OriginalHeight int    `json:"originalHeight"`
}

// Submission is one reviewable unit: an ordered list of pages plus the
// evaluation record, optionally duplicated in a translated variant.
type Submission struct {
	ID         string      `json:"id"`
	Version    int64       `json:"version"`
	Pages      []Page      `json:"pages"`
	Evaluation *Evaluation `json:"evaluation,omitempty"`
	Localized  *Evaluation `json:"localizedEvaluation,omitempty"`
}

// EvaluationForAnnotation returns the record auto-annotation should use:
// the localized variant when present, regardless of which variant is
// currently displayed for editing.
func (s *Submission) EvaluationForAnnotation() *Evaluation {
	if s.Localized != nil {
		return s.Localized
	}
	return s.Evaluation
}

// AnalysisSection is one structured section of the evaluation.
type AnalysisSection struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Evaluation is the resolved evaluation record.
type Evaluation struct {
	Score     int               `json:"score"`
	MaxScore  int               `json:"maxScore"`
	Relevancy string            `json:"relevancy,omitempty"`
	Sections  []AnalysisSection `json:"sections,omitempty"`
	Comments  []string          `json:"comments"`
	Feedback  string            `json:"feedback,omitempty"`
}

// rawSubmission defers evaluation decoding so both variants pass through
// the alias resolution in ParseEvaluation.
type rawSubmission struct {
	ID         string          `json:"id"`
	Version    int64           `json:"version"`
	Pages      []Page          `json:"pages"`
	Evaluation json.RawMessage `json:"evaluation"`
	Localized  json.RawMessage `json:"localizedEvaluation"`
}

// Parse decodes a submission record. Pages keep their wire order; index
// gaps are an error. Evaluation variants are optional, but when present
// they must resolve to a usable record.
func Parse(data []byte) (*Submission, error) {
	var raw rawSubmission
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode submission: %w", err)
	}
	if raw.ID == "" {
		return nil, fmt.Errorf("submission has no id")
	}
	if len(raw.Pages) == 0 {
		return nil, fmt.Errorf("submission %s has no pages", raw.ID)
	}
	for i, p := range raw.Pages {
		if p.Index != i {
			return nil, fmt.Errorf("submission %s: page %d carries index %d", raw.ID, i, p.Index)
		}
	}

	sub := &Submission{ID: raw.ID, Version: raw.Version, Pages: raw.Pages}
	var err error
	if len(raw.Evaluation) > 0 {
		if sub.Evaluation, err = ParseEvaluation(raw.Evaluation); err != nil {
			return nil, err
		}
	}
	if len(raw.Localized) > 0 {
		if sub.Localized, err = ParseEvaluation(raw.Localized); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

// rawEvaluation mirrors the loosely-named wire shapes the backend has
// shipped over time. Field aliases are resolved exactly once, here.
type rawEvaluation struct {
	Score    *int `json:"score"`
	Marks    *int `json:"marks"`
	MaxScore *int `json:"maxScore"`
	OutOf    *int `json:"outOf"`

	Relevancy string            `json:"relevancy"`
	Sections  []AnalysisSection `json:"sections"`
	Analysis  []AnalysisSection `json:"analysis"`

	Comments    []string `json:"comments"`
	CommentList []string `json:"commentList"`

	Feedback        string `json:"feedback"`
	OverallFeedback string `json:"overallFeedback"`
}

// ParseEvaluation decodes an evaluation record, resolving every known field
// alias. Missing score or comments is an error rather than a silent default:
// downstream auto-annotation has nothing sensible to place without them.
func ParseEvaluation(data []byte) (*Evaluation, error) {
	var raw rawEvaluation
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode evaluation: %w", err)
	}

	ev := &Evaluation{
		Relevancy: raw.Relevancy,
		Sections:  firstSections(raw.Sections, raw.Analysis),
		Comments:  firstStrings(raw.Comments, raw.CommentList),
		Feedback:  firstString(raw.Feedback, raw.OverallFeedback),
	}

	score := firstInt(raw.Score, raw.Marks)
	if score == nil {
		return nil, fmt.Errorf("evaluation has no score field")
	}
	ev.Score = *score

	if max := firstInt(raw.MaxScore, raw.OutOf); max != nil {
		ev.MaxScore = *max
	} else {
		ev.MaxScore = 10
	}

	if ev.Comments == nil {
		ev.Comments = []string{}
	}
	return ev, nil
}

func firstInt(vals ...*int) *int {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstString(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstStrings(vals ...[]string) []string {
	for _, v := range vals {
		if len(v) > 0 {
			return v
		}
	}
	return nil
}

func firstSections(vals ...[]AnalysisSection) []AnalysisSection {
	for _, v := range vals {
		if len(v) > 0 {
			return v
		}
	}
	return nil
}
