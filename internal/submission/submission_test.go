package submission

import (
	"testing"
)

func TestParseEvaluation_CanonicalFields(t *testing.T) {
	data := []byte(`{
		"score": 7, "maxScore": 10,
		"comments": ["good structure", "weak conclusion"],
		"feedback": "solid overall"
	}`)

	ev, err := ParseEvaluation(data)
	if err != nil {
		t.Fatalf("ParseEvaluation failed: %v", err)
	}
	if ev.Score != 7 || ev.MaxScore != 10 {
		t.Errorf("score: got %d/%d, want 7/10", ev.Score, ev.MaxScore)
	}
	if len(ev.Comments) != 2 {
		t.Errorf("comments: got %d, want 2", len(ev.Comments))
	}
	if ev.Feedback != "solid overall" {
		t.Errorf("feedback: got %q", ev.Feedback)
	}
}

func TestParseEvaluation_AliasFields(t *testing.T) {
	data := []byte(`{
		"marks": 4, "outOf": 5,
		"commentList": ["late"],
		"overallFeedback": "resubmit",
		"analysis": [{"title": "Part A", "body": "ok"}]
	}`)

	ev, err := ParseEvaluation(data)
	if err != nil {
		t.Fatalf("ParseEvaluation failed: %v", err)
	}
	if ev.Score != 4 || ev.MaxScore != 5 {
		t.Errorf("score: got %d/%d, want 4/5", ev.Score, ev.MaxScore)
	}
	if len(ev.Comments) != 1 || ev.Comments[0] != "late" {
		t.Errorf("comments: got %v", ev.Comments)
	}
	if ev.Feedback != "resubmit" {
		t.Errorf("feedback: got %q", ev.Feedback)
	}
	if len(ev.Sections) != 1 || ev.Sections[0].Title != "Part A" {
		t.Errorf("sections: got %v", ev.Sections)
	}
}

func TestParseEvaluation_CanonicalWinsOverAlias(t *testing.T) {
	data := []byte(`{"score": 9, "marks": 2, "comments": ["a"], "commentList": ["b"]}`)

	ev, err := ParseEvaluation(data)
	if err != nil {
		t.Fatalf("ParseEvaluation failed: %v", err)
	}
	if ev.Score != 9 {
		t.Errorf("score: got %d, want canonical 9", ev.Score)
	}
	if ev.Comments[0] != "a" {
		t.Errorf("comments: got %v, want canonical list", ev.Comments)
	}
}

func TestParseEvaluation_MissingScore(t *testing.T) {
	if _, err := ParseEvaluation([]byte(`{"comments": ["x"]}`)); err == nil {
		t.Error("missing score must be an error, not a silent default")
	}
}

func TestParseEvaluation_DefaultMaxScore(t *testing.T) {
	ev, err := ParseEvaluation([]byte(`{"score": 3}`))
	if err != nil {
		t.Fatalf("ParseEvaluation failed: %v", err)
	}
	if ev.MaxScore != 10 {
		t.Errorf("MaxScore default: got %d, want 10", ev.MaxScore)
	}
	if ev.Comments == nil {
		t.Error("Comments must be non-nil after parsing")
	}
}

func TestEvaluationForAnnotation_PrefersLocalized(t *testing.T) {
	base := &Evaluation{Score: 5, Comments: []string{"original"}}
	loc := &Evaluation{Score: 5, Comments: []string{"translated"}}

	s := &Submission{Evaluation: base, Localized: loc}
	if got := s.EvaluationForAnnotation(); got != loc {
		t.Error("localized variant must be preferred when present")
	}

	s.Localized = nil
	if got := s.EvaluationForAnnotation(); got != base {
		t.Error("base variant must be used when no localized variant exists")
	}
}

func TestParse_ResolvesAliasesInBothVariants(t *testing.T) {
	data := []byte(`{
		"id": "sub-1",
		"version": 3,
		"pages": [
			{"index": 0, "sourceUrl": "u0", "originalWidth": 100, "originalHeight": 200},
			{"index": 1, "sourceUrl": "u1", "originalWidth": 100, "originalHeight": 200}
		],
		"evaluation": {"marks": 6, "outOf": 20, "commentList": ["a"]},
		"localizedEvaluation": {"score": 6, "comments": ["oversatt"]}
	}`)

	sub, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if sub.ID != "sub-1" || sub.Version != 3 || len(sub.Pages) != 2 {
		t.Errorf("submission header: got %+v", sub)
	}
	if sub.Evaluation.Score != 6 || sub.Evaluation.MaxScore != 20 {
		t.Errorf("aliased evaluation: got %+v", sub.Evaluation)
	}
	if got := sub.EvaluationForAnnotation().Comments[0]; got != "oversatt" {
		t.Errorf("localized comments: got %q", got)
	}
}

func TestParse_Rejections(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no id", `{"pages": [{"index": 0}]}`},
		{"no pages", `{"id": "s"}`},
		{"index gap", `{"id": "s", "pages": [{"index": 0}, {"index": 2}]}`},
		{"scoreless evaluation", `{"id": "s", "pages": [{"index": 0}], "evaluation": {"comments": []}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("want error")
			}
		})
	}
}
