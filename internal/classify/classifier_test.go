package classify

import (
	"reflect"
	"testing"

	"insider-sentinel/monitor/internal/event/domain"
	"insider-sentinel/monitor/internal/policy"
)

func defaultClassifier() *Classifier {
	table := policy.Default()
	return New(table.Keywords(), table.DefaultCategory())
}

func TestClassify_HighSensitivity(t *testing.T) {
	c := defaultClassifier()
	for _, label := range []string{
		"confidential_report.txt",
		"password.txt",
		"Q3-financial-summary.xlsx",
		"PRIVATE notes.doc",
	} {
		if got := c.Classify(label); got != domain.CategoryHighSensitivity {
			t.Errorf("Classify(%q) = %s, want %s", label, got, domain.CategoryHighSensitivity)
		}
	}
}

func TestClassify_LowSensitivity(t *testing.T) {
	c := defaultClassifier()
	for _, label := range []string{
		"public_readme.md",
		"documentation.pdf",
		"general-notes.txt",
	} {
		if got := c.Classify(label); got != domain.CategoryLowSensitivity {
			t.Errorf("Classify(%q) = %s, want %s", label, got, domain.CategoryLowSensitivity)
		}
	}
}

func TestClassify_NoMatchReturnsDefault(t *testing.T) {
	c := defaultClassifier()
	if got := c.Classify("unlabeled_x123.dat"); got != domain.CategoryLowSensitivity {
		t.Errorf("Classify(unlabeled_x123.dat) = %s, want default %s", got, domain.CategoryLowSensitivity)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := defaultClassifier()
	first := c.Classify("confidential_public_mix.txt")
	for i := 0; i < 100; i++ {
		if got := c.Classify("confidential_public_mix.txt"); got != first {
			t.Fatalf("Classify not deterministic: run %d got %s, first was %s", i, got, first)
		}
	}
}

func TestClassify_TieBreaksMostSensitiveFirst(t *testing.T) {
	// One high keyword and one low keyword: equal scores, tie goes to high.
	c := defaultClassifier()
	if got := c.Classify("confidential_readme.txt"); got != domain.CategoryHighSensitivity {
		t.Errorf("Classify(confidential_readme.txt) = %s, want %s on tie", got, domain.CategoryHighSensitivity)
	}
}

func TestClassify_WeightsOutweighCounts(t *testing.T) {
	weights := map[domain.Category]map[string]float64{
		domain.CategoryHighSensitivity: {"payroll": 5},
		domain.CategoryLowSensitivity:  {"draft": 1, "notes": 1},
	}
	c := New(weights, domain.CategoryLowSensitivity)
	if got := c.Classify("payroll draft notes"); got != domain.CategoryHighSensitivity {
		t.Errorf("Classify = %s, want %s (weight 5 beats 1+1)", got, domain.CategoryHighSensitivity)
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Confidential_Report-v2.TXT")
	want := []string{"confidential", "report", "v2", "txt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenize_Empty(t *testing.T) {
	if got := Tokenize("!!!"); len(got) != 0 {
		t.Errorf("Tokenize(!!!) = %v, want no tokens", got)
	}
}
