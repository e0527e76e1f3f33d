package yamlfile

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kirillkom/profile-export/internal/core/domain"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	vocab, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(vocab, domain.DefaultVocabulary()) {
		t.Fatalf("expected default vocabulary")
	}
}

func TestLoadOverridesOnlyGivenKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocabulary.yaml")
	content := `
org_tokens: [GmbH, AG, SE]
thresholds:
  mostly_empty_ratio: 0.7
signatures:
  - category: skills
    fields: [Kompetenz, Stufe]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write vocabulary: %v", err)
	}

	vocab, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	def := domain.DefaultVocabulary()
	if !reflect.DeepEqual(vocab.OrgTokens, []string{"GmbH", "AG", "SE"}) {
		t.Fatalf("unexpected org tokens %v", vocab.OrgTokens)
	}
	if vocab.Thresholds.MostlyEmptyRatio != 0.7 || vocab.Thresholds.WorkEmptyRatio != def.Thresholds.WorkEmptyRatio {
		t.Fatalf("unexpected thresholds %+v", vocab.Thresholds)
	}
	if len(vocab.Signatures) != 1 || vocab.Signatures[0].Category != domain.CategorySkills {
		t.Fatalf("unexpected signatures %+v", vocab.Signatures)
	}
	if !reflect.DeepEqual(vocab.LaborTokens, def.LaborTokens) {
		t.Fatalf("expected labor tokens to keep defaults")
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse(domain.DefaultVocabulary(), []byte("org_tokenz: [GmbH]\n"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestParseRejectsInvalidMerge(t *testing.T) {
	_, err := Parse(domain.DefaultVocabulary(), []byte("signatures:\n  - category: traits\n    fields: [Name]\n"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	vocab, err := Parse(domain.DefaultVocabulary(), nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if vocab.TraitTextHeading != "Persönliche Eigenschaften" {
		t.Fatalf("unexpected heading %q", vocab.TraitTextHeading)
	}
}
