package yamlfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/profile-export/internal/core/domain"
)

// Load reads a vocabulary override file and merges it over the defaults.
// An empty path returns the default vocabulary.
func Load(path string) (domain.Vocabulary, error) {
	base := domain.DefaultVocabulary()
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Vocabulary{}, fmt.Errorf("read vocabulary file: %w", err)
	}
	return Parse(base, data)
}

// Parse decodes data strictly; unknown keys are rejected so a typo does not
// silently fall back to a default.
func Parse(base domain.Vocabulary, data []byte) (domain.Vocabulary, error) {
	var override domain.Vocabulary
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&override); err != nil && !errors.Is(err, io.EOF) {
		return domain.Vocabulary{}, domain.WrapError(domain.ErrInvalidInput, "parse vocabulary", err)
	}

	merged := base.Merge(override)
	if err := merged.Validate(); err != nil {
		return domain.Vocabulary{}, err
	}
	return merged, nil
}
