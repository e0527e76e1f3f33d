package domain

import "strings"

// TraitKind names the kind of single-fact fragment folded into the traits record.
type TraitKind string

const (
	TraitIdentity    TraitKind = "identity"
	TraitOccupation  TraitKind = "occupation"
	TraitPersonality TraitKind = "personality"
)

// Signature is the header field set that directly classifies a multi-row fragment.
// Every field must be present among the trimmed first-row cells.
type Signature struct {
	Category Category `yaml:"category"`
	Fields   []string `yaml:"fields"`
}

// TraitMarker identifies a single-fact fragment by its header. A marker matches
// when all of AllOf are present.
type TraitMarker struct {
	Kind  TraitKind `yaml:"kind"`
	AllOf []string  `yaml:"all_of"`
}

type Thresholds struct {
	MostlyEmptyRatio float64 `yaml:"mostly_empty_ratio"`
	WorkEmptyRatio   float64 `yaml:"work_empty_ratio"`
	MinYearDigits    int     `yaml:"min_year_digits"`
}

// Vocabulary holds every table-shape rule of the engine. Signatures are
// evaluated in slice order.
type Vocabulary struct {
	Signatures       []Signature   `yaml:"signatures"`
	TraitMarkers     []TraitMarker `yaml:"trait_markers"`
	TraitFields      []string      `yaml:"trait_fields"`
	TraitTextField   string        `yaml:"trait_text_field"`
	TraitTextHeading string        `yaml:"trait_text_heading"`
	Placeholders     []string      `yaml:"placeholders"`
	OrgTokens        []string      `yaml:"org_tokens"`
	LaborTokens      []string      `yaml:"labor_tokens"`
	WorkTokens       []string      `yaml:"work_tokens"`
	EducationTokens  []string      `yaml:"education_tokens"`
	Thresholds       Thresholds    `yaml:"thresholds"`
}

func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Signatures: []Signature{
			{Category: CategoryWorkExperience, Fields: []string{"Beginn", "Ende", "Unternehmen", "Bezeichnung", "Allg Beschreibung"}},
			{Category: CategoryEducation, Fields: []string{"Beginn", "Ende", "Ausbildung", "Institution"}},
			{Category: CategorySkills, Fields: []string{"Gruppe", "Name", "Einstufung"}},
		},
		TraitMarkers: []TraitMarker{
			{Kind: TraitIdentity, AllOf: []string{"Name", "Geburtsdatum"}},
			{Kind: TraitOccupation, AllOf: []string{"Erlernter Beruf"}},
			{Kind: TraitOccupation, AllOf: []string{"Barcode"}},
			{Kind: TraitPersonality, AllOf: []string{"Persönliche Eigenschaften"}},
		},
		TraitFields:      []string{"Name", "Vorname", "Geburtsdatum", "Erlernter Beruf", "Barcode", "Persönliche Eigenschaften"},
		TraitTextField:   "Persönliche Eigenschaften",
		TraitTextHeading: "Persönliche Eigenschaften",
		Placeholders:     []string{"", "None", "nan", "NaN", "null"},
		OrgTokens:        []string{"GmbH", "AG", "Co", "KG", "Ltd", "Inc", "Corp"},
		LaborTokens:      []string{"arbeiten", "montage", "technik", "mechaniker", "elektriker"},
		WorkTokens:       []string{"unternehmen", "firma", "gmbh", "ag", "arbeit", "montage"},
		EducationTokens:  []string{"schule", "ausbildung", "studium", "universität"},
		Thresholds: Thresholds{
			MostlyEmptyRatio: 0.6,
			WorkEmptyRatio:   0.5,
			MinYearDigits:    4,
		},
	}
}

// Blank reports whether a cell is empty or one of the missing-value placeholders.
func (v Vocabulary) Blank(cell string) bool {
	trimmed := strings.TrimSpace(cell)
	for _, p := range v.Placeholders {
		if trimmed == p {
			return true
		}
	}
	return trimmed == ""
}

// Merge overlays non-zero fields of o on v.
func (v Vocabulary) Merge(o Vocabulary) Vocabulary {
	out := v
	if len(o.Signatures) > 0 {
		out.Signatures = o.Signatures
	}
	if len(o.TraitMarkers) > 0 {
		out.TraitMarkers = o.TraitMarkers
	}
	if len(o.TraitFields) > 0 {
		out.TraitFields = o.TraitFields
	}
	if o.TraitTextField != "" {
		out.TraitTextField = o.TraitTextField
	}
	if o.TraitTextHeading != "" {
		out.TraitTextHeading = o.TraitTextHeading
	}
	if len(o.Placeholders) > 0 {
		out.Placeholders = o.Placeholders
	}
	if len(o.OrgTokens) > 0 {
		out.OrgTokens = o.OrgTokens
	}
	if len(o.LaborTokens) > 0 {
		out.LaborTokens = o.LaborTokens
	}
	if len(o.WorkTokens) > 0 {
		out.WorkTokens = o.WorkTokens
	}
	if len(o.EducationTokens) > 0 {
		out.EducationTokens = o.EducationTokens
	}
	if o.Thresholds.MostlyEmptyRatio > 0 {
		out.Thresholds.MostlyEmptyRatio = o.Thresholds.MostlyEmptyRatio
	}
	if o.Thresholds.WorkEmptyRatio > 0 {
		out.Thresholds.WorkEmptyRatio = o.Thresholds.WorkEmptyRatio
	}
	if o.Thresholds.MinYearDigits > 0 {
		out.Thresholds.MinYearDigits = o.Thresholds.MinYearDigits
	}
	return out
}

// Validate rejects vocabularies the engine cannot run with.
func (v Vocabulary) Validate() error {
	for _, sig := range v.Signatures {
		if !sig.Category.MultiRow() || sig.Category == CategoryUnknown {
			return WrapError(ErrInvalidInput, "validate vocabulary", errorf("signature category %q is not a table category", sig.Category))
		}
		if len(sig.Fields) == 0 {
			return WrapError(ErrInvalidInput, "validate vocabulary", errorf("signature %q has no fields", sig.Category))
		}
	}
	for _, m := range v.TraitMarkers {
		if len(m.AllOf) == 0 {
			return WrapError(ErrInvalidInput, "validate vocabulary", errorf("trait marker %q has no fields", m.Kind))
		}
	}
	if len(v.TraitFields) == 0 {
		return WrapError(ErrInvalidInput, "validate vocabulary", errorf("trait field set is empty"))
	}
	if v.Thresholds.MostlyEmptyRatio <= 0 || v.Thresholds.MostlyEmptyRatio > 1 ||
		v.Thresholds.WorkEmptyRatio <= 0 || v.Thresholds.WorkEmptyRatio > 1 {
		return WrapError(ErrInvalidInput, "validate vocabulary", errorf("empty ratios must be in (0, 1]"))
	}
	return nil
}
