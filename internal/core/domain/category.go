package domain

type Category string

const (
	CategoryEducation      Category = "education"
	CategoryWorkExperience Category = "work_experience"
	CategorySkills         Category = "skills"
	CategoryTraits         Category = "traits"
	CategoryUnknown        Category = "unknown"
)

// OutputOrder is the fixed order in which category files are written.
var OutputOrder = []Category{
	CategoryEducation,
	CategoryWorkExperience,
	CategorySkills,
	CategoryTraits,
	CategoryUnknown,
}

func (c Category) Valid() bool {
	switch c {
	case CategoryEducation, CategoryWorkExperience, CategorySkills, CategoryTraits, CategoryUnknown:
		return true
	default:
		return false
	}
}

// MultiRow reports whether fragments of the category are concatenated row by row.
// Traits is the only single-fact category.
func (c Category) MultiRow() bool {
	switch c {
	case CategoryEducation, CategoryWorkExperience, CategorySkills, CategoryUnknown:
		return true
	default:
		return false
	}
}

func (c Category) Filename() string {
	return string(c) + ".csv"
}

func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	if !c.Valid() {
		return CategoryUnknown, false
	}
	return c, true
}

// Route records how a fragment reached its category.
type Route string

const (
	RouteDirect       Route = "direct"
	RouteContinuation Route = "continuation"
	RouteSingleFact   Route = "single_fact"
	RouteUnknown      Route = "unknown"
)
