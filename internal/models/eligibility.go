package models

// Degree levels recognised by eligibility rules and education records.
const (
	LevelBachelor = "Bachelor"
	LevelMaster   = "Master"
	LevelPhD      = "PhD"
)

// DisciplineRequirement demands a degree at Level in any one of Disciplines.
type DisciplineRequirement struct {
	Level       string   `yaml:"level" json:"level"`
	Disciplines []string `yaml:"disciplines" json:"disciplines"`
	MinMarks    float64  `yaml:"min_marks,omitempty" json:"min_marks,omitempty"`
}

// PostRule is the eligibility record for one advertised post.
type PostRule struct {
	PostCode           string                  `yaml:"post_code" json:"post_code"`
	Title              string                  `yaml:"title" json:"title"`
	MinAge             int                     `yaml:"min_age,omitempty" json:"min_age,omitempty"`
	MaxAge             int                     `yaml:"max_age" json:"max_age"`
	CategoryRelaxation map[string]int          `yaml:"category_relaxation,omitempty" json:"category_relaxation,omitempty"`
	PwBDRelaxation     int                     `yaml:"pwbd_relaxation,omitempty" json:"pwbd_relaxation,omitempty"`
	Required           []DisciplineRequirement `yaml:"required" json:"required"`
	ClosingDate        string                  `yaml:"closing_date,omitempty" json:"closing_date,omitempty"`
}

// Degree is one qualification supplied by an applicant.
type Degree struct {
	Level      string `json:"level"`
	Discipline string `json:"discipline"`
	Institute  string `json:"institute"`
	Year       *int   `json:"year,omitempty"`
	Marks      string `json:"marks,omitempty"`
}

// EligibilityRequest is the standalone eligibility check payload.
type EligibilityRequest struct {
	PostCode    string   `json:"post_code"`
	Category    string   `json:"category"`
	PwBD        bool     `json:"pwbd"`
	DateOfBirth string   `json:"dob"`
	Degrees     []Degree `json:"degrees"`
}

// EligibilityResult is the verdict for one applicant against one post.
type EligibilityResult struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
	Age      int    `json:"age,omitempty"`
	MaxAge   int    `json:"max_age,omitempty"`
}
