package evaluation

// SectionState is the qualitative classification of a résumé section.
type SectionState string

const (
	StateRelevant SectionState = "relevant"
	StatePresent  SectionState = "present"
	StateMissing  SectionState = "missing"
)

// States lists every valid SectionState.
var States = []SectionState{StateRelevant, StatePresent, StateMissing}

// Valid reports whether s is one of the known states.
func (s SectionState) Valid() bool {
	for _, state := range States {
		if s == state {
			return true
		}
	}
	return false
}

// EducationLevels lists the degree levels the service reports.
var EducationLevels = []string{"Bachelor", "Master", "PhD", "Other"}

// Result is the structured feedback returned by the evaluation service.
type Result struct {
	FitScore        float64               `json:"fitScore"`
	Summary         Section               `json:"summary"`
	Experience      ExperienceSection     `json:"experience"`
	Education       EducationSection      `json:"education"`
	Skills          SkillsSection         `json:"skills"`
	Languages       LanguagesSection      `json:"languages"`
	Certifications  CertificationsSection `json:"certifications"`
	Projects        Section               `json:"projects"`
	Format          FormatSection         `json:"format"`
	Recommendations []string              `json:"recommendations"`
}

type Section struct {
	State    SectionState `json:"state"`
	Feedback string       `json:"feedback"`
}

type ExperienceSection struct {
	State      SectionState `json:"state"`
	TotalYears float64      `json:"totalYears"`
	Feedback   string       `json:"feedback"`
}

type EducationSection struct {
	State    SectionState `json:"state"`
	Level    string       `json:"level,omitempty"`
	Feedback string       `json:"feedback"`
}

type SkillsSection struct {
	State                SectionState `json:"state"`
	Listed               []string     `json:"listed"`
	MissingForTargetRole []string     `json:"missingForTargetRole"`
	Leftover             []string     `json:"leftover"`
	Feedback             string       `json:"feedback"`
}

type DetectedLanguage struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

type LanguagesSection struct {
	State    SectionState       `json:"state"`
	Detected []DetectedLanguage `json:"detected"`
	Feedback string             `json:"feedback"`
}

type CertificationsSection struct {
	State    SectionState `json:"state"`
	List     []string     `json:"list"`
	Feedback string       `json:"feedback"`
}

// FormatSection describes layout quality. State and Feedback are optional.
type FormatSection struct {
	Clean    bool         `json:"clean"`
	Issues   []string     `json:"issues"`
	State    SectionState `json:"state,omitempty"`
	Feedback string       `json:"feedback,omitempty"`
}
