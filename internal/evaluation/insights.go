package evaluation

import (
	"fmt"
	"strings"
)

// Progress returns the bar value shown for a section state.
func (s SectionState) Progress() int {
	switch s {
	case StateRelevant:
		return 90
	case StatePresent:
		return 50
	case StateMissing:
		return 25
	default:
		return 0
	}
}

// Insights splits the result into short strengths and weaknesses.
type Insights struct {
	Strengths  []string
	Weaknesses []string
}

func (r *Result) Insights() Insights {
	var in Insights
	if r == nil {
		return in
	}

	add := func(state SectionState, strong string, weak map[SectionState]string) {
		if state == StateRelevant {
			in.Strengths = append(in.Strengths, strong)
			return
		}
		if msg, ok := weak[state]; ok {
			in.Weaknesses = append(in.Weaknesses, msg)
		}
	}

	add(r.Summary.State, "Strong professional summary", map[SectionState]string{
		StatePresent: "Summary is present but not tailored to the role",
		StateMissing: "Add a professional summary",
	})

	add(r.Experience.State, fmt.Sprintf("Relevant experience (%s years)", formatYears(r.Experience.TotalYears)), map[SectionState]string{
		StatePresent: "Experience is not clearly related to the role",
		StateMissing: "Work experience section is missing",
	})

	add(r.Education.State, fmt.Sprintf("Relevant education (%s)", educationLevel(r.Education.Level)), map[SectionState]string{
		StatePresent: "Education is not clearly related to the role",
		StateMissing: "Education section is missing",
	})

	if r.Skills.State == StateRelevant {
		in.Strengths = append(in.Strengths, "Skills match the target role")
	} else {
		missing := "none listed"
		if len(r.Skills.MissingForTargetRole) > 0 {
			missing = strings.Join(r.Skills.MissingForTargetRole, ", ")
		}
		in.Weaknesses = append(in.Weaknesses, fmt.Sprintf("Skills missing for the role: %s", missing))
	}

	add(r.Languages.State, "Language skills fit the role", map[SectionState]string{
		StatePresent: "Languages are listed without proficiency levels",
		StateMissing: "Add a languages section",
	})

	if r.Format.Clean {
		in.Strengths = append(in.Strengths, "Clean and readable format")
	} else {
		in.Weaknesses = append(in.Weaknesses, "Format needs cleanup")
	}

	return in
}

func formatYears(years float64) string {
	if years == float64(int(years)) {
		return fmt.Sprintf("%d", int(years))
	}
	return fmt.Sprintf("%.1f", years)
}

func educationLevel(level string) string {
	if strings.TrimSpace(level) == "" {
		return "Other"
	}
	return level
}
