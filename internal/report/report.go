package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/spigell/cv-evaluator/internal/evaluation"
	"github.com/spigell/cv-evaluator/internal/history"
)

type Tab string

const (
	TabOverview   Tab = "overview"
	TabExperience Tab = "experience"
	TabEducation  Tab = "education"
	TabSkills     Tab = "skills"
	TabLanguages  Tab = "languages"
	TabFormat     Tab = "format"
	TabAll        Tab = "all"

	barWidth = 20
)

// Tabs lists every tab in display order.
var Tabs = []Tab{TabOverview, TabExperience, TabEducation, TabSkills, TabLanguages, TabFormat, TabAll}

func ParseTab(name string) (Tab, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return TabOverview, nil
	}
	for _, tab := range Tabs {
		if string(tab) == name {
			return tab, nil
		}
	}
	return "", fmt.Errorf("unknown tab %q", name)
}

// Render writes one tab of the evaluation report for entry.
func Render(w io.Writer, entry *history.Entry, tab Tab) error {
	if entry == nil || entry.Evaluation == nil {
		return fmt.Errorf("no evaluation to render")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", entry.FileName, entry.Date.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Evaluation ID: %s\n", entry.ID)

	r := entry.Evaluation
	sections := map[Tab]func(*strings.Builder, *evaluation.Result){
		TabOverview:   overview,
		TabExperience: experience,
		TabEducation:  education,
		TabSkills:     skills,
		TabLanguages:  languages,
		TabFormat:     format,
	}

	if tab == TabAll {
		for _, t := range Tabs[:len(Tabs)-1] {
			heading(&b, t)
			sections[t](&b, r)
		}
	} else {
		render, ok := sections[tab]
		if !ok {
			return fmt.Errorf("unknown tab %q", tab)
		}
		heading(&b, tab)
		render(&b, r)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// ProgressBar draws value (0-100) as a fixed width bar.
func ProgressBar(value int) string {
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	filled := value * barWidth / 100
	return fmt.Sprintf("[%s%s] %3d%%", strings.Repeat("#", filled), strings.Repeat("-", barWidth-filled), value)
}

func heading(b *strings.Builder, tab Tab) {
	title := strings.ToUpper(string(tab[:1])) + string(tab[1:])
	fmt.Fprintf(b, "\n== %s ==\n", title)
}

func overview(b *strings.Builder, r *evaluation.Result) {
	fmt.Fprintf(b, "Fit score: %s\n", ProgressBar(int(r.FitScore+0.5)))
	section(b, "Summary", r.Summary.State, r.Summary.Feedback)

	insights := r.Insights()
	list(b, "Strengths", insights.Strengths)
	list(b, "Weaknesses", insights.Weaknesses)
	list(b, "Recommendations", r.Recommendations)
}

func experience(b *strings.Builder, r *evaluation.Result) {
	section(b, "Experience", r.Experience.State, r.Experience.Feedback)
	fmt.Fprintf(b, "  Total years: %g\n", r.Experience.TotalYears)
	section(b, "Projects", r.Projects.State, r.Projects.Feedback)
}

func education(b *strings.Builder, r *evaluation.Result) {
	section(b, "Education", r.Education.State, r.Education.Feedback)
	if r.Education.Level != "" {
		fmt.Fprintf(b, "  Level: %s\n", r.Education.Level)
	}
	section(b, "Certifications", r.Certifications.State, r.Certifications.Feedback)
	list(b, "  Certificates", r.Certifications.List)
}

func skills(b *strings.Builder, r *evaluation.Result) {
	section(b, "Skills", r.Skills.State, r.Skills.Feedback)
	list(b, "  Listed", r.Skills.Listed)
	list(b, "  Missing for the role", r.Skills.MissingForTargetRole)
	list(b, "  Not relevant", r.Skills.Leftover)
}

func languages(b *strings.Builder, r *evaluation.Result) {
	section(b, "Languages", r.Languages.State, r.Languages.Feedback)
	detected := make([]string, 0, len(r.Languages.Detected))
	for _, lang := range r.Languages.Detected {
		if lang.Level != "" {
			detected = append(detected, fmt.Sprintf("%s (%s)", lang.Name, lang.Level))
			continue
		}
		detected = append(detected, lang.Name)
	}
	list(b, "  Detected", detected)
}

func format(b *strings.Builder, r *evaluation.Result) {
	if r.Format.State != "" {
		section(b, "Format", r.Format.State, r.Format.Feedback)
	} else if r.Format.Feedback != "" {
		fmt.Fprintf(b, "Format\n  %s\n", r.Format.Feedback)
	}
	if r.Format.Clean {
		b.WriteString("Layout is clean and readable\n")
	}
	list(b, "Issues", r.Format.Issues)
}

func section(b *strings.Builder, name string, state evaluation.SectionState, feedback string) {
	fmt.Fprintf(b, "%s: %s %s\n", name, state, ProgressBar(state.Progress()))
	if feedback = strings.TrimSpace(feedback); feedback != "" {
		fmt.Fprintf(b, "  %s\n", feedback)
	}
}

func list(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	indent := strings.Repeat(" ", len(title)-len(strings.TrimLeft(title, " ")))
	for _, item := range items {
		fmt.Fprintf(b, "%s  - %s\n", indent, item)
	}
}
