package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Checked in this order; the first set with a hit decides the level.
var levelMarkers = []struct {
	level   string
	markers []string
}{
	{LevelEntry, []string{"entry level", "junior", "graduate", "trainee", "intern", "praktikum"}},
	{LevelSenior, []string{"senior", "lead", "principal", "staff", "expert"}},
	{LevelMid, []string{"mid-level", "intermediate", "experienced"}},
	{LevelManagement, []string{"director", "head of", "chief", "vp", "vice president", "manager", "leiter"}},
}

const maxSkills = 10

var skillVocabulary = []string{
	"Python", "Java", "JavaScript", "TypeScript", "C++", "C#", "PHP", "Ruby", "Go", "Rust", "Swift", "Kotlin",
	"React", "Angular", "Vue", "Node.js", "Django", "Flask", "Spring", "Express",
	"SQL", "MySQL", "PostgreSQL", "MongoDB", "Redis", "Oracle", "NoSQL",
	"AWS", "Azure", "GCP", "Docker", "Kubernetes", "Jenkins", "Git", "CI/CD",
	"Machine Learning", "AI", "Data Science", "Deep Learning", "TensorFlow", "PyTorch",
	"Agile", "Scrum", "DevOps", "REST API", "GraphQL", "Microservices",
	"HTML", "CSS", "SASS", "Bootstrap", "Tailwind",
	"Linux", "Unix", "Windows Server", "Networking",
	"SAP", "Salesforce", "Excel", "Power BI", "Tableau",
}

var lowerSkills = func() []string {
	out := make([]string, len(skillVocabulary))
	for i, s := range skillVocabulary {
		out[i] = strings.ToLower(s)
	}
	return out
}()

func lower(s string) string {
	return cases.Lower(language.German).String(s)
}

// ClassifyLevel derives the seniority of a posting from its title and summary.
func ClassifyLevel(title, summary string) string {
	text := lower(title + " " + summary)
	for _, set := range levelMarkers {
		for _, m := range set.markers {
			if strings.Contains(text, m) {
				return set.level
			}
		}
	}
	return LevelNotSpecified
}

// ExtractSkills returns the vocabulary entries mentioned in summary, in
// vocabulary order, at most ten. The result is never nil.
func ExtractSkills(summary string) []string {
	skills := []string{}
	if strings.TrimSpace(summary) == "" {
		return skills
	}
	text := lower(summary)
	for i, s := range lowerSkills {
		if strings.Contains(text, s) {
			skills = append(skills, skillVocabulary[i])
			if len(skills) == maxSkills {
				break
			}
		}
	}
	return skills
}

type dateUnit int

const (
	unitDays dateUnit = iota
	unitHours
	unitMinutes
)

var relativeDatePatterns = []struct {
	re   *regexp.Regexp
	unit dateUnit
}{
	{regexp.MustCompile(`vor (\d+) tag`), unitDays},
	{regexp.MustCompile(`(\d+) tag`), unitDays},
	{regexp.MustCompile(`vor (\d+) stunde`), unitHours},
	{regexp.MustCompile(`(\d+) stunde`), unitHours},
	{regexp.MustCompile(`vor (\d+) minute`), unitMinutes},
	{regexp.MustCompile(`(\d+) minute`), unitMinutes},
	{regexp.MustCompile(`(\d+)\s*d`), unitDays},
	{regexp.MustCompile(`(\d+)\s*h`), unitHours},
}

var absoluteDatePattern = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{2,4})`)

const isoDate = "2006-01-02"

// ParsePostedDate turns the posting-date text of a listing into YYYY-MM-DD
// relative to now. Text it cannot interpret is returned unchanged.
func ParsePostedDate(raw string, now time.Time) string {
	text := strings.TrimSpace(lower(raw))
	if text == "" {
		return ""
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch {
	case strings.Contains(text, "heute") || strings.Contains(text, "today"):
		return today.Format(isoDate)
	case strings.Contains(text, "gestern") || strings.Contains(text, "yesterday"):
		return today.AddDate(0, 0, -1).Format(isoDate)
	}

	for _, p := range relativeDatePatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			break
		}
		if p.unit == unitDays {
			return today.AddDate(0, 0, -n).Format(isoDate)
		}
		return today.Format(isoDate)
	}

	if m := absoluteDatePattern.FindStringSubmatch(text); m != nil {
		if d, ok := calendarDate(m[1], m[2], m[3], now.Location()); ok {
			return d.Format(isoDate)
		}
	}
	return raw
}

func calendarDate(day, month, year string, loc *time.Location) (time.Time, bool) {
	if len(year) == 2 {
		year = "20" + year
	}
	if len(year) != 4 {
		return time.Time{}, false
	}
	d, _ := strconv.Atoi(day)
	m, _ := strconv.Atoi(month)
	y, _ := strconv.Atoi(year)
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, loc)
	if t.Day() != d || int(t.Month()) != m || t.Year() != y {
		return time.Time{}, false
	}
	return t, true
}
