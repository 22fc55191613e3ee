package urlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbsolute(t *testing.T) {
	tests := []struct {
		name string
		base string
		href string
		want string
	}{
		{"root relative", "https://www.stepstone.de", "/stellenangebote--go-dev-123.html", "https://www.stepstone.de/stellenangebote--go-dev-123.html"},
		{"already absolute", "https://www.xing.com", "https://www.xing.com/jobs/berlin-go-1", "https://www.xing.com/jobs/berlin-go-1"},
		{"path relative", "https://www.monster.de/jobs/suche", "detail/42", "https://www.monster.de/jobs/detail/42"},
		{"protocol relative", "https://www.monster.de", "//job.monster.de/x", "https://job.monster.de/x"},
		{"mailto", "https://www.xing.com", "mailto:jobs@example.com", ""},
		{"fragment", "https://www.xing.com", "#top", ""},
		{"empty", "https://www.xing.com", "  ", ""},
		{"bad base", "", "/jobs/1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Absolute(tt.base, tt.href))
		})
	}
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "software-engineer", Slug("Software Engineer"))
	assert.Equal(t, "frankfurt-am-main", Slug("  Frankfurt  am Main "))
	assert.Equal(t, "münchen", Slug("München"))
}

func TestHost(t *testing.T) {
	assert.Equal(t, "stepstone.de", Host("https://www.StepStone.de/work"))
	assert.Equal(t, "", Host("://bad"))
}
