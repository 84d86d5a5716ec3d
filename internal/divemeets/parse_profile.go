package divemeets

import (
	"io"
	"regexp"
	"strings"

	"diveanalytics-backend/lib/htmlutil"
)

var (
	profileNameRegex      = regexp.MustCompile(`Name:\s*([^\n]+)`)
	profileCityStateRegex = regexp.MustCompile(`City/State:\s*([^\n]+)`)
	profileCountryRegex   = regexp.MustCompile(`Country:\s*([^\n]+)`)
	profileGenderRegex    = regexp.MustCompile(`Gender:\s*([^\n]+)`)
	profileAgeRegex       = regexp.MustCompile(`Age:\s*(\d+)`)
	profileFinaAgeRegex   = regexp.MustCompile(`FINA Age:\s*(\d+)`)
	profileHSGradRegex    = regexp.MustCompile(`High School Graduation:\s*(\d{4})`)
)

func captureLine(re *regexp.Regexp, text string) string {
	groups := re.FindStringSubmatch(text)
	if len(groups) < 2 {
		return ""
	}
	return strings.TrimSpace(groups[1])
}

func captureInt(re *regexp.Regexp, text string) *int {
	groups := re.FindStringSubmatch(text)
	if len(groups) < 2 {
		return nil
	}
	return parseInt(groups[1])
}

// captureAge finds the first "Age:" that is not the tail of "FINA Age:".
func captureAge(text string) *int {
	for _, loc := range profileAgeRegex.FindAllStringSubmatchIndex(text, -1) {
		if strings.HasSuffix(text[:loc[0]], "FINA ") {
			continue
		}
		return parseInt(text[loc[2]:loc[3]])
	}
	return nil
}

// ParseProfile reads the labelled personal attributes of a diver profile
// page. Each label is searched in the page text with text nodes on separate
// lines.
func ParseProfile(r io.Reader) (Profile, error) {
	doc, err := readDocument("profile", r)
	if err != nil {
		return Profile{}, err
	}
	text := htmlutil.FlattenText(doc.Selection, "\n")

	return Profile{
		Name:       captureLine(profileNameRegex, text),
		CityState:  captureLine(profileCityStateRegex, text),
		Country:    captureLine(profileCountryRegex, text),
		Gender:     captureLine(profileGenderRegex, text),
		Age:        captureAge(text),
		FinaAge:    captureInt(profileFinaAgeRegex, text),
		HSGradYear: captureInt(profileHSGradRegex, text),
	}, nil
}
