package jobs

import (
	"regexp"
	"strings"

	"github.com/sqanatoliy/jobs-scraper/helpers"

	"golang.org/x/text/unicode/norm"
)

var yearToken = regexp.MustCompile(`^\d{4}$`)

// Normalize returns the canonical form of a raw record. It is a pure function:
// identity fields are trimmed, NFC-folded, whitespace-collapsed and lower-cased.
// Links that take part in an identity key are lower-cased too; DOU and
// GlobalLogic links keep their case. Dates lose a trailing year token and
// missing optional fields stay missing.
func Normalize(r Record) Record {
	switch v := r.(type) {
	case DouJob:
		return NormalizeDou(v)
	case DjinniJob:
		return NormalizeDjinni(v)
	case GlobalLogicJob:
		return NormalizeGlobalLogic(v)
	case BlackHatWorldJob:
		return NormalizeBlackHatWorld(v)
	default:
		return r
	}
}

func NormalizeDou(j DouJob) DouJob {
	return DouJob{
		Date:       identity(StripYear(j.Date)),
		Title:      identity(j.Title),
		Link:       j.Link.Map(strings.TrimSpace),
		Company:    identity(j.Company),
		Salary:     j.Salary.Map(text),
		Cities:     j.Cities.Map(text),
		ShortInfo:  j.ShortInfo.Map(helpers.CollapseSpaces),
		Category:   identity(j.Category),
		Experience: text(j.Experience),
	}
}

func NormalizeDjinni(j DjinniJob) DjinniJob {
	return DjinniJob{
		Date:        identity(StripYear(j.Date)),
		Title:       j.Title.Map(text),
		Link:        strings.ToLower(text(j.Link)),
		Description: j.Description.Map(helpers.CollapseSpaces),
		Category:    j.Category.Map(text),
		Label:       text(j.Label),
	}
}

func NormalizeGlobalLogic(j GlobalLogicJob) GlobalLogicJob {
	return GlobalLogicJob{
		Title:        identity(j.Title),
		Link:         text(j.Link),
		Requirements: j.Requirements.Map(helpers.CollapseSpaces),
		Experience:   text(j.Experience),
	}
}

func NormalizeBlackHatWorld(j BlackHatWorldJob) BlackHatWorldJob {
	return BlackHatWorldJob{
		Title: helpers.CollapseSpaces(text(j.Title)),
		Link:  strings.ToLower(text(j.Link)),
	}
}

// StripYear drops a trailing 4-digit year token: "15 грудня 2025" -> "15 грудня".
// Anything else, including a lone year, is returned trimmed but otherwise unchanged.
func StripYear(date string) string {
	fields := strings.Fields(date)
	if len(fields) > 1 && yearToken.MatchString(fields[len(fields)-1]) {
		return strings.Join(fields[:len(fields)-1], " ")
	}
	return strings.TrimSpace(date)
}

func text(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func identity(s string) string {
	return strings.ToLower(helpers.CollapseSpaces(text(s)))
}
