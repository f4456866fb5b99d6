package notifier

import (
	"fmt"
	"strings"

	"github.com/sqanatoliy/jobs-scraper/helpers"
	"github.com/sqanatoliy/jobs-scraper/internal/jobs"
)

const (
	notAvailable      = "N/A"
	maxDouInfoLength  = 1000
	defaultDouTitle   = "No title"
	defaultDouCompany = "No company"
)

var markdownReplacer = strings.NewReplacer(
	"\\", "\\\\",
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
	")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
	"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
	"}", "\\}", ".", "\\.", "!", "\\!",
)

// inside (...) of an inline link only ")" and "\" need escaping
var linkReplacer = strings.NewReplacer("\\", "\\\\", ")", "\\)")

// EscapeMarkdown escapes text for Telegram MarkdownV2
func EscapeMarkdown(text string) string {
	return markdownReplacer.Replace(text)
}

func link(title, url string) string {
	if url == "" {
		return EscapeMarkdown(title)
	}
	return fmt.Sprintf("[%s](%s)", EscapeMarkdown(title), linkReplacer.Replace(url))
}

func bold(label string) string {
	return "*" + EscapeMarkdown(label) + "*"
}

// Format renders a record as a MarkdownV2 message
func Format(r jobs.Record) string {
	switch j := r.(type) {
	case jobs.DouJob:
		return formatDou(j)
	case jobs.DjinniJob:
		return formatDjinni(j)
	case jobs.GlobalLogicJob:
		return formatGlobalLogic(j)
	case jobs.BlackHatWorldJob:
		return formatBlackHatWorld(j)
	default:
		return EscapeMarkdown(fmt.Sprintf("%v", r))
	}
}

// ExperienceLabel renders an experience band for people: "0-1+years" -> "0-1 years"
func ExperienceLabel(experience string) string {
	if experience == "" {
		return "No experience"
	}
	return strings.ReplaceAll(experience, "+", " ")
}

func formatDou(j jobs.DouJob) string {
	title := j.Title
	if title == "" {
		title = defaultDouTitle
	}
	company := j.Company
	if company == "" {
		company = defaultDouCompany
	}

	var b strings.Builder
	b.WriteString(EscapeMarkdown("DOU.UA") + "\n")
	fmt.Fprintf(&b, "%s %s\n", bold("Date:"), EscapeMarkdown(or(j.Date, notAvailable)))
	fmt.Fprintf(&b, "%s %s\n", link(title, j.Link.Or("")), bold(company))
	fmt.Fprintf(&b, "%s %s\n", bold("Experience:"), EscapeMarkdown(ExperienceLabel(j.Experience)))
	fmt.Fprintf(&b, "%s %s\n", bold("Category:"), EscapeMarkdown(or(j.Category, "No category")))
	fmt.Fprintf(&b, "%s %s\n", bold("Salary:"), EscapeMarkdown(j.Salary.Or(notAvailable)))
	fmt.Fprintf(&b, "%s %s\n", bold("Cities:"), EscapeMarkdown(j.Cities.Or(notAvailable)))
	fmt.Fprintf(&b, "%s %s", bold("Info:"), EscapeMarkdown(helpers.Truncate(j.ShortInfo.Or(notAvailable), maxDouInfoLength)))
	return b.String()
}

func formatDjinni(j jobs.DjinniJob) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", bold("djinni.co in category:"), EscapeMarkdown(or(j.Label, notAvailable)))
	fmt.Fprintf(&b, "%s %s\n", bold("Date:"), EscapeMarkdown(j.Date))
	fmt.Fprintf(&b, "%s\n", link(j.Title.Or(j.Link), j.Link))
	fmt.Fprintf(&b, "%s %s\n", bold("Description:"), EscapeMarkdown(j.Description.Or(notAvailable)))
	fmt.Fprintf(&b, "%s %s", bold("Category:"), EscapeMarkdown(j.Category.Or(notAvailable)))
	return b.String()
}

func formatGlobalLogic(j jobs.GlobalLogicJob) string {
	var b strings.Builder
	b.WriteString(EscapeMarkdown("GLOBAL LOGIC") + "\n")
	fmt.Fprintf(&b, "%s\n", link(j.Title, j.Link))
	if j.Experience != "" {
		fmt.Fprintf(&b, "%s %s\n", bold("Experience:"), EscapeMarkdown(ExperienceLabel(j.Experience)))
	}
	fmt.Fprintf(&b, "%s %s", bold("Requirements:"), EscapeMarkdown(or(j.Requirements.Or(""), notAvailable)))
	return b.String()
}

func formatBlackHatWorld(j jobs.BlackHatWorldJob) string {
	return EscapeMarkdown("BlackHatWorld Freelance") + "\n" + link(j.Title, j.Link)
}

func or(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
