// Package segment turns the flat text of a proposal into its chapter/section outline.
package segment

import (
	"regexp"
	"strings"

	"github.com/hyperjump/planreview/internal/models"
)

const chineseNumerals = `一二三四五六七八九十百零〇两`

// heading is one recognised heading form. skip, when set, rejects lines that
// belong to a later, more specific form.
type heading struct {
	re    *regexp.Regexp
	level int
	skip  *regexp.Regexp
}

// headings are tried in order; the first match wins.
var headings = []heading{
	// 第一章 编制说明
	{re: regexp.MustCompile(`^第[` + chineseNumerals + `\d]+章[\s\x{3000}]*(.+)$`), level: 1},
	// 第一节 编制依据
	{re: regexp.MustCompile(`^第[` + chineseNumerals + `\d]+节[\s\x{3000}]*(.+)$`), level: 2},
	// 1. 工程概况 / 1、工程概况 (but not 1.2)
	{re: regexp.MustCompile(`^\d+[.．、][\s\x{3000}]*(.+)$`), level: 1, skip: regexp.MustCompile(`^\d+[.．]\d`)},
	// 1.2 质量目标
	{re: regexp.MustCompile(`^\d+[.．]\d+[\s\x{3000}]+(.+)$`), level: 2},
	// （一）总体要求
	{re: regexp.MustCompile(`^[（(][` + chineseNumerals + `]+[）)][\s\x{3000}]*(.+)$`), level: 1},
}

// MatchHeading reports whether line is a heading and returns its title and level.
func MatchHeading(line string) (title string, level int, ok bool) {
	line = strings.TrimSpace(line)
	for _, h := range headings {
		if h.skip != nil && h.skip.MatchString(line) {
			continue
		}
		m := h.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		return strings.TrimSpace(m[1]), h.level, true
	}
	return "", 0, false
}

type sectionBuilder struct {
	sec   models.Chapter
	lines []string
}

type chapterBuilder struct {
	ch       models.Chapter
	lines    []string
	sections []*sectionBuilder
}

// Segment splits text into level-1 chapters with nested level-2 sections.
// Empty lines are skipped and line numbers are 1-based positions in the input.
// A section heading that appears before any chapter heading is dropped.
// Each chapter's Content spans from its heading to the next chapter heading;
// a section's Content ends at the next heading of any level.
func Segment(text string) []models.Chapter {
	var (
		built []*chapterBuilder
		cur   *chapterBuilder
		sec   *sectionBuilder
	)
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		title, level, ok := MatchHeading(line)
		switch {
		case ok && level == 1:
			cur = &chapterBuilder{
				ch:    models.Chapter{Title: title, Level: 1, LineNumber: i + 1},
				lines: []string{line},
			}
			built = append(built, cur)
			sec = nil
		case ok && level == 2:
			if cur == nil {
				continue
			}
			sec = &sectionBuilder{
				sec:   models.Chapter{Title: title, Level: 2, LineNumber: i + 1},
				lines: []string{line},
			}
			cur.sections = append(cur.sections, sec)
			cur.lines = append(cur.lines, line)
		default:
			if cur != nil {
				cur.lines = append(cur.lines, line)
			}
			if sec != nil {
				sec.lines = append(sec.lines, line)
			}
		}
	}

	chapters := make([]models.Chapter, 0, len(built))
	for _, b := range built {
		ch := b.ch
		ch.Content = strings.Join(b.lines, "\n")
		if len(b.sections) > 0 {
			ch.Sections = make([]models.Chapter, 0, len(b.sections))
			for _, s := range b.sections {
				sc := s.sec
				sc.Content = strings.Join(s.lines, "\n")
				ch.Sections = append(ch.Sections, sc)
			}
		}
		chapters = append(chapters, ch)
	}
	return chapters
}

// Count returns the number of chapters and sections in an outline.
func Count(chapters []models.Chapter) (nChapters, nSections int) {
	for _, ch := range chapters {
		nSections += len(ch.Sections)
	}
	return len(chapters), nSections
}
