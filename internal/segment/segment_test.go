package segment

import (
	"testing"

	"github.com/hyperjump/planreview/internal/models"
)

func TestMatchHeading(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantTitle string
		wantLevel int
		wantOK    bool
	}{
		{"chapter word", "第一章 编制说明", "编制说明", 1, true},
		{"chapter word no space", "第十二章附图附表", "附图附表", 1, true},
		{"section word", "第二节 编制依据", "编制依据", 2, true},
		{"numbered dot", "1. 工程概况", "工程概况", 1, true},
		{"numbered comma", "2、施工部署", "施工部署", 1, true},
		{"dotted", "3.2 质量控制", "质量控制", 2, true},
		{"dotted ideographic space", "1.2\u3000质量目标", "质量目标", 2, true},
		{"chapter word ideographic space", "第三章\u3000施工部署", "施工部署", 1, true},
		{"numbered ideographic space", "4.\u3000施工准备", "施工准备", 1, true},
		{"dotted is never numbered", "3.2质量控制", "", 0, false},
		{"paren full width", "（三）应急预案", "应急预案", 1, true},
		{"paren half width", "(四) 附图", "附图", 1, true},
		{"leading whitespace trimmed", "   1. 工程概况  ", "工程概况", 1, true},
		{"decimal number in prose", "1.5米高防护栏杆", "", 0, false},
		{"plain text", "本工程位于某市某区。", "", 0, false},
		{"bare marker", "1、", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, level, ok := MatchHeading(tt.line)
			if ok != tt.wantOK || title != tt.wantTitle || level != tt.wantLevel {
				t.Errorf("MatchHeading(%q) = (%q, %d, %v), want (%q, %d, %v)",
					tt.line, title, level, ok, tt.wantTitle, tt.wantLevel, tt.wantOK)
			}
		})
	}
}

func TestSegment_hierarchy(t *testing.T) {
	text := "技术方案\n" +
		"第一章 编制说明\n" +
		"本方案依据国家规范编制。\n" +
		"\n" +
		"第一节 编制依据\n" +
		"《建筑施工安全检查标准》\n" +
		"第二节 编制范围\n" +
		"主体结构工程\n" +
		"第二章 工程概况\n" +
		"工程名称：某住宅楼\n"

	chapters := Segment(text)
	if len(chapters) != 2 {
		t.Fatalf("got %d chapters, want 2: %+v", len(chapters), chapters)
	}
	first := chapters[0]
	if first.Title != "编制说明" || first.Level != 1 || first.LineNumber != 2 {
		t.Errorf("first chapter = %+v", first)
	}
	if len(first.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(first.Sections))
	}
	if first.Sections[0].Title != "编制依据" || first.Sections[0].LineNumber != 5 || first.Sections[0].Level != 2 {
		t.Errorf("section 0 = %+v", first.Sections[0])
	}
	if first.Sections[0].Content != "第一节 编制依据\n《建筑施工安全检查标准》" {
		t.Errorf("section 0 content = %q", first.Sections[0].Content)
	}
	wantContent := "第一章 编制说明\n本方案依据国家规范编制。\n第一节 编制依据\n《建筑施工安全检查标准》\n第二节 编制范围\n主体结构工程"
	if first.Content != wantContent {
		t.Errorf("chapter content = %q, want %q", first.Content, wantContent)
	}
	if chapters[1].Title != "工程概况" || chapters[1].LineNumber != 9 {
		t.Errorf("second chapter = %+v", chapters[1])
	}
	if len(chapters[1].Sections) != 0 {
		t.Errorf("second chapter should have no sections")
	}
}

func TestSegment_numericHeadings(t *testing.T) {
	text := "1. 工程概况\n1.1 工程简介\n1.2 工程特点\n2、施工部署\n2.1 施工目标\n（一）应急预案"
	chapters := Segment(text)
	if got := models.Titles(chapters); len(got) != 3 || got[0] != "工程概况" || got[1] != "施工部署" || got[2] != "应急预案" {
		t.Fatalf("titles = %v", got)
	}
	if n := len(chapters[0].Sections); n != 2 {
		t.Errorf("chapter 1 sections = %d, want 2", n)
	}
	if n := len(chapters[1].Sections); n != 1 {
		t.Errorf("chapter 2 sections = %d, want 1", n)
	}
	if len(chapters[2].Sections) != 0 {
		t.Errorf("paren heading resets the open section")
	}
}

// A section heading before any chapter is dropped, not buffered or promoted.
func TestSegment_sectionBeforeChapterDropped(t *testing.T) {
	text := "1.1 前言\n第一节 说明\n第一章 编制说明\n1.1 编制依据"
	chapters := Segment(text)
	if len(chapters) != 1 {
		t.Fatalf("got %d chapters, want 1", len(chapters))
	}
	if len(chapters[0].Sections) != 1 || chapters[0].Sections[0].Title != "编制依据" {
		t.Errorf("sections = %+v", chapters[0].Sections)
	}
}

func TestSegment_noHeadings(t *testing.T) {
	for _, text := range []string{"", "\n\n", "只有正文，没有标题。\n第二行"} {
		if chapters := Segment(text); len(chapters) != 0 {
			t.Errorf("Segment(%q) = %+v, want empty", text, chapters)
		}
	}
}

func TestSegment_crlf(t *testing.T) {
	chapters := Segment("第一章 编制说明\r\n内容\r\n第二章 工程概况\r\n")
	if len(chapters) != 2 || chapters[0].Title != "编制说明" || chapters[1].Title != "工程概况" {
		t.Fatalf("chapters = %+v", chapters)
	}
}

func TestSegment_lineNumbersStrictlyIncreasing(t *testing.T) {
	text := "第一章 甲\n1.1 子一\n正文\n1.2 子二\n\n\n2. 乙\n第一节 子三\n第二节 子四\n（一）丙\n3、丁\n3.1 子五"
	chapters := Segment(text)
	assertIncreasing(t, chapters)
	for _, ch := range chapters {
		assertIncreasing(t, ch.Sections)
		for _, s := range ch.Sections {
			if s.Level != 2 || len(s.Sections) != 0 {
				t.Errorf("section %+v must be a level-2 leaf", s)
			}
			if s.LineNumber <= ch.LineNumber {
				t.Errorf("section %q line %d not after chapter line %d", s.Title, s.LineNumber, ch.LineNumber)
			}
		}
	}
}

func assertIncreasing(t *testing.T, siblings []models.Chapter) {
	t.Helper()
	for i := 1; i < len(siblings); i++ {
		if siblings[i].LineNumber <= siblings[i-1].LineNumber {
			t.Errorf("line numbers not increasing: %d then %d", siblings[i-1].LineNumber, siblings[i].LineNumber)
		}
	}
}

func TestCount(t *testing.T) {
	chapters := Segment("第一章 甲\n第一节 子\n第二节 子\n第二章 乙")
	nc, ns := Count(chapters)
	if nc != 2 || ns != 2 {
		t.Errorf("Count = %d, %d", nc, ns)
	}
}
