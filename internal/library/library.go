// Package library holds the review-point catalog: the chapters a proposal must
// contain and the content each chapter is expected to cover. A Library is
// validated when it is built and is read-only afterwards.
package library

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/planreview/internal/models"
)

// CompletenessKey is the distinguished chapter key whose single point lists the
// canonical required chapter titles.
const CompletenessKey = "文档完整性"

//go:embed default_library.yaml
var defaultCatalog []byte

// RequiredChapter is a canonical chapter title and the keyword bundle used to
// recognise it in a document outline.
type RequiredChapter struct {
	Title    string   `json:"title"`
	Keywords []string `json:"keywords"`
}

// Chapter is the library entry for one canonical chapter.
type Chapter struct {
	Key      string               `json:"key"`
	Keywords []string             `json:"keywords"`
	Points   []models.ReviewPoint `json:"points"`
}

// Library is an immutable, ordered review-point catalog.
type Library struct {
	version      string
	completeness models.ReviewPoint
	required     []RequiredChapter
	chapters     []Chapter
	byKey        map[string]int
}

type catalogFile struct {
	Version      string `yaml:"version"`
	Completeness struct {
		Key              string `yaml:"key"`
		Point            string `yaml:"point"`
		ReviewFocus      string `yaml:"review_focus"`
		Severity         string `yaml:"severity"`
		RequiredChapters []struct {
			Title    string   `yaml:"title"`
			Keywords []string `yaml:"keywords"`
		} `yaml:"required_chapters"`
	} `yaml:"completeness"`
	Chapters []struct {
		Key      string   `yaml:"key"`
		Keywords []string `yaml:"keywords"`
		Points   []struct {
			Name            string   `yaml:"name"`
			RequiredContent []string `yaml:"required_content"`
			ReviewFocus     string   `yaml:"review_focus"`
			Severity        string   `yaml:"severity"`
		} `yaml:"points"`
	} `yaml:"chapters"`
}

// Default returns the built-in catalog.
func Default() (*Library, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read review point library: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Library, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse review point library: %w", err)
	}
	if f.Completeness.Key != "" && f.Completeness.Key != CompletenessKey {
		return nil, fmt.Errorf("completeness key must be %q, got %q", CompletenessKey, f.Completeness.Key)
	}

	required := make([]RequiredChapter, 0, len(f.Completeness.RequiredChapters))
	for _, rc := range f.Completeness.RequiredChapters {
		required = append(required, RequiredChapter{Title: rc.Title, Keywords: rc.Keywords})
	}
	chapters := make([]Chapter, 0, len(f.Chapters))
	for _, c := range f.Chapters {
		ch := Chapter{Key: c.Key, Keywords: c.Keywords}
		for _, p := range c.Points {
			ch.Points = append(ch.Points, models.ReviewPoint{
				ChapterKey:      c.Key,
				Name:            p.Name,
				RequiredContent: p.RequiredContent,
				ReviewFocus:     p.ReviewFocus,
				Severity:        models.ParseSeverity(p.Severity),
			})
		}
		chapters = append(chapters, ch)
	}

	lib, err := New(f.Version, required, chapters)
	if err != nil {
		return nil, err
	}
	if f.Completeness.Point != "" {
		lib.completeness.Name = f.Completeness.Point
	}
	lib.completeness.ReviewFocus = strings.TrimSpace(f.Completeness.ReviewFocus)
	if f.Completeness.Severity != "" {
		lib.completeness.Severity = models.ParseSeverity(f.Completeness.Severity)
	}
	return lib, nil
}

// New validates and builds a library. Required-chapter keyword bundles default
// to the title itself and chapter resolution bundles default to the key.
func New(version string, required []RequiredChapter, chapters []Chapter) (*Library, error) {
	lib := &Library{
		version: strings.TrimSpace(version),
		byKey:   make(map[string]int, len(chapters)),
	}

	titles := make([]string, 0, len(required))
	for i, rc := range required {
		title := strings.TrimSpace(rc.Title)
		if title == "" {
			return nil, fmt.Errorf("required chapter %d: title is empty", i)
		}
		keywords := cleanList(rc.Keywords)
		if len(keywords) == 0 {
			keywords = []string{title}
		}
		lib.required = append(lib.required, RequiredChapter{Title: title, Keywords: keywords})
		titles = append(titles, title)
	}
	lib.completeness = models.ReviewPoint{
		ChapterKey:      CompletenessKey,
		Name:            "必含章节",
		RequiredContent: titles,
		Severity:        models.SeveritySevere,
	}

	for i, c := range chapters {
		key := strings.TrimSpace(c.Key)
		if key == "" {
			return nil, fmt.Errorf("chapter %d: key is empty", i)
		}
		if key == CompletenessKey {
			return nil, fmt.Errorf("chapter %d: key %q is reserved", i, key)
		}
		if _, dup := lib.byKey[key]; dup {
			return nil, fmt.Errorf("chapter %q: duplicate key", key)
		}
		keywords := cleanList(c.Keywords)
		if len(keywords) == 0 {
			keywords = []string{key}
		}
		entry := Chapter{Key: key, Keywords: keywords}
		for j, p := range c.Points {
			name := strings.TrimSpace(p.Name)
			if name == "" {
				return nil, fmt.Errorf("chapter %q point %d: name is empty", key, j)
			}
			entry.Points = append(entry.Points, models.ReviewPoint{
				ChapterKey:      key,
				Name:            name,
				RequiredContent: cleanList(p.RequiredContent),
				ReviewFocus:     strings.TrimSpace(p.ReviewFocus),
				Severity:        models.ParseSeverity(string(p.Severity)),
			})
		}
		lib.byKey[key] = len(lib.chapters)
		lib.chapters = append(lib.chapters, entry)
	}
	return lib, nil
}

// WithPoints returns a copy of the library extended with externally supplied
// review points. Points for an unknown chapter key create a new chapter entry.
func (l *Library) WithPoints(points []models.ReviewPoint) (*Library, error) {
	chapters := l.Chapters()
	index := make(map[string]int, len(chapters))
	for i, c := range chapters {
		index[c.Key] = i
	}
	for _, p := range points {
		key := strings.TrimSpace(p.ChapterKey)
		i, ok := index[key]
		if !ok {
			index[key] = len(chapters)
			chapters = append(chapters, Chapter{Key: key})
			i = len(chapters) - 1
		}
		chapters[i].Points = append(chapters[i].Points, p)
	}
	lib, err := New(l.version, l.RequiredChapters(), chapters)
	if err != nil {
		return nil, err
	}
	lib.completeness = l.completeness
	return lib, nil
}

// Version returns the catalog version string.
func (l *Library) Version() string { return l.version }

// RequiredChapters returns the canonical required chapters in order.
func (l *Library) RequiredChapters() []RequiredChapter {
	out := make([]RequiredChapter, len(l.required))
	for i, rc := range l.required {
		out[i] = RequiredChapter{Title: rc.Title, Keywords: append([]string(nil), rc.Keywords...)}
	}
	return out
}

// Chapters returns the chapter entries in catalog order.
func (l *Library) Chapters() []Chapter {
	out := make([]Chapter, len(l.chapters))
	for i, c := range l.chapters {
		out[i] = Chapter{
			Key:      c.Key,
			Keywords: append([]string(nil), c.Keywords...),
			Points:   copyPoints(c.Points),
		}
	}
	return out
}

// ByChapter returns the review points for a canonical chapter key.
func (l *Library) ByChapter(key string) ([]models.ReviewPoint, bool) {
	if key == CompletenessKey {
		return copyPoints([]models.ReviewPoint{l.completeness}), true
	}
	i, ok := l.byKey[key]
	if !ok {
		return nil, false
	}
	return copyPoints(l.chapters[i].Points), true
}

// All returns every chapter key, including CompletenessKey, mapped to its points.
func (l *Library) All() map[string][]models.ReviewPoint {
	out := make(map[string][]models.ReviewPoint, len(l.chapters)+1)
	out[CompletenessKey] = copyPoints([]models.ReviewPoint{l.completeness})
	for _, c := range l.chapters {
		out[c.Key] = copyPoints(c.Points)
	}
	return out
}

func copyPoints(points []models.ReviewPoint) []models.ReviewPoint {
	if points == nil {
		return nil
	}
	out := make([]models.ReviewPoint, len(points))
	for i, p := range points {
		p.RequiredContent = append([]string(nil), p.RequiredContent...)
		out[i] = p
	}
	return out
}

func cleanList(items []string) []string {
	var out []string
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
