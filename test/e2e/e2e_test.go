package e2e

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/planreview/internal/config"
	"github.com/hyperjump/planreview/internal/library"
	"github.com/hyperjump/planreview/internal/models"
	"github.com/hyperjump/planreview/internal/report"
	"github.com/hyperjump/planreview/internal/rules"
	"github.com/hyperjump/planreview/internal/service"
	"github.com/hyperjump/planreview/internal/standards"
	"github.com/hyperjump/planreview/internal/storage"
)

func newService(t *testing.T) (*service.Service, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Storage: config.StorageConfig{
			DatabasePath:       filepath.Join(dir, "db", "planreview.db"),
			UploadDir:          filepath.Join(dir, "uploads"),
			ReportDir:          filepath.Join(dir, "reports"),
			StandardsIndexPath: filepath.Join(dir, "standards"),
		},
	}
	config.ApplyDefaults(cfg)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	idx, err := standards.NewIndex(cfg.Storage.StandardsIndexPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = idx.Close() })

	lib, err := library.Default()
	if err != nil {
		t.Fatal(err)
	}
	svc, err := service.New(cfg, store, lib, service.WithLogger(zap.NewNop()), service.WithStandardsIndex(idx))
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.LoadRules(context.Background()); err != nil {
		t.Fatal(err)
	}
	return svc, cfg
}

func TestE2E_ReviewCorpusInEveryFormat(t *testing.T) {
	svc, cfg := newService(t)
	ctx := context.Background()

	for _, p := range BuildCorpus() {
		p := p
		t.Run(p.Name, func(t *testing.T) {
			project, err := svc.CreateProject(ctx, p.Name, "")
			if err != nil {
				t.Fatal(err)
			}
			scores := make(map[string]int)
			for _, ext := range SupportedFileExtensions {
				content, err := WriteProposal(ext, p.Text)
				if err != nil {
					t.Fatalf("%s: WriteProposal: %v", ext, err)
				}
				doc, err := svc.UploadDocument(ctx, project.ID, p.Name+ext, bytes.NewReader(content))
				if err != nil {
					t.Fatalf("%s: upload: %v", ext, err)
				}
				if _, err := svc.ParseDocument(ctx, doc.ID); err != nil {
					t.Fatalf("%s: parse: %v", ext, err)
				}
				rec, err := svc.ReviewDocument(ctx, doc.ID)
				if err != nil {
					t.Fatalf("%s: review: %v", ext, err)
				}
				checkReview(t, ext, p, rec)
				scores[ext] = rec.Score

				if _, err := os.Stat(filepath.Join(cfg.Storage.ReportDir, "report_"+rec.ID+".json")); err != nil {
					t.Errorf("%s: report file: %v", ext, err)
				}
			}
			for ext, score := range scores {
				if score != scores[".txt"] {
					t.Errorf("%s score %d differs from .txt score %d", ext, score, scores[".txt"])
				}
			}

			reviews, err := svc.ListReviews(ctx, project.ID)
			if err != nil {
				t.Fatal(err)
			}
			if len(reviews) != len(SupportedFileExtensions) {
				t.Errorf("reviews = %d, want %d", len(reviews), len(SupportedFileExtensions))
			}
		})
	}
}

func checkReview(t *testing.T, ext string, p Proposal, rec *models.ReviewRecord) {
	t.Helper()
	if p.Score > 0 && rec.Score != p.Score {
		t.Errorf("%s: score = %d, want %d", ext, rec.Score, p.Score)
	}
	if rec.Score > p.MaxScore {
		t.Errorf("%s: score = %d, want at most %d", ext, rec.Score, p.MaxScore)
	}
	if p.Verdict != "" && models.Verdict(rec.Status) != p.Verdict {
		t.Errorf("%s: verdict = %s, want %s", ext, rec.Status, p.Verdict)
	}
	missing := make(map[string]bool)
	for _, title := range rec.Result.Completeness.Missing {
		missing[title] = true
	}
	for _, title := range p.Missing {
		if !missing[title] {
			t.Errorf("%s: %s not reported missing (missing: %v)", ext, title, rec.Result.Completeness.Missing)
		}
	}
	triggered := ruleNames(rec.Result, rules.FindingType)
	for _, name := range p.Triggered {
		if !triggered[name] {
			t.Errorf("%s: rule %s did not fire", ext, name)
		}
	}
}

func TestE2E_ExportEveryFormat(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, "某某大厦", "")
	if err != nil {
		t.Fatal(err)
	}
	doc, err := svc.UploadDocument(ctx, project.ID, "plan.txt", bytes.NewReader([]byte(compliantProposal)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ParseDocument(ctx, doc.ID); err != nil {
		t.Fatal(err)
	}
	rec, err := svc.ReviewDocument(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}

	for _, f := range []report.Format{report.FormatJSON, report.FormatText, report.FormatPDF} {
		var buf bytes.Buffer
		if err := svc.ExportReport(ctx, rec.ID, f, &buf); err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		if buf.Len() == 0 {
			t.Errorf("%s: empty export", f)
		}
	}
}

func TestE2E_StandardToRules(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	st, err := svc.AddStandard(ctx, "", "安全", "高处作业安全规范.txt",
		bytes.NewReader([]byte("高处作业必须落实安全防护措施，建立安全管理制度。")))
	if err != nil {
		t.Fatal(err)
	}
	hits, err := svc.SearchStandards(ctx, "高处作业", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != st.ID {
		t.Fatalf("hits = %+v", hits)
	}

	records, err := svc.GenerateRules(ctx, st.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) == 0 || !records[0].Active {
		t.Fatalf("records = %+v", records)
	}
	found := false
	for _, r := range svc.Engine().Rules() {
		if r.Name == records[0].Rule.Name {
			found = true
		}
	}
	if !found {
		t.Errorf("generated rule %s not loaded into the engine", records[0].Rule.Name)
	}
}
