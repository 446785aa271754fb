package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/planreview/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		project_type TEXT,
		status TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_projects_created_at ON projects(created_at);

	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		file_name TEXT NOT NULL,
		file_path TEXT NOT NULL,
		file_type TEXT,
		file_size INTEGER,
		parse_status TEXT NOT NULL,
		content TEXT,
		chapters TEXT,
		parsed_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_documents_project_id ON documents(project_id);

	CREATE TABLE IF NOT EXISTS reviews (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		document_id TEXT NOT NULL,
		review_type TEXT,
		score INTEGER NOT NULL,
		status TEXT,
		result TEXT NOT NULL,
		report TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE,
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_reviews_project_id ON reviews(project_id);

	CREATE TABLE IF NOT EXISTS standards (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT,
		file_name TEXT,
		content TEXT,
		status TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS rules (
		id TEXT PRIMARY KEY,
		standard_id TEXT,
		rule_name TEXT NOT NULL,
		rule_type TEXT NOT NULL,
		rule_pattern TEXT,
		severity TEXT NOT NULL,
		description TEXT,
		required_content TEXT,
		review_focus TEXT,
		priority INTEGER DEFAULT 0,
		is_active INTEGER DEFAULT 1,
		is_ai_generated INTEGER DEFAULT 0,
		ai_model TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_rules_active ON rules(is_active, priority);
	`
	_, err := db.Exec(schema)
	return err
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// CreateProject inserts a project.
func (s *SQLiteStorage) CreateProject(ctx context.Context, p *models.Project) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, project_type, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Type, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

// GetProject returns a project by ID.
func (s *SQLiteStorage) GetProject(ctx context.Context, id string) (*models.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx,
		`SELECT id, name, project_type, status, created_at, updated_at
		 FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("project", id)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProjectStatus sets the review status of a project.
func (s *SQLiteStorage) UpdateProjectStatus(ctx context.Context, id, status string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE projects SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("project", id)
	}
	return nil
}

// ListProjects returns projects, newest first, with offset and limit.
func (s *SQLiteStorage) ListProjects(ctx context.Context, offset, limit int) ([]*models.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, project_type, status, created_at, updated_at
		 FROM projects ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func scanProject(row scanner) (*models.Project, error) {
	var p models.Project
	var projectType sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &projectType, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Type = projectType.String
	return &p, nil
}

const documentColumns = `id, project_id, file_name, file_path, file_type, file_size, parse_status, content, chapters, parsed_at, created_at`

// CreateDocument inserts a document.
func (s *SQLiteStorage) CreateDocument(ctx context.Context, doc *models.Document) error {
	chaptersJSON, err := marshalNullable(doc.Chapters)
	if err != nil {
		return fmt.Errorf("failed to marshal chapters: %w", err)
	}
	doc.CreatedAt = time.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (`+documentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.ProjectID, doc.FileName, doc.FilePath, doc.FileType, doc.FileSize,
		doc.ParseStatus, doc.Content, chaptersJSON, doc.ParsedAt, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// GetDocument returns a document by ID.
func (s *SQLiteStorage) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	doc, err := scanDocument(s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("document", id)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateDocument stores the parse outcome of a document.
func (s *SQLiteStorage) UpdateDocument(ctx context.Context, doc *models.Document) error {
	chaptersJSON, err := marshalNullable(doc.Chapters)
	if err != nil {
		return fmt.Errorf("failed to marshal chapters: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE documents SET parse_status = ?, content = ?, chapters = ?, parsed_at = ?
		 WHERE id = ?`,
		doc.ParseStatus, doc.Content, chaptersJSON, doc.ParsedAt, doc.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("document", doc.ID)
	}
	return nil
}

// ListDocumentsByProject returns the documents of a project in upload order.
func (s *SQLiteStorage) ListDocumentsByProject(ctx context.Context, projectID string) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE project_id = ? ORDER BY created_at`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func scanDocument(row scanner) (*models.Document, error) {
	var (
		doc                       models.Document
		fileType, content, chJSON sql.NullString
		fileSize                  sql.NullInt64
		parsedAt                  sql.NullTime
	)
	err := row.Scan(&doc.ID, &doc.ProjectID, &doc.FileName, &doc.FilePath, &fileType, &fileSize,
		&doc.ParseStatus, &content, &chJSON, &parsedAt, &doc.CreatedAt)
	if err != nil {
		return nil, err
	}
	doc.FileType = fileType.String
	doc.FileSize = fileSize.Int64
	doc.Content = content.String
	if parsedAt.Valid {
		t := parsedAt.Time
		doc.ParsedAt = &t
	}
	if chJSON.Valid && chJSON.String != "" {
		if err := json.Unmarshal([]byte(chJSON.String), &doc.Chapters); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chapters: %w", err)
		}
	}
	return &doc, nil
}

const reviewColumns = `id, project_id, document_id, review_type, score, status, result, report, created_at`

// CreateReview inserts a review record.
func (s *SQLiteStorage) CreateReview(ctx context.Context, r *models.ReviewRecord) error {
	resultJSON, err := json.Marshal(r.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal review result: %w", err)
	}
	var report any
	if len(r.Report) > 0 {
		report = string(r.Report)
	}
	r.CreatedAt = time.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reviews (`+reviewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ProjectID, r.DocumentID, r.ReviewType, r.Score, r.Status,
		string(resultJSON), report, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

// GetReview returns a review by ID.
func (s *SQLiteStorage) GetReview(ctx context.Context, id string) (*models.ReviewRecord, error) {
	r, err := scanReview(s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("review", id)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListReviewsByProject returns the reviews of a project, newest first.
func (s *SQLiteStorage) ListReviewsByProject(ctx context.Context, projectID string) ([]*models.ReviewRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE project_id = ? ORDER BY created_at DESC`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*models.ReviewRecord
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func scanReview(row scanner) (*models.ReviewRecord, error) {
	var (
		r                  models.ReviewRecord
		reviewType, status sql.NullString
		resultJSON         string
		report             sql.NullString
	)
	err := row.Scan(&r.ID, &r.ProjectID, &r.DocumentID, &reviewType, &r.Score, &status,
		&resultJSON, &report, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.ReviewType = reviewType.String
	r.Status = status.String
	if err := json.Unmarshal([]byte(resultJSON), &r.Result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal review result: %w", err)
	}
	if report.Valid && report.String != "" {
		r.Report = json.RawMessage(report.String)
	}
	return &r, nil
}

const standardColumns = `id, name, category, file_name, content, status, created_at`

// CreateStandard inserts a standard.
func (s *SQLiteStorage) CreateStandard(ctx context.Context, st *models.Standard) error {
	st.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO standards (`+standardColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.Name, st.Category, st.FileName, st.Content, st.Status, st.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert standard: %w", err)
	}
	return nil
}

// GetStandard returns a standard by ID.
func (s *SQLiteStorage) GetStandard(ctx context.Context, id string) (*models.Standard, error) {
	st, err := scanStandard(s.db.QueryRowContext(ctx,
		`SELECT `+standardColumns+` FROM standards WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("standard", id)
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// ListStandards returns standards, optionally restricted to one category.
func (s *SQLiteStorage) ListStandards(ctx context.Context, category string) ([]*models.Standard, error) {
	query := `SELECT ` + standardColumns + ` FROM standards`
	var args []any
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var standards []*models.Standard
	for rows.Next() {
		st, err := scanStandard(rows)
		if err != nil {
			return nil, err
		}
		standards = append(standards, st)
	}
	return standards, rows.Err()
}

func scanStandard(row scanner) (*models.Standard, error) {
	var (
		st                                  models.Standard
		category, fileName, content, status sql.NullString
	)
	if err := row.Scan(&st.ID, &st.Name, &category, &fileName, &content, &status, &st.CreatedAt); err != nil {
		return nil, err
	}
	st.Category = category.String
	st.FileName = fileName.String
	st.Content = content.String
	st.Status = status.String
	return &st, nil
}

const ruleColumns = `id, standard_id, rule_name, rule_type, rule_pattern, severity, description,
	required_content, review_focus, priority, is_active, is_ai_generated, ai_model, created_at, updated_at`

// CreateRule inserts a rule.
func (s *SQLiteStorage) CreateRule(ctx context.Context, r *models.RuleRecord) error {
	required, err := marshalNullable(r.RequiredContent)
	if err != nil {
		return fmt.Errorf("failed to marshal required content: %w", err)
	}
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rules (`+ruleColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StandardID, r.Rule.Name, string(r.Rule.Kind), r.Rule.Pattern, string(r.Rule.Severity),
		r.Rule.Description, required, r.ReviewFocus, r.Priority, r.Active, r.AIGenerated, r.AIModel,
		r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}
	return nil
}

// GetRule returns a rule by ID.
func (s *SQLiteStorage) GetRule(ctx context.Context, id string) (*models.RuleRecord, error) {
	r, err := scanRule(s.db.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM rules WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("rule", id)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateRule updates an existing rule.
func (s *SQLiteStorage) UpdateRule(ctx context.Context, r *models.RuleRecord) error {
	required, err := marshalNullable(r.RequiredContent)
	if err != nil {
		return fmt.Errorf("failed to marshal required content: %w", err)
	}
	r.UpdatedAt = time.Now()
	result, err := s.db.ExecContext(ctx,
		`UPDATE rules SET rule_name = ?, rule_type = ?, rule_pattern = ?, severity = ?, description = ?,
		 required_content = ?, review_focus = ?, priority = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		r.Rule.Name, string(r.Rule.Kind), r.Rule.Pattern, string(r.Rule.Severity), r.Rule.Description,
		required, r.ReviewFocus, r.Priority, r.Active, r.UpdatedAt, r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("rule", r.ID)
	}
	return nil
}

// DeleteRule removes a rule by ID.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("rule", id)
	}
	return nil
}

// ListRules returns rules by descending priority, then creation order.
func (s *SQLiteStorage) ListRules(ctx context.Context, activeOnly bool) ([]*models.RuleRecord, error) {
	query := `SELECT ` + ruleColumns + ` FROM rules`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY priority DESC, created_at, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*models.RuleRecord
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func scanRule(row scanner) (*models.RuleRecord, error) {
	var (
		r                                                 models.RuleRecord
		standardID, pattern, description, required, focus sql.NullString
		aiModel, kind, severity                           sql.NullString
	)
	err := row.Scan(&r.ID, &standardID, &r.Rule.Name, &kind, &pattern, &severity, &description,
		&required, &focus, &r.Priority, &r.Active, &r.AIGenerated, &aiModel, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.StandardID = standardID.String
	r.Rule.Kind = models.ParseRuleKind(kind.String)
	r.Rule.Pattern = pattern.String
	r.Rule.Severity = models.ParseSeverity(severity.String)
	r.Rule.Description = description.String
	r.ReviewFocus = focus.String
	r.AIModel = aiModel.String
	if required.Valid && required.String != "" {
		if err := json.Unmarshal([]byte(required.String), &r.RequiredContent); err != nil {
			return nil, fmt.Errorf("failed to unmarshal required content: %w", err)
		}
	}
	return &r, nil
}

// CountProjects returns the total number of projects.
func (s *SQLiteStorage) CountProjects(ctx context.Context) (int64, error) {
	return s.count(ctx, "projects")
}

// CountDocuments returns the total number of documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	return s.count(ctx, "documents")
}

// CountReviews returns the total number of reviews.
func (s *SQLiteStorage) CountReviews(ctx context.Context) (int64, error) {
	return s.count(ctx, "reviews")
}

func (s *SQLiteStorage) count(ctx context.Context, table string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// marshalNullable encodes v as JSON, or NULL when v is an empty slice.
func marshalNullable[T any](v []T) (any, error) {
	if len(v) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
