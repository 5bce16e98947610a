package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mr1hm/go-club-map/internal/models"
	_ "modernc.org/sqlite"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("error creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS schools (
			id TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			coordinates TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS clubs (
			id TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			category TEXT NOT NULL,
			name TEXT NOT NULL,
			subject TEXT NOT NULL,
			location TEXT NOT NULL,
			school_id TEXT NOT NULL,
			target TEXT NOT NULL,
			fee TEXT NOT NULL,
			frequency TEXT NOT NULL,
			status TEXT NOT NULL,
			coordinates TEXT NOT NULL,
			description TEXT,
			apply_method TEXT,
			url TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_schools_position ON schools(position);
		CREATE INDEX IF NOT EXISTS idx_clubs_position ON clubs(position);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting reset: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"clubs", "schools"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("error clearing %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing reset: %w", err)
	}
	return nil
}

func (s *SQLiteDB) AddSchool(ctx context.Context, position int, school *models.School) error {
	coords, err := json.Marshal(school.Coordinates)
	if err != nil {
		return fmt.Errorf("error encoding coordinates for school %s: %w", school.ID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO schools (id, position, name, coordinates) VALUES (?, ?, ?, ?)`,
		school.ID, position, school.Name, string(coords),
	)
	if err != nil {
		return fmt.Errorf("error inserting school %s: %w", school.ID, err)
	}
	return nil
}

func (s *SQLiteDB) AddClub(ctx context.Context, position int, c *models.Club) error {
	coords, err := json.Marshal(c.Coordinates)
	if err != nil {
		return fmt.Errorf("error encoding coordinates for club %s: %w", c.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO clubs (
			id, position, category, name, subject, location, school_id, target,
			fee, frequency, status, coordinates, description, apply_method, url
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, position, string(c.Category), c.Name, c.Subject, c.Location, c.SchoolID, c.Target,
		c.Fee, c.Frequency, string(c.Status), string(coords), c.Description, c.ApplyMethod, c.URL,
	)
	if err != nil {
		return fmt.Errorf("error inserting club %s: %w", c.ID, err)
	}
	return nil
}

func (s *SQLiteDB) SchoolExists(ctx context.Context, id string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM schools WHERE id = ?`, id)
}

func (s *SQLiteDB) ClubExists(ctx context.Context, id string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM clubs WHERE id = ?`, id)
}

func (s *SQLiteDB) exists(ctx context.Context, query, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error checking existence of %s: %w", id, err)
	}
	return true, nil
}

const clubColumns = `id, category, name, subject, location, school_id, target, fee,
	frequency, status, coordinates, description, apply_method, url`

func (s *SQLiteDB) GetClub(ctx context.Context, id string) (*models.Club, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clubColumns+` FROM clubs WHERE id = ?`, id)
	c, err := scanClub(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("club %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *SQLiteDB) ListClubs(ctx context.Context) ([]models.Club, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+clubColumns+` FROM clubs ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("error listing clubs: %w", err)
	}
	defer rows.Close()

	var clubs []models.Club
	for rows.Next() {
		c, err := scanClub(rows)
		if err != nil {
			return nil, err
		}
		clubs = append(clubs, *c)
	}
	return clubs, rows.Err()
}

func (s *SQLiteDB) GetSchool(ctx context.Context, id string) (*models.School, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, coordinates FROM schools WHERE id = ?`, id)
	school, err := scanSchool(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("school %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return school, nil
}

func (s *SQLiteDB) ListSchools(ctx context.Context) ([]models.School, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, coordinates FROM schools ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("error listing schools: %w", err)
	}
	defer rows.Close()

	var schools []models.School
	for rows.Next() {
		school, err := scanSchool(rows)
		if err != nil {
			return nil, err
		}
		schools = append(schools, *school)
	}
	return schools, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClub(row scanner) (*models.Club, error) {
	var (
		c                             models.Club
		category, status, coords      string
		description, applyMethod, url sql.NullString
	)
	err := row.Scan(&c.ID, &category, &c.Name, &c.Subject, &c.Location, &c.SchoolID, &c.Target, &c.Fee,
		&c.Frequency, &status, &coords, &description, &applyMethod, &url)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("error scanning club: %w", err)
	}

	c.Category = models.Category(category)
	c.Status = models.Status(status)
	c.Description = description.String
	c.ApplyMethod = applyMethod.String
	c.URL = url.String
	if err := json.Unmarshal([]byte(coords), &c.Coordinates); err != nil {
		return nil, fmt.Errorf("error decoding coordinates for club %s: %w", c.ID, err)
	}
	return &c, nil
}

func scanSchool(row scanner) (*models.School, error) {
	var (
		school models.School
		coords string
	)
	if err := row.Scan(&school.ID, &school.Name, &coords); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("error scanning school: %w", err)
	}
	if err := json.Unmarshal([]byte(coords), &school.Coordinates); err != nil {
		return nil, fmt.Errorf("error decoding coordinates for school %s: %w", school.ID, err)
	}
	return &school, nil
}
