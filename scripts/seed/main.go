// Seeds a development database with an admin account, a sample catalog
// and an open semester. Safe to run repeatedly.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/judy4534/studentSystem/pkg/config"
	"github.com/judy4534/studentSystem/pkg/database"
)

func main() {
	var adminEmail, adminPassword string
	flag.StringVar(&adminEmail, "admin-email", "admin@university.edu", "seeded admin email")
	flag.StringVar(&adminPassword, "admin-password", "admin12345", "seeded admin password")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := seed(ctx, db, adminEmail, adminPassword); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	log.Println("seed complete")
}

func seed(ctx context.Context, db *sqlx.DB, adminEmail, adminPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	deptID := uuid.NewString()
	if err := upsert(ctx, db, `
		INSERT INTO departments (id, name, head, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (name) DO NOTHING`,
		deptID, "علوم الحاسوب", "د. أحمد خليل"); err != nil {
		return err
	}

	if err := upsert(ctx, db, `
		INSERT INTO users (id, email, password_hash, full_name, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'ADMIN', TRUE, NOW(), NOW())
		ON CONFLICT (email) DO NOTHING`,
		uuid.NewString(), adminEmail, string(hash), "مدير النظام"); err != nil {
		return err
	}

	courses := []struct {
		code          string
		name          string
		credits       int
		prerequisites []string
	}{
		{"CS101", "مقدمة في البرمجة", 3, nil},
		{"CS201", "هياكل البيانات", 3, []string{"CS101"}},
		{"CS301", "قواعد البيانات", 4, []string{"CS201"}},
		{"MATH101", "رياضيات 1", 3, nil},
	}
	for _, c := range courses {
		prereqs := c.prerequisites
		if prereqs == nil {
			prereqs = []string{}
		}
		if err := upsert(ctx, db, `
			INSERT INTO courses (id, code, name, credits, department_id, prerequisites, program, created_at, updated_at)
			VALUES ($1, $2, $3, $4, (SELECT id FROM departments WHERE name = $5), $6, 'بكالوريوس', NOW(), NOW())
			ON CONFLICT (code) DO NOTHING`,
			uuid.NewString(), c.code, c.name, c.credits, "علوم الحاسوب", pq.Array(prereqs)); err != nil {
			return err
		}
	}

	return upsert(ctx, db, `
		INSERT INTO semesters (id, name, status, start_date, end_date, grade_submission_deadline, created_at, updated_at)
		VALUES ($1, $2, 'OPEN', NOW(), NOW() + INTERVAL '120 days', NOW() + INTERVAL '135 days', NOW(), NOW())
		ON CONFLICT (name) DO NOTHING`,
		uuid.NewString(), "الفصل الأول 2026/2027")
}

func upsert(ctx context.Context, db *sqlx.DB, query string, args ...interface{}) error {
	_, err := db.ExecContext(ctx, query, args...)
	return err
}
