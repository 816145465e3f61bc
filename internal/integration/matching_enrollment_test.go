package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"volunteer-match/internal/config"
	"volunteer-match/internal/database"
	"volunteer-match/internal/database/migration"
	dbpostgres "volunteer-match/internal/database/postgres"
	"volunteer-match/internal/delivery/http/middleware"
	"volunteer-match/internal/delivery/http/routes"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type semanticResponse struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type seekerMatchItem struct {
	SeekerID      uuid.UUID `json:"seeker_id"`
	SeekerName    string    `json:"seeker_name"`
	SkillScore    float64   `json:"skill_score"`
	DistanceKm    float64   `json:"distance_km"`
	CombinedScore float64   `json:"combined_score"`
	MatchedSkills []string  `json:"matched_skills"`
}

type enrollmentItem struct {
	ID         uuid.UUID  `json:"id"`
	SeekerID   uuid.UUID  `json:"seeker_id"`
	TaskID     uuid.UUID  `json:"task_id"`
	Status     string     `json:"status"`
	ApprovedAt *time.Time `json:"approved_at"`
}

type enrollmentStatusItem struct {
	Enrolled bool   `json:"enrolled"`
	Status   string `json:"status"`
}

func TestIntegration_Refresh_Matches_Enrollment(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db := connectTestDB(t, ctx)
	defer func() { _ = db.Close() }()

	runMigrations(t, ctx, db)

	seed := seedDummyData(t, ctx, db)
	defer cleanupSeed(t, ctx, db, seed)

	app := newTestFiberApp(t, seed.cfg, db)

	// Batch refresh through the trigger endpoint.
	refreshViaAPI(t, app)

	matches := getTaskMatches(t, app, seed.taskID)
	if len(matches) == 0 {
		t.Fatalf("matches: expected non-empty array after refresh")
	}
	assertSortedByScoreDesc(t, matches)

	var near *seekerMatchItem
	for i := range matches {
		if matches[i].SeekerID == seed.nearSeekerID {
			near = &matches[i]
		}
		if matches[i].SeekerID == seed.farSeekerID {
			t.Fatalf("matches: seeker beyond max distance must not appear")
		}
	}
	if near == nil {
		t.Fatalf("matches: expected the nearby seeker to appear")
	}
	if near.SkillScore <= 0 || near.CombinedScore <= 0.1 {
		t.Fatalf("matches: expected positive scores, got skill=%v combined=%v", near.SkillScore, near.CombinedScore)
	}
	if !containsString(near.MatchedSkills, "First Aid") {
		t.Fatalf("matches: expected First Aid in matched_skills, got %v", near.MatchedSkills)
	}

	// Request, conflict on re-request, accept with approved_at.
	created := initiateEnrollment(t, app, seed.nearSeekerID, seed.taskID, 201)
	if created.Status != "requested" {
		t.Fatalf("enrollment: expected requested, got %s", created.Status)
	}

	initiateEnrollment(t, app, seed.nearSeekerID, seed.taskID, 409)

	accepted := transitionEnrollment(t, app, created.ID, "accept", 200)
	if accepted.Status != "enrolled" {
		t.Fatalf("enrollment: expected enrolled after accept, got %s", accepted.Status)
	}
	if accepted.ApprovedAt == nil {
		t.Fatalf("enrollment: expected approved_at after accept")
	}

	st := getEnrollmentStatus(t, app, seed.nearSeekerID, seed.taskID)
	if !st.Enrolled || st.Status != "enrolled" {
		t.Fatalf("enrollment status: expected enrolled, got %+v", st)
	}

	// A second refresh must drop the now-enrolled pair from the cache.
	refreshViaAPI(t, app)
	for _, m := range getTaskMatches(t, app, seed.taskID) {
		if m.SeekerID == seed.nearSeekerID {
			t.Fatalf("matches: enrolled pair must be excluded after refresh")
		}
	}
}

func connectTestDB(t *testing.T, ctx context.Context) database.DB {
	t.Helper()

	host := stringsOrDefault(os.Getenv("VOLMATCH_TEST_DB_HOST"), os.Getenv("DB_HOST"))
	port := stringsOrDefault(os.Getenv("VOLMATCH_TEST_DB_PORT"), os.Getenv("DB_PORT"))
	name := stringsOrDefault(os.Getenv("VOLMATCH_TEST_DB_NAME"), os.Getenv("DB_NAME"))
	user := stringsOrDefault(os.Getenv("VOLMATCH_TEST_DB_USER"), os.Getenv("DB_USER"))
	pass := stringsOrDefault(os.Getenv("VOLMATCH_TEST_DB_PASSWORD"), os.Getenv("DB_PASSWORD"))
	ssl := stringsOrDefault(os.Getenv("VOLMATCH_TEST_DB_SSL_MODE"), os.Getenv("DB_SSL_MODE"))

	if host == "" || port == "" || name == "" || user == "" {
		t.Skip("missing test DB env vars: set VOLMATCH_TEST_DB_HOST/PORT/NAME/USER/PASSWORD (or DB_HOST/DB_PORT/DB_NAME/DB_USER/DB_PASSWORD)")
	}
	if ssl == "" {
		ssl = "disable"
	}

	db, err := dbpostgres.Connect(ctx, config.DatabaseConfig{
		DBHost:     host,
		DBPort:     port,
		DBName:     name,
		DBUser:     user,
		DBPassword: pass,
		DBSSLMode:  ssl,
	})
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return db
}

func runMigrations(t *testing.T, ctx context.Context, db database.DB) {
	t.Helper()

	r := migration.Runner{Dir: resolveMigrationsDir(t)}
	if err := r.Run(ctx, db.SQLDB()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
}

func resolveMigrationsDir(t *testing.T) string {
	t.Helper()

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("resolve migrations dir: runtime.Caller failed")
	}

	root := filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
	migDir := filepath.Join(root, "migrations")

	if st, err := os.Stat(migDir); err != nil || !st.IsDir() {
		t.Fatalf("resolve migrations dir: not found or not a dir: %s", migDir)
	}
	return migDir
}

type seededIDs struct {
	cfg          config.Config
	taskID       uuid.UUID
	nearSeekerID uuid.UUID
	farSeekerID  uuid.UUID
	skillIDs     map[string]uuid.UUID
}

func seedDummyData(t *testing.T, ctx context.Context, db database.DB) seededIDs {
	t.Helper()

	out := seededIDs{
		cfg: config.Config{
			App:      config.AppConfig{AppName: "volunteer-match", Environment: "test", HTTPPort: "0"},
			Matching: testMatchingConfig(),
			Redis:    config.RedisConfig{TTL: time.Minute},
		},
		skillIDs: map[string]uuid.UUID{},
	}

	out.skillIDs["First Aid"] = ensureSkill(t, ctx, db, "First Aid")
	out.skillIDs["Cooking"] = ensureSkill(t, ctx, db, "Cooking")

	out.taskID = ensureTask(t, ctx, db, "it-food-drive@test", "Food drive", "active",
		43.6532, -79.3832, "Toronto, Ontario")

	out.nearSeekerID = ensureSeeker(t, ctx, db, "it-near@test.example", "Near Seeker",
		43.7, -79.4, "Toronto, Ontario")
	out.farSeekerID = ensureSeeker(t, ctx, db, "it-far@test.example", "Far Seeker",
		49.2827, -123.1207, "Vancouver, British Columbia")

	ensureSeekerSkill(t, ctx, db, out.nearSeekerID, out.skillIDs["First Aid"], 0.9)
	ensureSeekerSkill(t, ctx, db, out.farSeekerID, out.skillIDs["First Aid"], 0.9)
	ensureTaskSkill(t, ctx, db, out.taskID, out.skillIDs["First Aid"], 1.0)
	ensureTaskSkill(t, ctx, db, out.taskID, out.skillIDs["Cooking"], 0.4)

	return out
}

func testMatchingConfig() config.MatchingConfig {
	return config.MatchingConfig{
		Scorer:         "sparse",
		VectorDim:      config.DefaultVectorDim,
		MaxDistanceKm:  config.DefaultMaxDistanceKm,
		MinScore:       config.DefaultMinScore,
		DistanceNormKm: config.DefaultDistanceNormKm,
		RefreshLockTTL: time.Minute,
	}
}

func cleanupSeed(t *testing.T, ctx context.Context, db database.DB, seed seededIDs) {
	t.Helper()

	_, _ = db.Exec(ctx, `DELETE FROM task_seeker_matches WHERE task_id = $1`, seed.taskID)
	_, _ = db.Exec(ctx, `DELETE FROM enrollments WHERE task_id = $1`, seed.taskID)
	_, _ = db.Exec(ctx, `DELETE FROM seeker_skills WHERE seeker_id IN ($1, $2)`, seed.nearSeekerID, seed.farSeekerID)
	_, _ = db.Exec(ctx, `DELETE FROM task_skills WHERE task_id = $1`, seed.taskID)
	_, _ = db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, seed.taskID)
	_, _ = db.Exec(ctx, `DELETE FROM seekers WHERE id IN ($1, $2)`, seed.nearSeekerID, seed.farSeekerID)
}

func newTestFiberApp(t *testing.T, cfg config.Config, db database.DB) *fiber.App {
	t.Helper()

	logger := log.New(io.Discard, "", 0)

	app := fiber.New(fiber.Config{})
	app.Use(middleware.NewErrorMiddleware(logger).Middleware())

	routes.NewRegistry(cfg, db, nil, logger).Register(app)
	return app
}

func refreshViaAPI(t *testing.T, app *fiber.App) {
	t.Helper()

	req := httptest.NewRequest("POST", "/api/v1/matches/refresh", nil)
	sr := doRequest(t, app, req)
	if sr.Status != 200 {
		t.Fatalf("refresh: expected status=200, got %d (message=%s)", sr.Status, sr.Message)
	}
}

func getTaskMatches(t *testing.T, app *fiber.App, taskID uuid.UUID) []seekerMatchItem {
	t.Helper()

	req := httptest.NewRequest("GET", "/api/v1/tasks/"+taskID.String()+"/matches?limit=20", nil)
	sr := doRequest(t, app, req)
	if sr.Status != 200 {
		t.Fatalf("matches: expected status=200, got %d (message=%s)", sr.Status, sr.Message)
	}

	var items []seekerMatchItem
	if err := json.Unmarshal(sr.Data, &items); err != nil {
		t.Fatalf("matches: data unmarshal error: %v", err)
	}
	return items
}

func initiateEnrollment(t *testing.T, app *fiber.App, seekerID, taskID uuid.UUID, wantStatus int) enrollmentItem {
	t.Helper()

	body := map[string]any{
		"seeker_id":    seekerID,
		"task_id":      taskID,
		"action":       "request",
		"initiated_by": seekerID,
		"message":      "happy to help",
	}
	b, _ := json.Marshal(body)

	req := httptest.NewRequest("POST", "/api/v1/enrollments/", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")

	sr := doRequest(t, app, req)
	if sr.Status != wantStatus {
		t.Fatalf("initiate: expected status=%d, got %d (message=%s)", wantStatus, sr.Status, sr.Message)
	}
	if wantStatus >= 400 {
		return enrollmentItem{}
	}

	var item enrollmentItem
	if err := json.Unmarshal(sr.Data, &item); err != nil {
		t.Fatalf("initiate: data unmarshal error: %v", err)
	}
	return item
}

func transitionEnrollment(t *testing.T, app *fiber.App, id uuid.UUID, action string, wantStatus int) enrollmentItem {
	t.Helper()

	b, _ := json.Marshal(map[string]string{"action": action})
	req := httptest.NewRequest("POST", "/api/v1/enrollments/"+id.String()+"/transition", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")

	sr := doRequest(t, app, req)
	if sr.Status != wantStatus {
		t.Fatalf("transition %s: expected status=%d, got %d (message=%s)", action, wantStatus, sr.Status, sr.Message)
	}

	var item enrollmentItem
	if wantStatus < 400 {
		if err := json.Unmarshal(sr.Data, &item); err != nil {
			t.Fatalf("transition: data unmarshal error: %v", err)
		}
	}
	return item
}

func getEnrollmentStatus(t *testing.T, app *fiber.App, seekerID, taskID uuid.UUID) enrollmentStatusItem {
	t.Helper()

	req := httptest.NewRequest("GET",
		"/api/v1/enrollments/status?seeker_id="+seekerID.String()+"&task_id="+taskID.String(), nil)
	sr := doRequest(t, app, req)
	if sr.Status != 200 {
		t.Fatalf("status: expected status=200, got %d (message=%s)", sr.Status, sr.Message)
	}

	var item enrollmentStatusItem
	if err := json.Unmarshal(sr.Data, &item); err != nil {
		t.Fatalf("status: data unmarshal error: %v", err)
	}
	return item
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) semanticResponse {
	t.Helper()

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request %s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		t.Fatalf("decode %s %s: %v", req.Method, req.URL.Path, err)
	}
	return sr
}

func assertSortedByScoreDesc(t *testing.T, items []seekerMatchItem) {
	t.Helper()

	for i := 1; i < len(items); i++ {
		if items[i].CombinedScore > items[i-1].CombinedScore {
			t.Fatalf("matches: expected combined_score descending at idx=%d", i)
		}
	}
}

func containsString(items []string, want string) bool {
	for _, it := range items {
		if it == want {
			return true
		}
	}
	return false
}

func ensureSkill(t *testing.T, ctx context.Context, db database.DB, name string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(ctx,
		`INSERT INTO skills (id, name, category) VALUES ($1,$2,$3)
		 ON CONFLICT (name) DO NOTHING`,
		id, name, "Integration",
	)
	if err != nil {
		t.Fatalf("seed skill %s: %v", name, err)
	}

	row := db.QueryRow(ctx, `SELECT id FROM skills WHERE name = $1 LIMIT 1`, name)
	var got uuid.UUID
	if err := row.Scan(&got); err != nil {
		t.Fatalf("seed skill select %s: %v", name, err)
	}
	return got
}

func ensureSeeker(t *testing.T, ctx context.Context, db database.DB, email, name string, lat, lon float64, location string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(ctx,
		`INSERT INTO seekers (id, name, email, latitude, longitude, location_name)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (email) DO UPDATE SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			location_name = EXCLUDED.location_name`,
		id, name, email, lat, lon, location,
	)
	if err != nil {
		t.Fatalf("seed seeker %s: %v", email, err)
	}

	row := db.QueryRow(ctx, `SELECT id FROM seekers WHERE email = $1 LIMIT 1`, email)
	var got uuid.UUID
	if err := row.Scan(&got); err != nil {
		t.Fatalf("seed seeker select %s: %v", email, err)
	}
	return got
}

func ensureTask(t *testing.T, ctx context.Context, db database.DB, marker, name, status string, lat, lon float64, location string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(ctx,
		`INSERT INTO tasks (id, name, description, latitude, longitude, location_name, status)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		id, name, marker, lat, lon, location, status,
	)
	if err != nil {
		t.Fatalf("seed task %s: %v", name, err)
	}
	return id
}

func ensureSeekerSkill(t *testing.T, ctx context.Context, db database.DB, seekerID, skillID uuid.UUID, score float64) {
	t.Helper()

	_, err := db.Exec(ctx,
		`INSERT INTO seeker_skills (id, seeker_id, skill_id, claimed, score)
		 VALUES ($1,$2,$3,TRUE,$4)
		 ON CONFLICT (seeker_id, skill_id) DO UPDATE SET
			claimed = TRUE, score = EXCLUDED.score`,
		uuid.New(), seekerID, skillID, score,
	)
	if err != nil {
		t.Fatalf("seed seeker_skill: %v", err)
	}
}

func ensureTaskSkill(t *testing.T, ctx context.Context, db database.DB, taskID, skillID uuid.UUID, weight float64) {
	t.Helper()

	_, err := db.Exec(ctx,
		`INSERT INTO task_skills (id, task_id, skill_id, required, weight)
		 VALUES ($1,$2,$3,FALSE,$4)
		 ON CONFLICT (task_id, skill_id) DO UPDATE SET weight = EXCLUDED.weight`,
		uuid.New(), taskID, skillID, weight,
	)
	if err != nil {
		t.Fatalf("seed task_skill: %v", err)
	}
}

func stringsOrDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
