package repository

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/rktclgh/fairplay-banner/config"
	"github.com/rktclgh/fairplay-banner/internal/database"
	"github.com/rktclgh/fairplay-banner/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// testDB 是測試用的資料庫連接池
var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	cfg := config.LoadTestConfig()

	var err error
	testDB, err = database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize test database: %v", err)
	}

	if err := testDB.Ping(context.Background()); err != nil {
		log.Fatalf("Failed to ping test database: %v", err)
	}

	log.Println("Test database connected successfully")
	log.Println("Running repository tests...")

	code := m.Run()
	testDB.Close()
	log.Println("Test database closed")

	os.Exit(code)
}

func setupTestWithTruncate(t *testing.T) func() {
	t.Helper()
	ctx := context.Background()

	// 清空所有測試資料，保留 schema
	_, err := testDB.Exec(ctx, "TRUNCATE application_slots, banners, applications, slots, banner_types RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}

	return func() {
	}
}

// setupTestWithTransaction 使用 Transaction Rollback 方式
// 適合測試 transaction 相關的邏輯
func setupTestWithTransaction(t *testing.T) (pgx.Tx, func()) {
	t.Helper()
	ctx := context.Background()

	tx, err := testDB.Begin(ctx)
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}

	cleanup := func() {
		if err := tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
			t.Logf("Warning: failed to rollback transaction: %v", err)
		}
	}

	return tx, cleanup
}

func getTestDB() *pgxpool.Pool {
	if testDB == nil {
		panic("testDB is not initialized. Make sure TestMain has run.")
	}
	return testDB
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("Failed to parse date %q: %v", value, err)
	}
	return date
}

// createTestBannerType 輔助函數：創建測試用的版型
func createTestBannerType(t *testing.T, name string) int {
	t.Helper()
	ctx := context.Background()

	query := `
		INSERT INTO banner_types (banner_type_id, name, width, height)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int
	err := testDB.QueryRow(ctx, query, uuid.New(), name, 728, 90).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test banner type: %v", err)
	}

	return id
}

// createTestSlot 輔助函數：創建可用狀態的測試版位
func createTestSlot(t *testing.T, bannerTypeID int, date string, priority int, price float64) int {
	t.Helper()
	ctx := context.Background()

	query := `
		INSERT INTO slots (banner_type_id, slot_date, priority, quota, price)
		VALUES ($1, $2, $3, 1, $4)
		RETURNING id
	`

	var id int
	err := testDB.QueryRow(ctx, query, bannerTypeID, mustDate(t, date), priority, price).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test slot: %v", err)
	}

	return id
}

// createTestLockedSlot 輔助函數：創建已被 holder 鎖定的測試版位
func createTestLockedSlot(t *testing.T, bannerTypeID int, date string, priority int, holderID int, lockedUntil time.Time) int {
	t.Helper()
	ctx := context.Background()

	query := `
		INSERT INTO slots (banner_type_id, slot_date, priority, quota, price, status, locked_by, locked_until)
		VALUES ($1, $2, $3, 1, 500, $4, $5, $6)
		RETURNING id
	`

	var id int
	err := testDB.QueryRow(ctx, query,
		bannerTypeID, mustDate(t, date), priority, model.SlotStatusLocked, holderID, lockedUntil,
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create locked test slot: %v", err)
	}

	return id
}

// createTestApplication 輔助函數：創建測試用的申請
func createTestApplication(t *testing.T, bannerTypeID int, userID int) int {
	t.Helper()
	ctx := context.Background()

	query := `
		INSERT INTO applications (application_id, user_id, event_id, banner_type_id, title, image_url)
		VALUES ($1, $2, 100, $3, 'Test Campaign', 'https://cdn.test/banner.png')
		RETURNING id
	`

	var id int
	err := testDB.QueryRow(ctx, query, uuid.New(), userID, bannerTypeID).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test application: %v", err)
	}

	return id
}

// createTestBanner 輔助函數：創建測試用的 banner
func createTestBanner(t *testing.T, applicationID, bannerTypeID int) int {
	t.Helper()
	ctx := context.Background()

	query := `
		INSERT INTO banners (banner_id, application_id, banner_type_id, title, image_url, active_from, active_until)
		VALUES ($1, $2, $3, 'Test Banner', 'https://cdn.test/banner.png', NOW(), NOW() + INTERVAL '1 day')
		RETURNING id
	`

	var id int
	err := testDB.QueryRow(ctx, query, uuid.New(), applicationID, bannerTypeID).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test banner: %v", err)
	}

	return id
}
