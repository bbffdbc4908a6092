package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"

	"lostfound/internal/core/database"
	"lostfound/internal/domain"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := database.Open(postgres.New(postgres.Config{Conn: sqlDB}), "silent", nil)
	if err != nil {
		t.Fatalf("open gorm: %v", err)
	}
	return NewStore(db), mock
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO "users"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})

	err := s.Users().Create(context.Background(), &domain.User{ID: "u1", Email: "a@b.c", Role: domain.RoleUser})
	if !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserFindByEmailNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.Users().FindByEmail(context.Background(), "  A@B.c ")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPetListCountsThenLoadsPageWithOwners(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "pets" WHERE status = \$1 AND LOWER\(breed\) LIKE \$2 AND is_active = \$3 AND is_approved = \$4`).
		WithArgs(domain.PetMissing, "%lab%", true, true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))
	mock.ExpectQuery(`SELECT \* FROM "pets" WHERE .* ORDER BY created_at DESC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "name"}).AddRow("p1", "u1", "Rex"))
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE "users"."id" = \$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).AddRow("u1", "Ann", "ann@x.io"))

	f := domain.PetFilter{
		Status:     domain.PetMissing,
		Breed:      "Lab",
		IsActive:   domain.Bool(true),
		IsApproved: domain.Bool(true),
	}
	pets, total, err := s.Pets().List(context.Background(), f, domain.NewPage(2, 20))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 21 || len(pets) != 1 {
		t.Fatalf("total=%d len=%d", total, len(pets))
	}
	if pets[0].Owner == nil || pets[0].Owner.Name != "Ann" {
		t.Fatalf("owner not preloaded: %+v", pets[0].Owner)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPetNearUsesDistancePredicateAndOrder(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "pets" WHERE \(last_seen_latitude IS NOT NULL .* BETWEEN .* ACOS\(LEAST\(1,`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "pets" WHERE .*ACOS.* ORDER BY \(6371 \* ACOS.* ASC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	f := domain.PetFilter{Near: &domain.GeoQuery{Center: domain.GeoPoint{Lng: -73.98, Lat: 40.75}, RadiusKm: 5}}
	pets, total, err := s.Pets().List(context.Background(), f, domain.NewPage(1, 10))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 0 || len(pets) != 0 {
		t.Fatalf("total=%d len=%d", total, len(pets))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPetIncrementViewsMissingRow(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE "pets" SET "views"=views \+ \$1 WHERE id = \$2`).
		WithArgs(1, "nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.Pets().IncrementViews(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReportExistsSince(t *testing.T) {
	s, mock := newMockStore(t)
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "reports" WHERE \(reporter_id = \$1 AND created_at > \$2\) AND reported_pet_id = \$3`).
		WithArgs("u1", since, "p1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := s.Reports().ExistsSince(context.Background(), "u1", domain.ReportTarget{PetID: "p1"}, since)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}

func TestReportListEmptyPetSetMatchesNothing(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "reports" WHERE 1 = 0`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "reports" WHERE 1 = 0`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, total, err := s.Reports().List(context.Background(), domain.ReportFilter{ReportedPetIDs: []string{}}, domain.NewPage(1, 20))
	if err != nil || total != 0 {
		t.Fatalf("total=%d err=%v", total, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestNotificationCountUnreadSkipsExpired(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "notifications" WHERE recipient_id = \$1 AND is_read = \$2 AND expires_at > \$3`).
		WithArgs("u1", false, now).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := s.Notifications().CountUnread(context.Background(), "u1", now)
	if err != nil || n != 3 {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestOutboxClaimDueLocksAndLeases(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "outbox_messages" WHERE .* ORDER BY next_attempt_at LIMIT .* FOR UPDATE SKIP LOCKED`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "template", "recipient", "status"}).
			AddRow("m1", "welcome", "a@b.c", "pending").
			AddRow("m2", "welcome", "d@e.f", "pending"))
	mock.ExpectExec(`UPDATE "outbox_messages" SET "locked_until"=\$1,"updated_at"=\$2 WHERE id IN \(\$3,\$4\)`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	msgs, err := s.Outbox().ClaimDue(context.Background(), now, 10, time.Minute)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(msgs) != 2 || msgs[0].LockedUntil == nil || !msgs[0].LockedUntil.Equal(now.Add(time.Minute)) {
		t.Fatalf("claimed = %+v", msgs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOutboxClaimDueNothingDue(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE SKIP LOCKED`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	msgs, err := s.Outbox().ClaimDue(context.Background(), time.Now(), 10, time.Minute)
	if err != nil || len(msgs) != 0 {
		t.Fatalf("msgs=%v err=%v", msgs, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
