package ledger

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func validLaunch() Launch {
	return Launch{
		LaunchID:       "0d4cbd9a-4c1b-4f5d-9c56-0e5a2f3a9d10",
		AppID:          "app-0007",
		RequestedBy:    "ops@streamforge.dev",
		MemoryBudgetMB: 2048,
		HeapLimitMB:    1638,
	}
}

func TestLaunchValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Launch)
		wantOK bool
	}{
		{name: "valid", mutate: func(l *Launch) {}, wantOK: true},
		{name: "missing launch id", mutate: func(l *Launch) { l.LaunchID = " " }},
		{name: "missing app id", mutate: func(l *Launch) { l.AppID = "" }},
		{name: "missing requester", mutate: func(l *Launch) { l.RequestedBy = "" }},
		{name: "zero budget", mutate: func(l *Launch) { l.MemoryBudgetMB = 0 }},
		{name: "zero heap", mutate: func(l *Launch) { l.HeapLimitMB = 0 }},
		{name: "heap above budget", mutate: func(l *Launch) { l.HeapLimitMB = l.MemoryBudgetMB + 1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			launch := validLaunch()
			tc.mutate(&launch)
			err := launch.Validate()
			if tc.wantOK && err != nil {
				t.Fatalf("Validate() err=%v, want nil", err)
			}
			if !tc.wantOK && err == nil {
				t.Fatal("Validate() err=nil, want error")
			}
		})
	}
}

func TestInsertRejectsInvalidLaunch(t *testing.T) {
	launch := validLaunch()
	launch.AppID = ""
	launch.CreatedAt = time.Now()
	if _, err := Insert(context.Background(), nil, Launch{}); err == nil {
		t.Fatal("Insert with nil db must fail")
	}
	// validation runs before any query, so the db is never touched
	var db *sql.DB
	if _, err := Insert(context.Background(), db, launch); err == nil || !strings.Contains(err.Error(), "AppID") {
		t.Fatalf("Insert() err=%v, want AppID validation error", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("23505 must classify as unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation must not classify as unique violation")
	}
	if isUniqueViolation(errors.New("plain")) {
		t.Fatal("plain error must not classify as unique violation")
	}
}
