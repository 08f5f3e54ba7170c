package tsd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"Gin_postgres_redis_tsd_control/db"
	"Gin_postgres_redis_tsd_control/employees"
	"Gin_postgres_redis_tsd_control/events"
	"Gin_postgres_redis_tsd_control/lock"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recorder) Close() error { return nil }

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type staticEmployees struct {
	byCode map[string]employees.Employee
	err    error
}

func (s staticEmployees) Lookup(code string) (employees.Employee, bool, error) {
	if s.err != nil {
		return employees.Employee{}, false, s.err
	}
	e, ok := s.byCode[strings.ToLower(code)]
	return e, ok, nil
}

type failingLocker struct{ err error }

func (f failingLocker) Lock(context.Context, ...string) (func(), error) { return nil, f.err }

type fixture struct {
	svc    *Service
	repo   *db.Repo
	gdb    *gorm.DB
	clock  *fakeClock
	events *recorder
}

var base = time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := db.OpenSQLite(fmt.Sprintf("file:tsd_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repo := db.NewRepo(gdb)
	rec := &recorder{}
	emps := staticEmployees{byCode: map[string]employees.Employee{
		"ivanov":   {Code: "IVANOV", Company: "ACME", Name: "Иванов Иван"},
		"nameless": {Code: "nameless"},
	}}
	svc := New(repo, emps, repo, lock.NewLocal(10*time.Second), rec)
	clk := &fakeClock{t: base}
	svc.SetClock(clk.Now)
	return &fixture{svc: svc, repo: repo, gdb: gdb, clock: clk, events: rec}
}

func (f *fixture) issue(t *testing.T, login, company, number string) uint {
	t.Helper()
	in := IssueInput{EmployeeLogin: login, TSDNumber: number}
	if company != "" {
		in.Company = &company
	}
	row, err := f.svc.IssueOne(context.Background(), in)
	require.NoError(t, err)
	return row.ID
}

var errBoom = errors.New("boom")

// silentBroker accepts connections and never speaks AMQP.
func silentBroker(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan struct{})
	go func() {
		var conns []net.Conn
		defer func() {
			for _, c := range conns {
				_ = c.Close()
			}
			close(done)
		}()
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			conns = append(conns, c)
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		<-done
	})
	return fmt.Sprintf("amqp://guest:guest@%s/", ln.Addr())
}
