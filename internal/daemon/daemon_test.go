package daemon

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/matheus3301/chatadmin/internal/config"
	"github.com/matheus3301/chatadmin/internal/docstore"
	"github.com/matheus3301/chatadmin/internal/entity"
	"github.com/matheus3301/chatadmin/internal/lock"
	"github.com/matheus3301/chatadmin/internal/profile"
	"github.com/matheus3301/chatadmin/internal/rpc"
)

// testHome points the profile directory at a short path under /tmp so the
// socket stays below the Unix socket length limit.
func testHome(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("/tmp", "chatadmin-d-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	t.Setenv("CHATADMIN_HOME", dir)
	return dir
}

func testConfig(driver string) *config.Config {
	cfg := config.Default()
	cfg.Store.Driver = driver
	cfg.Identity.TokenSecret = "daemon-test-secret"
	cfg.Daemon.MetricsAddr = "127.0.0.1:0"
	return cfg
}

func TestDaemonLifecycle(t *testing.T) {
	for _, driver := range []string{config.DriverSQLite, config.DriverBolt} {
		t.Run(driver, func(t *testing.T) {
			testHome(t)
			var metrics *MetricsServer
			app := fxtest.New(t,
				Module(Params{Profile: "test", Config: testConfig(driver), Logger: zap.NewNop()}),
				fx.Populate(&metrics),
			)
			app.RequireStart()

			client, err := rpc.Dial(profile.SocketPath("test"))
			if err != nil {
				t.Fatal(err)
			}
			defer func() { _ = client.Close() }()
			ctx := context.Background()

			info, err := client.Daemon.Status(ctx)
			if err != nil {
				t.Fatalf("Status error = %v", err)
			}
			if info.Profile != "test" || info.Driver != driver || info.Operators != 0 {
				t.Errorf("status = %+v", info)
			}

			if _, err := client.Documents.List(ctx, entity.UsersCollection, docstore.Query{}); err == nil {
				t.Error("List without a token succeeded")
			}

			if _, err := client.Identity.AddOperator(ctx, "ops@example.com", "correct horse", "Ops"); err != nil {
				t.Fatalf("bootstrap AddOperator error = %v", err)
			}
			if _, _, err := client.Identity.SignIn(ctx, "ops@example.com", "correct horse"); err != nil {
				t.Fatalf("SignIn error = %v", err)
			}
			id, err := client.Documents.Insert(ctx, entity.UsersCollection, entity.User{DisplayName: "Alice"}.Fields())
			if err != nil {
				t.Fatalf("Insert error = %v", err)
			}
			doc, err := client.Documents.Get(ctx, entity.UsersCollection, id)
			if err != nil || doc.Data["displayName"] != "Alice" {
				t.Fatalf("Get = %+v, %v", doc, err)
			}

			info, err = client.Daemon.Status(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if info.Operators != 1 || info.Users != 1 {
				t.Errorf("status after insert = %+v", info)
			}

			resp, err := http.Get("http://" + metrics.Addr() + "/metrics")
			if err != nil {
				t.Fatalf("GET /metrics: %v", err)
			}
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if !strings.Contains(string(body), "chatadmin_docstore_operations_total") {
				t.Error("metrics missing store counters")
			}

			app.RequireStop()
			if _, err := os.Stat(profile.SocketPath("test")); !errors.Is(err, os.ErrNotExist) {
				t.Errorf("socket left behind: %v", err)
			}
		})
	}
}

func TestDaemonRefusesHeldProfile(t *testing.T) {
	testHome(t)
	held, err := lock.Acquire(profile.LockPath("test"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = held.Release() }()

	app := fx.New(
		Module(Params{Profile: "test", Config: testConfig(config.DriverSQLite), Logger: zap.NewNop()}),
		fx.NopLogger,
	)
	err = app.Err()
	if !lock.IsHeld(err) {
		t.Fatalf("app error = %v, want lock held", err)
	}
}

func TestDaemonRemovesStaleSocket(t *testing.T) {
	testHome(t)
	if err := profile.EnsureDir("test"); err != nil {
		t.Fatal(err)
	}
	stale := profile.SocketPath("test")
	if err := os.WriteFile(stale, nil, 0600); err != nil {
		t.Fatal(err)
	}

	app := fxtest.New(t, Module(Params{Profile: "test", Config: testConfig(config.DriverBolt), Logger: zap.NewNop()}))
	app.RequireStart()
	defer app.RequireStop()

	fi, err := os.Stat(stale)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode()&os.ModeSocket == 0 {
		t.Errorf("socket mode = %v", fi.Mode())
	}
	if fi.Mode().Perm() != 0600 {
		t.Errorf("socket perm = %v, want 0600", fi.Mode().Perm())
	}
}

func TestMetricsHealthz(t *testing.T) {
	m := NewMetricsServer(Params{Config: config.Default()}, provideRegistry(), zap.NewNop())
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}

	// No address configured: Start and Stop are no-ops.
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	if m.Addr() != "" {
		t.Errorf("Addr = %q", m.Addr())
	}
	m.Stop(context.Background())
}

func TestSecretPersistedWithoutConfig(t *testing.T) {
	home := testHome(t)
	cfg := testConfig(config.DriverBolt)
	cfg.Identity.TokenSecret = ""
	cfg.Daemon.MetricsAddr = ""

	app := fxtest.New(t, Module(Params{Profile: "test", Config: cfg, Logger: zap.NewNop()}))
	app.RequireStart()
	app.RequireStop()

	fi, err := os.Stat(filepath.Join(home, "profiles", "test", "secret"))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0600 {
		t.Errorf("secret perm = %v", fi.Mode().Perm())
	}
}
