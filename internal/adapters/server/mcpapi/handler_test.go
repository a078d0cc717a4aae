package mcpapi

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/hylla/granska/internal/app"
	"github.com/hylla/granska/internal/domain"
)

type stubService struct{}

func (stubService) NormalizeKey(p string) domain.PathKey {
	return domain.NormalizePathKey("/ws", p)
}

func (stubService) Classify(domain.PathKey) (domain.Decoration, bool) {
	return domain.Decoration{Class: domain.ClassPending}, true
}

func (stubService) Record(domain.PathKey) (domain.ReviewRecord, bool) {
	return domain.ReviewRecord{}, false
}

func (stubService) Entries() []app.Entry { return nil }

func (stubService) SaveStatusDirect(context.Context, domain.PathKey, app.SaveStatusRequest) error {
	return nil
}

func (stubService) RefreshLedger(context.Context) error { return nil }

func (stubService) Worker() string { return "alice" }

func TestNewHandlerRequiresService(t *testing.T) {
	if _, err := NewHandler(Config{}, nil, log.New(io.Discard)); err == nil {
		t.Fatal("expected error for nil service")
	}
}

func TestNewHandlerBuilds(t *testing.T) {
	h, err := NewHandler(Config{}, stubService{}, log.New(io.Discard))
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	if h == nil {
		t.Fatal("nil handler")
	}
}

func TestNormalizeConfigDefaults(t *testing.T) {
	cfg := normalizeConfig(Config{})
	if cfg.ServerName != "granska" || cfg.ServerVersion != "dev" || cfg.EndpointPath != "/mcp" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestNormalizeConfigEndpointSlashes(t *testing.T) {
	cfg := normalizeConfig(Config{EndpointPath: "tools/"})
	if cfg.EndpointPath != "/tools" {
		t.Fatalf("got %q", cfg.EndpointPath)
	}
}

func TestViewForReadOnlyClasses(t *testing.T) {
	v := viewFor("a/b.json", domain.Decoration{Class: domain.ClassDelivered}, true, nil)
	if !v.ReadOnly || !v.Applicable {
		t.Fatalf("delivered view: %+v", v)
	}
	v = viewFor("a/b.md", domain.Decoration{}, false, nil)
	if !v.ReadOnly || v.Applicable {
		t.Fatalf("not-applicable view: %+v", v)
	}
}
