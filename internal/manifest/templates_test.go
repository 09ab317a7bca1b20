package manifest

import (
	"strings"
	"testing"

	networkingv1 "k8s.io/api/networking/v1"
	"sigs.k8s.io/yaml"
)

func TestRenderDeploymentIsDeterministic(t *testing.T) {
	spec := AppSpec{
		Namespace: "deploypilot-acme",
		Name:      "my-app",
		Image:     "docker.io/library/my-app:dep-1",
		Port:      3000,
		EnvVars:   map[string]string{"NODE_ENV": "production"},
	}
	a, err := RenderDeployment(spec)
	if err != nil {
		t.Fatalf("RenderDeployment error: %v", err)
	}
	b, err := RenderDeployment(spec)
	if err != nil {
		t.Fatalf("RenderDeployment error: %v", err)
	}
	if a != b {
		t.Fatalf("rendering is not deterministic:\n--- a ---\n%s\n--- b ---\n%s", a, b)
	}
	if a == "" {
		t.Fatal("expected non-empty manifest")
	}
}

func TestRenderIngressEscapesDomain(t *testing.T) {
	spec := AppSpec{Namespace: "ns", Name: "app", Port: 80, Domain: `evil"host`}
	out, err := RenderIngress(spec)
	if err != nil {
		t.Fatalf("RenderIngress error: %v", err)
	}
	if out == "" {
		t.Fatal("expected non-empty manifest")
	}
	var ing networkingv1.Ingress
	if err := yaml.Unmarshal([]byte(out), &ing); err != nil {
		t.Fatalf("rendered ingress does not parse: %v", err)
	}
	if len(ing.Spec.Rules) == 0 || ing.Spec.Rules[0].Host != spec.Domain {
		t.Errorf("rules = %+v, want host %q", ing.Spec.Rules, spec.Domain)
	}
}

func TestRenderDatabaseStatefulSetVariesByKind(t *testing.T) {
	pg := DatabaseSpec{Namespace: "ns", Name: "db", Kind: Postgres, Version: "15", StorageSize: "10Gi", User: "appuser"}
	out, err := RenderDatabaseStatefulSet(pg)
	if err != nil {
		t.Fatalf("RenderDatabaseStatefulSet error: %v", err)
	}
	if out == "" {
		t.Fatal("expected non-empty manifest")
	}

	redis := DatabaseSpec{Namespace: "ns", Name: "cache", Kind: Redis, Version: "7", StorageSize: "1Gi"}
	redisOut, err := RenderDatabaseStatefulSet(redis)
	if err != nil {
		t.Fatalf("RenderDatabaseStatefulSet error: %v", err)
	}
	if redisOut == out {
		t.Fatal("expected postgres and redis StatefulSets to differ")
	}
}

func TestRenderDatabaseSecretFieldsByKind(t *testing.T) {
	tests := []struct {
		kind DatabaseKind
		key  string
	}{{Postgres, "POSTGRES_PASSWORD"}, {MongoDB, "MONGO_INITDB_ROOT_PASSWORD"}, {Redis, "REDIS_PASSWORD"}}
	for _, tt := range tests {
		spec := DatabaseSpec{Namespace: "ns", Name: "db", Kind: tt.kind, User: "u", Password: "p", DatabaseName: "d"}
		out, err := RenderDatabaseSecret(spec)
		if err != nil {
			t.Fatalf("RenderDatabaseSecret(%s) error: %v", tt.kind, err)
		}
		if out == "" {
			t.Errorf("RenderDatabaseSecret(%s) empty output", tt.kind)
		}
		if !strings.Contains(out, tt.key) {
			t.Errorf("RenderDatabaseSecret(%s) missing key %s:\n%s", tt.kind, tt.key, out)
		}
	}
}

func TestRenderIngressRouteTCP(t *testing.T) {
	out, err := RenderIngressRouteTCP("ns", "db", "db.example.com", 5432)
	if err != nil {
		t.Fatalf("RenderIngressRouteTCP error: %v", err)
	}
	if out == "" {
		t.Fatal("expected non-empty manifest")
	}
}
