package build

import "testing"

func TestDetectPort(t *testing.T) {
	tests := []struct {
		script   string
		wantPort int
		wantOK   bool
	}{
		{"PORT=5006 node index.js", 5006, true},
		{"next start --port=5006", 5006, true},
		{"next start --port 5006", 5006, true},
		{"node server.js -p 5006", 5006, true},
		{"node server.js -p=5006", 5006, true},
		{"node index.js", 0, false},
	}
	for _, tt := range tests {
		pj := packageJSON{Scripts: map[string]string{"start": tt.script}}
		port, ok := detectPort(pj)
		if ok != tt.wantOK || (ok && port != tt.wantPort) {
			t.Errorf("detectPort(%q) = (%d, %v), want (%d, %v)", tt.script, port, ok, tt.wantPort, tt.wantOK)
		}
	}
}

func TestDetectNuxtMajor(t *testing.T) {
	tests := []struct {
		version string
		want    int
	}{
		{"^2.15.0", 2},
		{"~3.4.1", 3},
		{"latest", 3},
		{"", 3},
	}
	for _, tt := range tests {
		pj := packageJSON{Dependencies: map[string]string{}}
		if tt.version != "" {
			pj.Dependencies["nuxt"] = tt.version
		}
		if got := detectNuxtMajor(pj); got != tt.want {
			t.Errorf("detectNuxtMajor(%q) = %d, want %d", tt.version, got, tt.want)
		}
	}
}

func TestDemoteToStaticNoStartScript(t *testing.T) {
	pj := packageJSON{Scripts: map[string]string{"build": "vite build"}}
	if !demoteToStatic(NodeJS, pj) {
		t.Error("expected demotion when build exists and start is absent")
	}
}

func TestDemoteToStaticServerMarker(t *testing.T) {
	pj := packageJSON{Scripts: map[string]string{"build": "vite build", "start": "serve -s dist"}}
	if !demoteToStatic(Static, pj) {
		t.Error("expected demotion when start shells to a static file server")
	}
}

func TestDemoteToStaticRealServer(t *testing.T) {
	pj := packageJSON{Scripts: map[string]string{"build": "tsc", "start": "node dist/index.js"}}
	if demoteToStatic(NodeJS, pj) {
		t.Error("did not expect demotion for a real server start script")
	}
}

func TestDemoteToStaticIgnoresOtherFrameworks(t *testing.T) {
	pj := packageJSON{Scripts: map[string]string{"build": "next build"}}
	if demoteToStatic(NextJS, pj) {
		t.Error("demotion only applies to nodejs/static frameworks")
	}
}
