package build

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// packageJSON is the subset of package.json detect.go reads from.
type packageJSON struct {
	Scripts      map[string]string `json:"scripts"`
	Dependencies map[string]string `json:"dependencies"`
}

var portPatterns = []*regexp.Regexp{
	regexp.MustCompile(`PORT=(\d+)`),
	regexp.MustCompile(`--port[= ](\d+)`),
	regexp.MustCompile(`-p[= ](\d+)`),
}

var staticServerMarkers = []string{"serve", "live-server", "http-server"}
var staticOutputCandidates = []string{"dist", "build", "public", "out", "_site", "www"}

// detect probes the cloned tree at dir and derives package-manager,
// port, Nuxt version, and possible static-site reclassification.
func detect(dir string, spec Spec) detection {
	d := detection{
		packageManager: detectPackageManager(dir),
		framework:      spec.Framework,
		port:           spec.Port,
	}
	if d.packageManager == PNPM || d.packageManager == Yarn {
		d.hasLockfile = true
	} else {
		d.hasLockfile = fileExists(filepath.Join(dir, "package-lock.json"))
	}

	pj, err := readPackageJSON(dir)
	if err == nil {
		if port, ok := detectPort(pj); ok {
			d.port = port
		}
		if spec.Framework == Nuxt {
			d.nuxtMajor = detectNuxtMajor(pj)
		}
		if demoteToStatic(spec.Framework, pj) {
			d.framework = Static
			d.outputDirectory = resolveStaticOutputDir(dir, spec.OutputDirectory)
		}
	}
	if d.nuxtMajor == 0 {
		d.nuxtMajor = 3
	}
	return d
}

// detectPackageManager returns the package manager implied by lockfile
// priority: pnpm-lock.yaml, then yarn.lock, else npm.
func detectPackageManager(dir string) PackageManager {
	if fileExists(filepath.Join(dir, "pnpm-lock.yaml")) {
		return PNPM
	}
	if fileExists(filepath.Join(dir, "yarn.lock")) {
		return Yarn
	}
	return NPM
}

func readPackageJSON(dir string) (packageJSON, error) {
	var pj packageJSON
	b, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return pj, err
	}
	if err := json.Unmarshal(b, &pj); err != nil {
		return pj, err
	}
	return pj, nil
}

// detectPort scans scripts.start, then scripts.dev, for the first
// pattern match among PORT=<n>, --port[= ]<n>, -p[= ]<n>.
func detectPort(pj packageJSON) (int, bool) {
	for _, key := range []string{"start", "dev"} {
		script, ok := pj.Scripts[key]
		if !ok {
			continue
		}
		for _, re := range portPatterns {
			if m := re.FindStringSubmatch(script); m != nil {
				if port, err := strconv.Atoi(m[1]); err == nil {
					return port, true
				}
			}
		}
	}
	return 0, false
}

// detectNuxtMajor parses the leading digit of the nuxt dependency's
// version range, defaulting to 3 when it can't be determined.
func detectNuxtMajor(pj packageJSON) int {
	raw, ok := pj.Dependencies["nuxt"]
	if !ok {
		return 3
	}
	cleaned := strings.TrimLeft(raw, "^~=v ")
	if cleaned == "" || cleaned == "latest" {
		return 3
	}
	v, err := semver.NewVersion(firstVersionToken(cleaned))
	if err != nil {
		return 3
	}
	return int(v.Major())
}

func firstVersionToken(s string) string {
	end := strings.IndexAny(s, " |")
	if end == -1 {
		return s
	}
	return s[:end]
}

// demoteToStatic implements the static-site reclassification rule: a
// nodejs/static framework with a build script but no start script (or a
// start script that just shells to a static file server) is really a
// static site.
func demoteToStatic(framework Framework, pj packageJSON) bool {
	if framework != NodeJS && framework != Static {
		return false
	}
	buildScript, hasBuild := pj.Scripts["build"]
	if !hasBuild {
		return false
	}
	startScript, hasStart := pj.Scripts["start"]
	if !hasStart {
		return true
	}
	for _, word := range strings.Fields(startScript) {
		for _, marker := range staticServerMarkers {
			if word == marker {
				return true
			}
		}
	}
	for _, pm := range []string{"npm", "yarn", "pnpm"} {
		if startScript == pm+" run build" || startScript == buildScript {
			return true
		}
	}
	return false
}

// resolveStaticOutputDir returns declared if it exists under dir,
// otherwise the first existing candidate in staticOutputCandidates,
// defaulting to "dist".
func resolveStaticOutputDir(dir, declared string) string {
	if declared != "" && fileExists(filepath.Join(dir, declared)) {
		return declared
	}
	for _, candidate := range staticOutputCandidates {
		if fileExists(filepath.Join(dir, candidate)) {
			return candidate
		}
	}
	return "dist"
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
