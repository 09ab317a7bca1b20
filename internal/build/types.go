// Package build implements the deployment pipeline: clone a repository,
// detect its framework and package manager, synthesize a container
// recipe, build the image with streamed logs, import it into the
// cluster runtime, and resolve the port it exposes. It is the one
// subsystem with real algorithmic depth, mirroring the weight the
// original design gives it.
package build

// Framework enumerates the application frameworks recipe synthesis
// knows how to build a container for.
type Framework string

const (
	Angular    Framework = "angular"
	React      Framework = "react"
	ReactVite  Framework = "react-vite"
	Vue        Framework = "vue"
	VueVite    Framework = "vue-vite"
	Svelte     Framework = "svelte"
	SvelteVite Framework = "svelte-vite"
	Vite       Framework = "vite"
	NextJS     Framework = "nextjs"
	Nuxt       Framework = "nuxt"
	NodeJS     Framework = "nodejs"
	NestJS     Framework = "nestjs"
	Docker     Framework = "docker"
	Static     Framework = "static"
)

// PackageManager enumerates the Node package managers detect.go
// recognizes from lockfile presence.
type PackageManager string

const (
	PNPM PackageManager = "pnpm"
	Yarn PackageManager = "yarn"
	NPM  PackageManager = "npm"
)

// Spec is the typed input to the build pipeline, corresponding to the
// payload of a DEPLOY command.
type Spec struct {
	AppName          string
	DeploymentID     string
	GitRepoURL       string
	GitBranch        string
	GitToken         string
	Framework        Framework
	BuildCommand     string
	StartCommand     string
	OutputDirectory  string
	Port             int
	EnvVars          map[string]string
	NuxtMajorVersion int
}

// Artifact is the result of a successful or failed pipeline run.
type Artifact struct {
	Success     bool
	ImageName   string
	ExposedPort int
	Logs        string
	Error       string
}

// detection is what detect derives from the cloned tree, feeding recipe
// synthesis alongside the original Spec.
type detection struct {
	packageManager  PackageManager
	hasLockfile     bool
	port            int
	nuxtMajor       int
	framework       Framework // possibly reclassified to Static
	outputDirectory string
}
