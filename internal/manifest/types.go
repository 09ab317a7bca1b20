// Package manifest renders the Kubernetes objects the agent applies:
// application Deployment+Service+Ingress, and per-database
// Secret+PVC+StatefulSet+Service(+IngressRouteTCP). Every renderer takes
// typed input and marshals through sigs.k8s.io/yaml, which sorts map
// keys and preserves struct field order, so the same input always
// produces the same bytes.
package manifest

// DatabaseKind enumerates the database engines ManifestTemplates knows
// how to render a StatefulSet for.
type DatabaseKind string

const (
	Postgres DatabaseKind = "postgres"
	MongoDB  DatabaseKind = "mongodb"
	Redis    DatabaseKind = "redis"
)

// AppSpec is the typed input to the application Deployment+Service(+Ingress)
// renderer.
type AppSpec struct {
	Namespace string
	Name      string
	Image     string
	Port      int
	Domain    string
	EnvVars   map[string]string
}

// DatabaseSpec is the typed input to the database StatefulSet renderer.
type DatabaseSpec struct {
	Namespace     string
	Name          string
	Kind          DatabaseKind
	Version       string
	StorageSize   string
	MemoryLimit   string
	User          string
	Password      string
	DatabaseName  string
	ExternalPort  int // 0 means no external access
}

// databaseParams holds the per-kind table from spec §4.3.
type databaseParams struct {
	port            int32
	image           string
	mountPath       string
	mountSubPath    string
	readinessCmd    []string
	readinessPeriod int32
	readinessCount  int32
	livenessTimeout int32
	extraCommand    []string
}

// DefaultPort returns the in-cluster port a database of kind listens on,
// for callers (e.g. external-access handlers) that need it without
// building a full DatabaseSpec.
func DefaultPort(kind DatabaseKind) int {
	return int(paramsFor(kind, "", "").port)
}

func paramsFor(kind DatabaseKind, version, user string) databaseParams {
	switch kind {
	case Postgres:
		return databaseParams{
			port:            5432,
			image:           "postgres:" + version,
			mountPath:       "/var/lib/postgresql/data",
			mountSubPath:    "postgres",
			readinessCmd:    []string{"pg_isready", "-U", user},
			readinessPeriod: 5,
			readinessCount:  5,
			livenessTimeout: 5,
		}
	case MongoDB:
		return databaseParams{
			port:            27017,
			image:           "mongo:" + version,
			mountPath:       "/data/db",
			readinessCmd:    []string{"mongosh", "--eval", "db.adminCommand('ping')"},
			readinessPeriod: 10,
			readinessCount:  10,
			livenessTimeout: 10,
		}
	case Redis:
		return databaseParams{
			port:            6379,
			image:           "redis:" + version,
			mountPath:       "/data",
			readinessCmd:    []string{"redis-cli", "ping"},
			readinessPeriod: 10,
			readinessCount:  10,
			livenessTimeout: 10,
			extraCommand:    []string{"redis-server", "--appendonly", "yes", "--requirepass", "$(REDIS_PASSWORD)"},
		}
	default:
		return databaseParams{}
	}
}
