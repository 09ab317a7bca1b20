// Package logging provides the agent's structured-logging handle and a
// small Fields builder used to keep log call sites consistent across
// components without a process-wide logger singleton (per spec §9, "pass
// a logger handle through constructors").
package logging

import "time"

// Fields is an unordered bag of structured log attributes (Args emits the
// pairs in map iteration order). Build one with
// NewFields() and chain the setters that apply; pass the result to
// logr.Logger.WithValues via Args(), or read it directly in tests.
type Fields map[string]interface{}

// NewFields returns an empty Fields set.
func NewFields() Fields {
	return Fields{}
}

func (f Fields) Component(name string) Fields {
	f["component"] = name
	return f
}

func (f Fields) Operation(name string) Fields {
	f["operation"] = name
	return f
}

func (f Fields) Resource(resourceType, name string) Fields {
	f["resource_type"] = resourceType
	if name != "" {
		f["resource_name"] = name
	}
	return f
}

func (f Fields) Duration(d time.Duration) Fields {
	f["duration_ms"] = d.Milliseconds()
	return f
}

func (f Fields) Error(err error) Fields {
	if err != nil {
		f["error"] = err.Error()
	}
	return f
}

func (f Fields) Count(n int) Fields {
	f["count"] = n
	return f
}

func (f Fields) Size(bytes int64) Fields {
	f["size_bytes"] = bytes
	return f
}

func (f Fields) Method(method string) Fields {
	f["method"] = method
	return f
}

func (f Fields) URL(url string) Fields {
	f["url"] = url
	return f
}

func (f Fields) StatusCode(code int) Fields {
	f["status_code"] = code
	return f
}

func (f Fields) Custom(key string, value interface{}) Fields {
	f[key] = value
	return f
}

// Args flattens Fields into the variadic key/value pairs logr.Logger
// expects (Info(msg, "k1", v1, "k2", v2, ...)).
func (f Fields) Args() []interface{} {
	args := make([]interface{}, 0, len(f)*2)
	for k, v := range f {
		args = append(args, k, v)
	}
	return args
}

// CommandFields seeds the fields every command-lifecycle log line carries.
func CommandFields(commandID, kind string) Fields {
	return NewFields().Component("dispatcher").Operation(kind).Resource("command", commandID)
}

// BuildFields seeds the fields every build-pipeline log line carries.
func BuildFields(appName, deploymentID, step string) Fields {
	return NewFields().Component("build").Operation(step).Resource("deployment", deploymentID).Custom("app_name", appName)
}

// KubernetesFields seeds the fields every KubernetesDriver log line carries.
func KubernetesFields(operation, resourceType, name, namespace string) Fields {
	f := NewFields().Component("kubernetes").Operation(operation).Resource(resourceType, name)
	if namespace != "" {
		f["namespace"] = namespace
	}
	return f
}

// HTTPFields seeds the fields every outbound control-plane call carries.
func HTTPFields(method, url string, statusCode int) Fields {
	return NewFields().Component("http").Method(method).URL(url).StatusCode(statusCode)
}
