package launch

import (
	"os"
	"path/filepath"
)

// EnvVar is one append operation against a container environment.
type EnvVar struct {
	Name  string
	Value string
}

// ComposeEnvironment applies appends to a copy of base and returns the
// result; base is never mutated, so one shared base can seed environments
// for many containers. An unset variable is set verbatim; a set one grows
// by the platform path-list separator plus the new value. Appending the
// same value twice yields the segment twice: callers that want a clean
// classpath must not repeat entries.
func ComposeEnvironment(base map[string]string, appends []EnvVar) map[string]string {
	env := make(map[string]string, len(base)+len(appends))
	for k, v := range base {
		env[k] = v
	}
	for _, a := range appends {
		appendVariable(env, a.Name, a.Value)
	}
	return env
}

func appendVariable(env map[string]string, name string, value string) {
	existing, ok := env[name]
	if !ok {
		env[name] = value
		return
	}
	env[name] = existing + string(os.PathListSeparator) + value
}

// ClasspathAppends produces the classpath append sequence in the fixed
// order the runtime expects: the working-directory wildcard first, then
// the configured entries in their listed order.
func ClasspathAppends(workDir string, entries []string) []EnvVar {
	appends := make([]EnvVar, 0, len(entries)+1)
	appends = append(appends, EnvVar{Name: EnvClasspath, Value: filepath.Join(workDir, "*")})
	for _, entry := range entries {
		appends = append(appends, EnvVar{Name: EnvClasspath, Value: entry})
	}
	return appends
}

// EnvClasspath is the container environment variable carrying the
// path-separated runtime classpath.
const EnvClasspath = "STREAMFORGE_CLASSPATH"
