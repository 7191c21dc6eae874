package buildplan

import "github.com/deacon-dev/deacon/internal/errors"

// composeIncompatibleFlags are build-mode flags that don't carry over to the
// external compose engine's "compose build <service>" invocation.
var composeIncompatibleFlags = map[string]bool{
	"--push": true, "--output": true, "--cache-to": true, "--platform": true,
}

// ComposeArgv assembles the "compose build <service>" invocation for a
// compose-based devcontainer. Build-mode flags incompatible with compose
// must be rejected before reaching this function's caller; CheckComposeFlags
// does that check.
func ComposeArgv(service string, noCache bool) []string {
	argv := []string{"build"}
	if noCache {
		argv = append(argv, "--no-cache")
	}
	argv = append(argv, service)
	return argv
}

// CheckComposeFlags rejects any flag in composeIncompatibleFlags present in
// requested.
func CheckComposeFlags(requested []string) error {
	for _, f := range requested {
		if composeIncompatibleFlags[f] {
			return errors.Newf(errors.CategoryCompose, errors.CodeComposeInvalid,
				"%s is not supported with dockerComposeFile builds", f).
				WithContext("flag", f)
		}
	}
	return nil
}
