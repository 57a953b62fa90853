package runner

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/spf13/afero"
)

// shellOperators end or redirect a command in shellwords. Arguments are
// never run through a shell, so unquoted operators are kept as text.
const shellOperators = ";&|<>()`"

// SplitArguments splits a free-form argument string into words, honouring
// quotes. Environment references and shell operators are left alone. On
// windows backslashes are path separators, not escapes.
func SplitArguments(arguments string) ([]string, error) {
	return splitArguments(arguments, runtime.GOOS == "windows")
}

func splitArguments(arguments string, windows bool) ([]string, error) {
	if strings.TrimSpace(arguments) == "" {
		return nil, nil
	}

	p := shellwords.NewParser()

	args, err := p.Parse(literalOperators(arguments, windows))
	if err != nil {
		return nil, fmt.Errorf("failed to parse arguments %q: %w", arguments, err)
	}

	if p.Position != -1 {
		return nil, fmt.Errorf("failed to parse arguments %q: stopped at offset %d", arguments, p.Position)
	}

	return args, nil
}

// literalOperators escapes unquoted shell operators and, on windows, every
// backslash outside single quotes.
func literalOperators(s string, windows bool) string {
	var (
		b                       strings.Builder
		single, double, escaped bool
	)

	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && !single:
			if windows {
				b.WriteRune('\\')
			} else {
				escaped = true
			}
		case r == '\'' && !double:
			single = !single
		case r == '"' && !single:
			double = !double
		case !single && !double && strings.ContainsRune(shellOperators, r):
			b.WriteRune('\\')
		}

		b.WriteRune(r)
	}

	return b.String()
}

// HelmArgs builds "<command> <arguments...>" for the Helm client.
func HelmArgs(command, arguments string) ([]string, error) {
	args, err := SplitArguments(arguments)
	if err != nil {
		return nil, err
	}

	return append([]string{command}, args...), nil
}

// KubectlOptions are the inputs shaping a kubectl command line.
//
//nolint:govet // fieldalignment: readability preferred over optimization
type KubectlOptions struct {
	Command   string
	Arguments string
	// UseConfigurationFile adds -f Configuration when that path exists.
	UseConfigurationFile bool
	Configuration        string
	// OutputVariable set means output is captured, so -o OutputFormat is added.
	OutputVariable string
	OutputFormat   string
	Fs             afero.Fs
}

// KubectlArgs builds "<command> [-f <file>] <arguments...> [-o <format>]".
func KubectlArgs(opts KubectlOptions) ([]string, error) {
	args := []string{opts.Command}

	if opts.UseConfigurationFile && opts.Configuration != "" {
		fs := opts.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}

		if ok, _ := afero.Exists(fs, opts.Configuration); ok { //nolint:errcheck // unreadable path counts as missing
			args = append(args, "-f", opts.Configuration)
		}
	}

	extra, err := SplitArguments(opts.Arguments)
	if err != nil {
		return nil, err
	}

	args = append(args, extra...)

	if opts.OutputVariable != "" {
		args = append(args, "-o", opts.OutputFormat)
	}

	return args, nil
}
