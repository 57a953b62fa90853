package main

import (
	"errors"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		RunE:  version,
	}
}

func version(cmd *cobra.Command, _ []string) error {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return errors.New("could not read embedded build info ('go build -buildvcs=true')")
	}

	v := info.Main.Version
	if v == "" {
		v = "(devel)"
	}

	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 12 {
			v += " " + s.Value[:12]
		}
	}

	cmd.Printf("helmtask %s %s/%s %s\n", v, runtime.GOOS, runtime.GOARCH, info.GoVersion)

	return nil
}
