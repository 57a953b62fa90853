package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/dennisklein/helmtask/internal/tool"
	"github.com/dennisklein/helmtask/internal/util"
)

const (
	toolNameWidth = 10
	versionWidth  = 12
	sizeWidth     = 10
)

var (
	toolNameStyle  = lipgloss.NewStyle().Bold(true).Width(toolNameWidth).Align(lipgloss.Left)
	versionStyle   = lipgloss.NewStyle().Width(versionWidth).Align(lipgloss.Left)
	newestStyle    = versionStyle.Foreground(lipgloss.Color("10"))
	olderStyle     = versionStyle.Foreground(lipgloss.Color("8"))
	notCachedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	sizeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Width(sizeWidth).Align(lipgloss.Right)
	totalSizeStyle = sizeStyle.Bold(true)
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	infoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Manage cached clients",
		Long: `Manage the helm and kubectl binaries in the tool cache (clean, info, update).
The cache lives in $AGENT_TOOLSDIRECTORY when set.`,
	}

	cmd.AddCommand(newToolsCleanCmd())
	cmd.AddCommand(newToolsInfoCmd())
	cmd.AddCommand(newToolsUpdateCmd())

	return cmd
}

func newToolsCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean [tool...]",
		Short: "Remove cached clients",
		Long:  `Remove cached client binaries. If no names are specified, cleans all clients.`,
		RunE:  runToolsClean,
	}

	cmd.Flags().Bool("old", false, "Keep the newest cached version of each client")

	return cmd
}

func newToolsInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info [tool...]",
		Short: "Show cached client information",
		Long:  `Show version, path and size of cached clients. If no names are specified, shows all clients.`,
		RunE:  runToolsInfo,
	}

	cmd.Flags().StringP("output", "o", "", "Output format: json or yaml (default table)")

	return cmd
}

func newToolsUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [tool...]",
		Short: "Download the newest client matching a version spec",
		Long: `Resolve a version spec against upstream releases and download the match into the cache.
If no names are specified, updates all clients.`,
		RunE: runToolsUpdate,
	}

	cmd.Flags().String("version", "latest", "Version spec to resolve, e.g. 3.x or latest")

	return cmd
}

func runToolsClean(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	tools := tool.NewRegistry(out, logr.Discard()).Select(args)

	keepNewest, err := cmd.Flags().GetBool("old")
	if err != nil {
		return fmt.Errorf("failed to get --old flag: %w", err)
	}

	var (
		reclaimed int64
		removed   int
	)

	for _, t := range tools {
		versions, err := t.CachedVersions()
		if err != nil {
			return fmt.Errorf("failed to get cached versions for %s: %w", t.Name, err)
		}

		if !keepNewest {
			if err := t.CleanAll(); err != nil {
				return fmt.Errorf("failed to clean %s: %w", t.Name, err)
			}

			for _, v := range versions {
				reclaimed += v.Size
			}

			removed += len(versions)

			continue
		}

		// versions are sorted newest first
		for _, v := range versions[min(1, len(versions)):] {
			if err := t.CleanVersion(v.Version); err != nil {
				return fmt.Errorf("failed to clean %s version %s: %w", t.Name, v.Version, err)
			}

			reclaimed += v.Size
			removed++
		}
	}

	if removed == 0 {
		return nil
	}

	if _, err := fmt.Fprintf(out, "Removed %d cached version(s), reclaimed %s\n",
		removed, successStyle.Render(util.FormatBytes(reclaimed))); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

// cacheEntry is one cached client version in structured info output.
type cacheEntry struct {
	Tool    string `json:"tool"`
	Version string `json:"version"`
	Path    string `json:"path"`
	Size    int64  `json:"size"`
}

func runToolsInfo(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	tools := tool.NewRegistry(nil, logr.Discard()).Select(args)

	format, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get --output flag: %w", err)
	}

	if format != "" {
		return printCacheEntries(out, tools, format)
	}

	var total int64

	for _, t := range tools {
		size, err := printToolInfo(out, t)
		if err != nil {
			return err
		}

		total += size
	}

	if len(tools) < 2 || total == 0 {
		return nil
	}

	if _, err := fmt.Fprintf(out, "\n%s  %s  %s\n",
		toolNameStyle.Render("total"), versionStyle.Render(""), totalSizeStyle.Render(util.FormatBytes(total))); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

// printToolInfo prints one line per cached version, newest highlighted,
// and returns the combined size.
func printToolInfo(out io.Writer, t *tool.Tool) (int64, error) {
	versions, err := t.CachedVersions()
	if err != nil {
		return 0, fmt.Errorf("failed to get cached versions for %s: %w", t.Name, err)
	}

	name := toolNameStyle.Render(t.Name)

	if len(versions) == 0 {
		if _, err := fmt.Fprintf(out, "%s  %s\n", name, notCachedStyle.Render("(not cached)")); err != nil {
			return 0, fmt.Errorf("failed to write output: %w", err)
		}

		return 0, nil
	}

	var size int64

	for i, v := range versions {
		size += v.Size

		style := olderStyle
		if i == 0 {
			style = newestStyle
		}

		if _, err := fmt.Fprintf(out, "%s  %s  %s  %s\n",
			name, style.Render(v.Version), sizeStyle.Render(util.FormatBytes(v.Size)), v.Path); err != nil {
			return 0, fmt.Errorf("failed to write output: %w", err)
		}
	}

	return size, nil
}

func printCacheEntries(out io.Writer, tools []*tool.Tool, format string) error {
	entries := []cacheEntry{}

	for _, t := range tools {
		versions, err := t.CachedVersions()
		if err != nil {
			return fmt.Errorf("failed to get cached versions for %s: %w", t.Name, err)
		}

		for _, v := range versions {
			entries = append(entries, cacheEntry{Tool: t.Name, Version: v.Version, Path: v.Path, Size: v.Size})
		}
	}

	var (
		data []byte
		err  error
	)

	switch format {
	case "json":
		data, err = json.MarshalIndent(entries, "", "  ")
		data = append(data, '\n')
	case "yaml":
		data, err = yaml.Marshal(entries)
	default:
		return fmt.Errorf("unsupported output format %q: expected json or yaml", format)
	}

	if err != nil {
		return fmt.Errorf("failed to encode cache info: %w", err)
	}

	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

func runToolsUpdate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	log, _ := newLogger(cmd)
	tools := tool.NewRegistry(out, log.WithName("tool")).Select(args)

	spec, err := cmd.Flags().GetString("version")
	if err != nil {
		return fmt.Errorf("failed to get --version flag: %w", err)
	}

	for _, t := range tools {
		before, err := t.CachedVersions()
		if err != nil {
			return fmt.Errorf("failed to get cached versions for %s: %w", t.Name, err)
		}

		version, err := t.Download(cmd.Context(), spec)
		if err != nil {
			return fmt.Errorf("failed to update %s: %w", t.Name, err)
		}

		if !isCached(before, version) {
			continue
		}

		if _, err := fmt.Fprintf(out, "%s %s %s\n",
			toolNameStyle.Render(t.Name), newestStyle.Render(version), infoStyle.Render("already cached")); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	return nil
}

func isCached(versions []tool.CachedVersion, version string) bool {
	for _, v := range versions {
		if v.Version == version {
			return true
		}
	}

	return false
}
