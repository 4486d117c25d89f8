package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/urraka/volumeicon/internal/ipc"
	"github.com/urraka/volumeicon/internal/status"
)

func writeStatus(w io.Writer, snap status.Snapshot, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		return writeStatusText(w, snap)
	}
	return fmt.Errorf("unknown format %q (use text, json or yaml)", format)
}

func writeStatusText(w io.Writer, snap status.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	level := fmt.Sprintf("%d%%", snap.Level)
	if snap.Muted {
		level += " (muted)"
	}
	endpoint := snap.Endpoint
	if endpoint == "" {
		endpoint = "-"
	}
	fmt.Fprintf(tw, "Level:\t%s\n", level)
	fmt.Fprintf(tw, "Tooltip:\t%s\n", snap.Tooltip)
	fmt.Fprintf(tw, "Endpoint:\t%s\n", endpoint)
	fmt.Fprintf(tw, "State:\t%s\n", snap.State)
	fmt.Fprintf(tw, "Health:\t%s\n", snap.Health)

	names := make([]string, 0, len(snap.Components))
	for name := range snap.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(tw, "  %s:\t%s\n", name, snap.Components[name])
	}
	if !snap.UpdatedAt.IsZero() {
		fmt.Fprintf(tw, "Updated:\t%s\n", snap.UpdatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func writePong(w io.Writer, pong *ipc.Pong) {
	fmt.Fprintf(w, "volumeicon v%s running (pid %d", pong.Version, pong.PID)
	if pong.RSS > 0 {
		fmt.Fprintf(w, ", %.1f MiB", float64(pong.RSS)/(1<<20))
	}
	if pong.StartedAt > 0 {
		fmt.Fprintf(w, ", since %s", time.UnixMilli(pong.StartedAt).Format(time.RFC3339))
	}
	fmt.Fprintln(w, ")")
}
