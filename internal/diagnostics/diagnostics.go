// Package diagnostics renders engine state — asset store stats, loaded
// asset lists, registered services, loaded plugins — as operator-facing
// tables, for the harness CLI and any console surface built on top of
// the engine.
package diagnostics

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/forgecore/enginecore/internal/assetstore"
	"github.com/forgecore/enginecore/internal/pluginhost"
	"github.com/forgecore/enginecore/internal/serviceregistry"
	"github.com/forgecore/enginecore/pkg/strutil"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

func emptyMessage(icon, message string) string {
	return fmt.Sprintf("%s %s\n", text.FgYellow.Sprint(icon), text.FgYellow.Sprint(message))
}

func render(t table.Writer) string {
	var b strings.Builder
	t.SetOutputMirror(&b)
	t.Render()
	return b.String()
}

func shortID(id assetstore.AssetId) string {
	return hex.EncodeToString(id[:6]) + "…"
}

// RenderAssetStats renders a single-row summary table of asset store
// activity.
func RenderAssetStats(stats assetstore.Stats) string {
	t := newTable()
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("LOADED"),
		text.FgHiCyan.Sprint("READY"),
		text.FgHiCyan.Sprint("FAILED"),
		text.FgHiCyan.Sprint("LOADING"),
		text.FgHiCyan.Sprint("QUEUED"),
		text.FgHiCyan.Sprint("BYTES"),
		text.FgHiCyan.Sprint("IO µs"),
		text.FgHiCyan.Sprint("IMPORT µs"),
	})
	t.AppendRow(table.Row{
		stats.TotalLoaded, stats.ReadyCount, stats.FailedCount, stats.LoadingCount,
		stats.QueueLen, stats.BytesRead, stats.IOMicros, stats.ImportMicros,
	})
	return render(t)
}

// RenderAssetList renders up to len(rows) asset ids and their current
// state.
func RenderAssetList(rows []assetstore.ListRow) string {
	if len(rows) == 0 {
		return emptyMessage("📦", "No assets loaded")
	}

	t := newTable()
	t.AppendHeader(table.Row{text.FgHiCyan.Sprint("ASSET ID"), text.FgHiCyan.Sprint("STATE")})
	for _, row := range rows {
		state := text.FgGreen.Sprint(row.State.String())
		switch row.State {
		case assetstore.Failed:
			state = text.FgRed.Sprint(row.State.String())
		case assetstore.Loading:
			state = text.FgYellow.Sprint(row.State.String())
		}
		t.AppendRow(table.Row{shortID(row.ID), state})
	}

	var b strings.Builder
	b.WriteString(render(t))
	fmt.Fprintf(&b, "\n📦 %s %s %s\n", text.FgHiBlue.Sprint("Total:"), text.FgHiWhite.Sprint(len(rows)), text.FgHiBlue.Sprint("assets"))
	return b.String()
}

// RenderServices renders a registered-service listing from a service
// registry snapshot.
func RenderServices(snapshots []serviceregistry.Snapshot) string {
	if len(snapshots) == 0 {
		return emptyMessage("🔌", "No services registered")
	}

	t := newTable()
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("ID"),
		text.FgHiCyan.Sprint("KIND"),
		text.FgHiCyan.Sprint("GEN"),
		text.FgHiCyan.Sprint("DESCRIBE"),
	})
	for _, s := range snapshots {
		t.AppendRow(table.Row{
			text.FgHiCyan.Sprint(s.ID),
			s.Kind,
			s.Generation,
			strutil.TruncateOneLine(s.DescribeJSON, strutil.DefaultMaxLen),
		})
	}
	return render(t)
}

// RenderPlugins renders the list of plugins currently loaded by a
// pluginhost.Manager.
func RenderPlugins(infos []pluginhost.PluginInfo) string {
	if len(infos) == 0 {
		return emptyMessage("🧩", "No plugins loaded")
	}

	t := newTable()
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("ID"),
		text.FgHiCyan.Sprint("NAME"),
		text.FgHiCyan.Sprint("VERSION"),
	})
	for _, p := range infos {
		t.AppendRow(table.Row{text.FgHiCyan.Sprint(p.ID), p.Name, p.Version})
	}

	var b strings.Builder
	b.WriteString(render(t))
	fmt.Fprintf(&b, "\n🧩 %s %s %s\n", text.FgHiBlue.Sprint("Total:"), text.FgHiWhite.Sprint(len(infos)), text.FgHiBlue.Sprint("plugins"))
	return b.String()
}
