// Package actions holds tea commands shared by several screens. Anything
// that may touch the network or the disk runs inside a command so the
// update loop never blocks on it.
package actions

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studyplan/internal/syncer"
	"github.com/abhisek/studyplan/internal/tracker"
)

// Timeout bounds a single interactive sync operation.
const Timeout = 20 * time.Second

// NoticeMsg asks the app to flash a one-line message in the footer.
type NoticeMsg struct {
	Text string
	Err  bool
}

// Notify returns a command that flashes text.
func Notify(format string, args ...any) tea.Cmd {
	text := fmt.Sprintf(format, args...)
	return func() tea.Msg { return NoticeMsg{Text: text} }
}

// Fail returns a command that flashes err.
func Fail(err error) tea.Cmd {
	return func() tea.Msg { return NoticeMsg{Text: err.Error(), Err: true} }
}

// SyncDoneMsg reports a finished sync operation. Screens that show sync
// state refresh on it.
type SyncDoneMsg struct {
	Op     string
	Handle string
	OK     bool
	Err    error
}

// Export writes a backup for the active user into dir.
func Export(t *tracker.Tracker, dir string) tea.Cmd {
	return func() tea.Msg {
		path, err := t.ExportTo(dir)
		if err != nil {
			return NoticeMsg{Text: "export failed: " + err.Error(), Err: true}
		}
		return NoticeMsg{Text: "Saved backup to " + path}
	}
}

// Sync runs op against the active user's reconciler off the update loop.
// Supported ops are push, pull, create, connect, disconnect, auto-on and
// auto-off; arg carries the handle for connect.
func Sync(t *tracker.Tracker, op, arg string) tea.Cmd {
	return func() tea.Msg {
		ws, err := t.Active()
		if err != nil {
			return SyncDoneMsg{Op: op, Err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), Timeout)
		defer cancel()
		return runSync(ctx, ws.Sync, op, arg)
	}
}

func runSync(ctx context.Context, rec *syncer.Reconciler, op, arg string) SyncDoneMsg {
	done := SyncDoneMsg{Op: op}
	switch op {
	case "push":
		done.OK = rec.Push(ctx)
		done.Err = rec.LastError()
	case "pull":
		done.OK = rec.Reconcile(ctx)
		done.Err = rec.LastError()
	case "create":
		done.Handle, done.Err = rec.CreateRemote(ctx)
		done.OK = done.Err == nil
	case "connect":
		done.Err = rec.Connect(ctx, arg)
		done.Handle = arg
		done.OK = done.Err == nil
	case "disconnect":
		done.Err = rec.Disconnect(ctx)
		done.OK = done.Err == nil
	case "auto-on", "auto-off":
		done.Err = rec.SetAutoSync(ctx, op == "auto-on")
		done.OK = done.Err == nil
	default:
		done.Err = fmt.Errorf("unknown sync operation %q", op)
	}
	return done
}

// Describe renders a SyncDoneMsg for the footer.
func (m SyncDoneMsg) Describe() NoticeMsg {
	if m.Err != nil {
		return NoticeMsg{Text: fmt.Sprintf("sync %s failed: %v", m.Op, m.Err), Err: true}
	}
	switch m.Op {
	case "push":
		if !m.OK {
			return NoticeMsg{Text: "Nothing to push: sync is not connected"}
		}
		return NoticeMsg{Text: "Progress pushed"}
	case "pull":
		if m.OK {
			return NoticeMsg{Text: "Newer remote progress adopted"}
		}
		return NoticeMsg{Text: "Local progress is up to date"}
	case "create":
		return NoticeMsg{Text: "Created remote " + m.Handle + ". Use it to connect other devices."}
	case "connect":
		return NoticeMsg{Text: "Connected to " + m.Handle}
	case "disconnect":
		return NoticeMsg{Text: "Sync disconnected, progress stays local"}
	case "auto-on":
		return NoticeMsg{Text: "Auto-sync on"}
	case "auto-off":
		return NoticeMsg{Text: "Auto-sync off"}
	}
	return NoticeMsg{Text: "sync " + m.Op + " done"}
}
