// Command roomctl inspects the rooms persisted by the scheduler.
//
//	roomctl list          one row per stored room
//	roomctl show <code>   the member roster of one room
//
// The backend is chosen with the same SCHEDULER_* variables as the server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/example/availability-scheduler/internal/config"
	"github.com/example/availability-scheduler/internal/persistence"
	"github.com/example/availability-scheduler/internal/persistence/backend"
)

const usage = "usage: roomctl list | roomctl show <code>"

var errUsage = errors.New(usage)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.LoadStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	store, err := backend.Open(ctx, backend.Settings{
		Backend:       cfg.StoreBackend,
		SnapshotPath:  cfg.SnapshotPath,
		SQLiteDSN:     cfg.SQLiteDSN,
		PostgresDSN:   cfg.PostgresDSN,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
		BadgerPath:    cfg.BadgerPath,
	}, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open store:", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := run(ctx, os.Args[1:], os.Stdout, store, time.Now()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func run(ctx context.Context, args []string, out io.Writer, store persistence.SnapshotStore, now time.Time) error {
	if len(args) == 0 {
		return errUsage
	}
	snapshots, err := store.Load(ctx, now)
	if err != nil {
		return fmt.Errorf("load snapshots: %w", err)
	}
	slices.SortFunc(snapshots, func(a, b persistence.RoomSnapshot) int {
		return strings.Compare(a.Code, b.Code)
	})

	switch args[0] {
	case "list":
		renderRooms(out, snapshots)
		return nil
	case "show":
		if len(args) != 2 {
			return errUsage
		}
		idx := slices.IndexFunc(snapshots, func(s persistence.RoomSnapshot) bool { return s.Code == args[1] })
		if idx < 0 {
			return fmt.Errorf("room %s not found", args[1])
		}
		renderMembers(out, snapshots[idx])
		return nil
	default:
		return errUsage
	}
}

func newTable(out io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func renderRooms(out io.Writer, snapshots []persistence.RoomSnapshot) {
	table := newTable(out, []string{"Code", "Title", "Zone", "Dates", "Members", "Expires"})
	for _, s := range snapshots {
		s = s.WithDefaults()
		table.Append([]string{
			s.Code,
			s.Title,
			s.TimeZone,
			s.StartDate + ".." + s.EndDate,
			strconv.Itoa(len(s.Members)),
			formatTime(s.ExpiresAt),
		})
	}
	table.Render()
}

func renderMembers(out io.Writer, s persistence.RoomSnapshot) {
	table := newTable(out, []string{"Member", "Name", "Role", "Unavailable", "Confirmed", "Last seen"})
	for _, m := range s.Members {
		role := ""
		if m.ID == s.OwnerMemberID {
			role = "host"
		}
		confirmed := ""
		if m.ConfirmedAt != nil {
			confirmed = formatTime(*m.ConfirmedAt)
		}
		table.Append([]string{
			m.ID,
			m.Name,
			role,
			strconv.Itoa(len(m.Unavailable)),
			confirmed,
			formatTime(m.LastSeenAt),
		})
	}
	table.Render()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
