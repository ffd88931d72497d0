package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/atvirokodosprendimai/realmforge/internal/application"
	"github.com/atvirokodosprendimai/realmforge/internal/domain"
)

func printJSON(v any) error {
	b, err := jsonMarshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatMaybeTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTime(*t)
}

func uintToString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func printGameStatus(status gameStatusPayload) {
	printKV([][2]string{
		{"status", status.Status},
		{"players", strconv.FormatInt(status.Players, 10)},
		{"uptime_seconds", strconv.FormatFloat(status.Uptime, 'f', 0, 64)},
		{"ai_enabled", strconv.FormatBool(status.AIEnabled)},
	})
}

func printWorlds(items []domain.World) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			uintToString(item.ID),
			item.Name,
			formatTime(item.CreatedAt),
			formatMaybeTime(item.LastPlayedAt),
		})
	}
	printTable([]string{"ID", "NAME", "CREATED_AT", "LAST_PLAYED_AT"}, rows)
}

func printCharacter(c domain.Character, created bool) {
	rows := [][2]string{
		{"id", uintToString(c.ID)},
		{"world_id", uintToString(c.WorldID)},
		{"name", c.Name},
		{"node_id", uintToString(c.NodeID)},
		{"position", fmt.Sprintf("(%d, %d, %d)", c.X, c.Y, c.Z)},
		{"level", strconv.Itoa(c.Attributes.Level)},
		{"hp", fmt.Sprintf("%d/%d", c.Attributes.HP, c.Attributes.MaxHP)},
	}
	if created {
		rows = append(rows, [2]string{"created", "true"})
	}
	printKV(rows)
}

func printConnections(items []application.ConnectionView) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			uintToString(item.ID),
			uintToString(item.NodeA),
			uintToString(item.NodeB),
			fmt.Sprintf("(%d, %d, %d)", item.DX, item.DY, item.DZ),
			item.Direction,
		})
	}
	printTable([]string{"ID", "NODE_A", "NODE_B", "OFFSET", "DIRECTION"}, rows)
}

func printDialogue(items []domain.DialogueEntry) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		speaker := "system"
		if item.IsInput {
			speaker = "player"
		}
		rows = append(rows, []string{
			uintToString(item.ID),
			speaker,
			item.Text,
			formatTime(item.CreatedAt),
		})
	}
	printTable([]string{"ID", "SPEAKER", "TEXT", "AT"}, rows)
}
