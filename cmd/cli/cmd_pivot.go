package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/history"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/models"
)

var (
	pivotFile   string
	pivotJoinID bool
	pivotColor  string
)

var pivotCmd = &cobra.Command{
	Use:   "pivot [ROOM-ID]",
	Short: "Compare the measurement history of a room",
	Long: `Print the readings of every measurement point across all stored
sessions of a room, newest first. Readings that went down since the
previous session are marked as improved, readings that went up as worsened.

The sessions are read from the database, from --server, or from a JSON file
holding an array of sessions (--file).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPivot,
}

func init() {
	pivotCmd.Flags().StringVarP(&pivotFile, "file", "f", "", "read sessions from a JSON file instead of a room")
	pivotCmd.Flags().BoolVar(&pivotJoinID, "join-id", false, "match points across sessions by id instead of by name")
	pivotCmd.Flags().StringVar(&pivotColor, "color", "auto", "colour trend markers: auto, always or never")
	rootCmd.AddCommand(pivotCmd)
}

func runPivot(cmd *cobra.Command, args []string) error {
	if (pivotFile == "") == (len(args) == 0) {
		return fmt.Errorf("either a room id or --file is required")
	}

	useColor, err := colorEnabled(pivotColor, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	pivot, err := loadPivot(cmd, args)
	if err != nil {
		return err
	}

	writePivot(cmd.OutOrStdout(), pivot, useColor)
	return nil
}

func loadPivot(cmd *cobra.Command, args []string) (history.Pivot, error) {
	c := history.NewComparator()
	c.JoinByID = pivotJoinID || appFrom(cmd).cfg.Editor.JoinByID

	if pivotFile != "" {
		sessions, err := readSessionsFile(pivotFile)
		if err != nil {
			return history.Pivot{}, err
		}
		return c.Compare(sessions, nil), nil
	}

	roomID, err := uuid.Parse(args[0])
	if err != nil {
		return history.Pivot{}, fmt.Errorf("invalid room id %q: %w", args[0], err)
	}

	if client := apiClient(); client != nil {
		p, err := client.GetPivot(cmd.Context(), roomID, c.JoinByID)
		if err != nil {
			return history.Pivot{}, fmt.Errorf("failed to fetch pivot: %w", err)
		}
		return *p, nil
	}

	store, closeStore, err := appFrom(cmd).openStore()
	if err != nil {
		return history.Pivot{}, err
	}
	defer closeStore()

	sessions, err := store.ListSessions(cmd.Context(), roomID)
	if err != nil {
		return history.Pivot{}, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	return c.Compare(sessions, nil), nil
}

func readSessionsFile(path string) ([]models.MeasurementSession, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}

	var sessions []models.MeasurementSession
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("failed to parse sessions from %s: %w", path, err)
	}
	return sessions, nil
}

// colorEnabled resolves the --color flag. auto colours only terminals.
func colorEnabled(mode string, out io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		f, ok := out.(*os.File)
		return ok && term.IsTerminal(int(f.Fd())), nil
	}
	return false, fmt.Errorf("invalid --color %q (valid: auto, always, never)", mode)
}

const (
	ansiReset = "\x1b[0m"
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
)

func trendMark(t history.Trend) string {
	switch t {
	case history.TrendImproved:
		return "↓"
	case history.TrendWorsened:
		return "↑"
	case history.TrendUnchanged:
		return "="
	}
	return ""
}

func reading(r history.Reading, useColor bool) (plain, styled string) {
	v := r.Value
	if v == "" {
		v = "-"
	}
	plain = v + trendMark(r.Trend)
	styled = plain
	if useColor {
		switch r.Trend {
		case history.TrendImproved:
			styled = ansiGreen + plain + ansiReset
		case history.TrendWorsened:
			styled = ansiRed + plain + ansiReset
		}
	}
	return plain, styled
}

type pivotCell struct {
	plain, styled string
}

// writePivot prints one row per point with wall / floor readings per
// session, newest session first
func writePivot(out io.Writer, p history.Pivot, useColor bool) {
	table := make([][]pivotCell, 0, len(p.Rows)+1)

	header := []pivotCell{{plain: "Messpunkt", styled: "Messpunkt"}}
	for _, col := range p.Columns {
		label := col.Date.Format(models.DateLayout)
		if col.Current {
			label += " *"
		}
		header = append(header, pivotCell{plain: label, styled: label})
	}
	table = append(table, header)

	for _, row := range p.Rows {
		line := []pivotCell{{plain: row.Name, styled: row.Name}}
		for _, cell := range row.Cells {
			if !cell.Present {
				line = append(line, pivotCell{plain: "", styled: ""})
				continue
			}
			wp, ws := reading(cell.Wall, useColor)
			fp, fs := reading(cell.Floor, useColor)
			line = append(line, pivotCell{plain: wp + " / " + fp, styled: ws + " / " + fs})
		}
		table = append(table, line)
	}

	widths := make([]int, len(header))
	for _, line := range table {
		for i, c := range line {
			if n := utf8.RuneCountInString(c.plain); n > widths[i] {
				widths[i] = n
			}
		}
	}

	for _, line := range table {
		var b strings.Builder
		for i, c := range line {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(c.styled)
			if i < len(line)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(c.plain)))
			}
		}
		fmt.Fprintln(out, strings.TrimRight(b.String(), " "))
	}

	if len(p.Columns) > 1 {
		s := p.Summary(0)
		fmt.Fprintf(out, "\nLatest session: %d improved, %d worsened, %d unchanged\n", s.Improved, s.Worsened, s.Unchanged)
	}
	for _, c := range p.Conflicts {
		fmt.Fprintf(out, "Warning: session %s has %d points named %q, only the first is shown\n", c.SessionID, c.Count, c.Key)
	}
}
