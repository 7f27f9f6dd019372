package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/healthdash/internal/model"
)

var (
	timelineDate     string
	timelineCategory string
	timelineTitle    string
	timelineDetails  string
)

func newNotesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Daily notes",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add TEXT...",
		Short: "Add a note",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runNotesAddCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List notes, newest first",
		Args:  cobra.NoArgs,
		RunE:  runNotesListCmd,
	})
	return cmd
}

func runNotesAddCmd(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return fmt.Errorf("note text must not be empty")
	}
	fileCfg, err := loadSettings()
	if err != nil {
		return err
	}
	st, err := openStore(cmd.Context(), cmd, fileCfg)
	if err != nil {
		return err
	}
	defer closeStore(st)
	note, err := st.AddNote(cmd.Context(), text)
	if err != nil {
		return fmt.Errorf("failed to add note: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added note #%d\n", note.ID)
	return err
}

func runNotesListCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadSettings()
	if err != nil {
		return err
	}
	st, err := openStore(cmd.Context(), cmd, fileCfg)
	if err != nil {
		return err
	}
	defer closeStore(st)
	notes, err := st.ListNotes(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list notes: %w", err)
	}
	if len(notes) == 0 {
		logErrln("No notes yet. Add one with: healthdash notes add <text>")
		return nil
	}
	gray := color.New(color.FgHiBlack).SprintFunc()
	for _, n := range notes {
		stamp := n.CreatedAt.Local().Format("2006-01-02 15:04")
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", gray(stamp), n.Text); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newTimelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Medical timeline",
	}
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a timeline event",
		Args:  cobra.NoArgs,
		RunE:  runTimelineAddCmd,
	}
	add.Flags().StringVar(&timelineDate, "date", "", "event date (YYYY-MM-DD, default today)")
	add.Flags().StringVar(&timelineCategory, "category", "", "category, e.g. lab, visit, vaccine")
	add.Flags().StringVar(&timelineTitle, "title", "", "event title")
	add.Flags().StringVar(&timelineDetails, "details", "", "free-text details")
	_ = add.MarkFlagRequired("title")
	cmd.AddCommand(add)
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List timeline events by date",
		Args:  cobra.NoArgs,
		RunE:  runTimelineListCmd,
	})
	return cmd
}

func runTimelineAddCmd(cmd *cobra.Command, _ []string) error {
	date := strings.TrimSpace(timelineDate)
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid --date value: %w", err)
	}
	fileCfg, err := loadSettings()
	if err != nil {
		return err
	}
	st, err := openStore(cmd.Context(), cmd, fileCfg)
	if err != nil {
		return err
	}
	defer closeStore(st)
	ev, err := st.AddTimelineEvent(cmd.Context(), model.TimelineEvent{
		EventDate: date,
		Category:  strings.TrimSpace(timelineCategory),
		Title:     strings.TrimSpace(timelineTitle),
		Details:   strings.TrimSpace(timelineDetails),
	})
	if err != nil {
		return fmt.Errorf("failed to add event: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added event #%d on %s\n", ev.ID, ev.EventDate)
	return err
}

func runTimelineListCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadSettings()
	if err != nil {
		return err
	}
	st, err := openStore(cmd.Context(), cmd, fileCfg)
	if err != nil {
		return err
	}
	defer closeStore(st)
	events, err := st.ListTimeline(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list timeline: %w", err)
	}
	if len(events) == 0 {
		logErrln("Timeline is empty. Add an event with: healthdash timeline add --title <title>")
		return nil
	}
	cyan := color.New(color.FgCyan).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()
	w := cmd.OutOrStdout()
	for _, ev := range events {
		line := fmt.Sprintf("%s  %s", cyan(ev.EventDate), ev.Title)
		if ev.Category != "" {
			line += " " + gray("["+ev.Category+"]")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if ev.Details != "" {
			if _, err := fmt.Fprintf(w, "            %s\n", ev.Details); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
	}
	return nil
}
