package cli

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/spf13/cobra"

	"github.com/Flyrell/logbook/internal/attendance"
	"github.com/Flyrell/logbook/internal/stringutil"
)

var (
	pdfHeaderColor = props.Color{Red: 50, Green: 50, Blue: 50}
	pdfMutedColor  = props.Color{Red: 120, Green: 120, Blue: 120}
	pdfLineColor   = props.Color{Red: 200, Green: 200, Blue: 200}
)

var exportCmd = LeafCommand{
	Use:   "export",
	Short: "Export a week's attendance sheet as PDF",
	Args:  cobra.NoArgs,
	IntFlags: []IntFlag{
		{Name: "week", Shorthand: "w", Usage: "program week (default: current week)"},
	},
	StrFlags: []StringFlag{
		{Name: "output", Shorthand: "o", Usage: "output file (default: logbook-<user>-week-NN.pdf)"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		homeDir, err := getContextPaths()
		if err != nil {
			return err
		}
		weekFlag, _ := cmd.Flags().GetInt("week")
		outputFlag, _ := cmd.Flags().GetString("output")
		return runExport(cmd, homeDir, weekFlag, outputFlag, time.Now)
	},
}.Build()

// sheet is the printable form of one week.
type sheet struct {
	User    string
	View    weekView
	Printed time.Time
}

func runExport(cmd *cobra.Command, homeDir string, weekFlag int, outputFlag string, nowFunc func() time.Time) error {
	sess, err := openSession(cmd, homeDir, nowFunc)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	if err := sess.selectWeek(cmd, weekFlag); err != nil {
		return err
	}

	s := sheet{User: sess.cfg.User, View: viewOf(sess.tracker), Printed: nowFunc()}

	outputPath := outputFlag
	if outputPath == "" {
		slug := stringutil.Slugify(s.User)
		if slug == "" {
			slug = "user"
		}
		outputPath = fmt.Sprintf("logbook-%s-week-%02d.pdf", slug, s.View.viewed)
	}

	if err := renderSheetPDF(s, outputPath); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", Text(fmt.Sprintf("exported week %d to %s", s.View.viewed, Primary(outputPath))))
	return nil
}

// renderSheetPDF generates the attendance sheet and saves it to outputPath.
func renderSheetPDF(s sheet, outputPath string) error {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	m.AddRow(14,
		text.NewCol(12, "Attendance logbook", props.Text{
			Style: fontstyle.Bold,
			Size:  16,
			Color: &pdfHeaderColor,
		}),
	)
	m.AddRow(8,
		text.NewCol(8, fmt.Sprintf("%s · %s", s.User, weekTitle(s.View)), props.Text{
			Size:  11,
			Color: &pdfMutedColor,
		}),
		text.NewCol(4, "printed "+s.Printed.Format("2006-01-02 15:04"), props.Text{
			Size:  9,
			Align: align.Right,
			Color: &pdfMutedColor,
		}),
	)
	m.AddRow(4, line.NewCol(12, props.Line{Color: &pdfLineColor}))
	m.AddRow(4)

	header := props.Text{Style: fontstyle.Bold, Size: 10, Color: &pdfHeaderColor}
	m.AddRow(8,
		text.NewCol(1, "Day", header),
		text.NewCol(2, "Date", header),
		text.NewCol(1, "In", header),
		text.NewCol(1, "Out", header),
		text.NewCol(5, "Activity", header),
		text.NewCol(2, "Worked", withAlign(header, align.Right)),
	)

	for i, d := range s.View.days {
		cell := props.Text{Size: 9}
		ds := s.View.summary.Days[i]
		worked := ""
		switch {
		case ds.Open:
			worked = "open"
		case d.State() == attendance.SignedOut:
			worked = attendance.FormatMinutes(ds.Minutes)
		}

		m.AddRow(7,
			text.NewCol(1, string(d.Day), cell),
			text.NewCol(2, d.Key(), cell),
			text.NewCol(1, orDash(d.TimeIn), cell),
			text.NewCol(1, orDash(d.TimeOut), cell),
			text.NewCol(5, d.Activity, cell),
			text.NewCol(2, worked, withAlign(cell, align.Right)),
		)
	}

	m.AddRow(4, line.NewCol(12, props.Line{Color: &pdfLineColor}))
	m.AddRow(10,
		text.NewCol(9, "Total", props.Text{
			Style: fontstyle.Bold,
			Size:  12,
			Color: &pdfHeaderColor,
		}),
		text.NewCol(3, summaryLine(s.View.summary), props.Text{
			Style: fontstyle.Bold,
			Size:  10,
			Align: align.Right,
			Color: &pdfHeaderColor,
		}),
	)

	doc, err := m.Generate()
	if err != nil {
		return fmt.Errorf("generating PDF: %w", err)
	}

	return doc.Save(outputPath)
}

func withAlign(p props.Text, a align.Type) props.Text {
	p.Align = a
	return p
}
