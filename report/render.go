package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/observatorio/mcerdb/orchestrator"
)

var (
	title = color.New(color.FgYellow)
	good  = color.New(color.FgGreen)
	bad   = color.New(color.FgRed)
)

// RenderDashboard prints the enrollment tables in the terminal.
func RenderDashboard(w io.Writer, d *Dashboard) {
	title.Fprintln(w, "\nInscripciones por año")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Año", "Inscripciones", "Personas"})
	for _, r := range d.PerYear {
		table.Append([]string{fmt.Sprintf("%d", r.Year), fmt.Sprintf("%d", r.Enrollments), fmt.Sprintf("%d", r.Persons)})
	}
	table.Render()

	title.Fprintln(w, "\nCobertura de nombre_curso")
	table = tablewriter.NewWriter(w)
	table.SetHeader([]string{"Año", "Con nombre", "Sin nombre", "Cobertura"})
	for _, r := range d.Coverage {
		table.Append([]string{
			fmt.Sprintf("%d", r.Year),
			fmt.Sprintf("%d", r.WithName),
			fmt.Sprintf("%d", r.WithoutName),
			percent(r.WithName, r.WithName+r.WithoutName),
		})
	}
	table.Render()

	heading := "\nInscripciones por categoría de curso"
	if d.Year != 0 {
		heading += fmt.Sprintf(" (%d)", d.Year)
	}
	title.Fprintln(w, heading)
	table = tablewriter.NewWriter(w)
	table.SetHeader([]string{"Categoría", "Cursos", "Inscripciones"})
	for _, c := range d.Categories {
		table.Append([]string{c.Category, fmt.Sprintf("%d", c.Courses), fmt.Sprintf("%d", c.Enrollments)})
	}
	table.Render()

	if len(d.Runs) == 0 {
		return
	}
	title.Fprintln(w, "\nÚltimas ejecuciones")
	table = tablewriter.NewWriter(w)
	table.SetHeader([]string{"Run", "Inicio", "Estado", "OK", "Fallidas"})
	for _, r := range d.Runs {
		table.Append([]string{
			r.ID.String()[:8],
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Status,
			fmt.Sprintf("%d", r.Succeeded),
			fmt.Sprintf("%d", r.Failed),
		})
	}
	table.Render()
}

func percent(part, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(part)*100/float64(total))
}

// RenderSummary prints one line per unit and the run totals.
func RenderSummary(w io.Writer, sum *orchestrator.Summary) {
	title.Fprintf(w, "\nResumen de importación %s\n", sum.RunID)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Fuente", "Estado", "Leídas", "Omitidas", "Cambios", "Duración", "Error"})
	for _, r := range sum.Results {
		read, skipped, changed := "-", "-", "-"
		if r.Stats != nil {
			read = fmt.Sprintf("%d", r.Stats.RowsRead)
			skipped = fmt.Sprintf("%d", r.Stats.RowsSkipped)
			changed = fmt.Sprintf("%d", r.Stats.Changed())
		}
		if r.Err != nil {
			changed = "0"
		}
		errText := ""
		if r.Err != nil {
			errText = truncate(r.Err.Error(), 60)
		}
		table.Append([]string{
			fmt.Sprintf("%d", r.Position),
			r.Name,
			r.State.String(),
			read, skipped, changed,
			r.Duration.Round(time.Millisecond).String(),
			errText,
		})
	}
	table.Render()

	line := fmt.Sprintf("%d exitosas, %d fallidas, %d pendientes en %s",
		sum.Succeeded, sum.Failed, sum.Pending(), sum.Elapsed.Round(time.Millisecond))
	if sum.OK() {
		good.Fprintln(w, line)
	} else {
		bad.Fprintln(w, line)
	}
	if sum.Aborted && sum.AbortErr != nil {
		bad.Fprintf(w, "Ejecución abortada: %v\n", sum.AbortErr)
	}
}

// RenderFailureOutput prints the captured log of every failed unit.
func RenderFailureOutput(w io.Writer, sum *orchestrator.Summary) {
	for _, r := range sum.Results {
		if r.State != orchestrator.Failed || r.Output == "" {
			continue
		}
		bad.Fprintf(w, "\n--- %s ---\n", r.Name)
		fmt.Fprint(w, strings.TrimRight(r.Output, "\n")+"\n")
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
