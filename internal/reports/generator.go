package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/fdg312/lifeos/internal/baseline"
	"github.com/fdg312/lifeos/internal/relationships"
	"github.com/fdg312/lifeos/internal/savedmeals"
	"github.com/jung-kurt/gofpdf"
)

// HomeSource: главная страница на момент снимка
type HomeSource interface {
	Home(ctx context.Context, userID string) (*baseline.HomeResponse, error)
}

type SavedMealsSource interface {
	List(ctx context.Context, userID string) ([]savedmeals.SavedMealDTO, error)
}

type RelationshipsSource interface {
	List(ctx context.Context, userID string) *relationships.ListResponse
}

// Snapshot: всё, что попадает в отчёт
type Snapshot struct {
	UserID        string
	Day           string
	Home          *baseline.HomeResponse
	SavedMeals    []savedmeals.SavedMealDTO
	Relationships *relationships.ListResponse
}

// Generator generates PDF/CSV reports
type Generator struct {
	home          HomeSource
	savedMeals    SavedMealsSource
	relationships RelationshipsSource
}

func NewGenerator(home HomeSource, savedMeals SavedMealsSource, relationships RelationshipsSource) *Generator {
	return &Generator{home: home, savedMeals: savedMeals, relationships: relationships}
}

// Collect собирает снимок; relationships необязательны
func (g *Generator) Collect(ctx context.Context, userID, day string) (*Snapshot, error) {
	home, err := g.home.Home(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline: %w", err)
	}

	meals, err := g.savedMeals.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load saved meals: %w", err)
	}

	snap := &Snapshot{UserID: userID, Day: day, Home: home, SavedMeals: meals}
	if g.relationships != nil {
		snap.Relationships = g.relationships.List(ctx, userID)
	}
	return snap, nil
}

func (g *Generator) Render(snap *Snapshot, format string) ([]byte, error) {
	switch format {
	case FormatPDF:
		return g.generatePDF(snap)
	case FormatCSV:
		return g.generateCSV(snap)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// csvRows: section, item, metric, value; одна строка на значение
func csvRows(snap *Snapshot) [][]string {
	rows := [][]string{{"section", "item", "metric", "value"}}
	add := func(section, item, metric, value string) {
		rows = append(rows, []string{section, item, metric, value})
	}

	if n := snap.Home.Nutrition; n != nil {
		add("nutrition", snap.Day, "calories", formatNum(n.Calories, 0))
		add("nutrition", snap.Day, "protein_g", formatNum(n.ProteinG, 1))
		add("nutrition", snap.Day, "calorie_goal", formatNum(n.CalorieGoal, 0))
		add("nutrition", snap.Day, "protein_goal_g", formatNum(n.ProteinGoalG, 1))
		add("nutrition", snap.Day, "calories_remaining", formatNum(n.CaloriesRemaining, 0))
		add("nutrition", snap.Day, "protein_remaining", formatNum(n.ProteinRemaining, 1))
	}

	if c := snap.Home.Cashflow; c != nil {
		add("cashflow", "7d", "current_balance", formatNum(c.CurrentBalance, 2))
		add("cashflow", "7d", "projected_balance_7d", formatNum(c.ProjectedBalance7d, 2))
		add("cashflow", "7d", "delta_7d", formatNum(c.Delta7d, 2))
	}

	for _, s := range snap.Home.Signals {
		add("signals", s.SignalKey, "title", s.Title)
		add("signals", s.SignalKey, "severity", strconv.Itoa(s.Severity))
		add("signals", s.SignalKey, "score", strconv.FormatFloat(s.Score, 'f', 2, 64))
	}

	if t := snap.Home.MicroTrends; t != nil {
		add("micro_trends", "7d", "calories_avg_7d", formatNum(t.CaloriesAvg7d, 0))
		add("micro_trends", "7d", "calories_delta_vs_prev_7d", formatNum(t.CaloriesDeltaVsPrev7d, 0))
		add("micro_trends", "7d", "protein_avg_7d", formatNum(t.ProteinAvg7d, 1))
		add("micro_trends", "7d", "protein_delta_vs_prev_7d", formatNum(t.ProteinDeltaVsPrev7d, 1))
		if t.NutritionDaysLogged7d != nil {
			add("micro_trends", "7d", "nutrition_days_logged_7d", strconv.Itoa(*t.NutritionDaysLogged7d))
		}
	}

	for _, m := range snap.SavedMeals {
		add("saved_meals", m.Name, "calories", formatNum(m.Calories, 0))
		add("saved_meals", m.Name, "protein_g", formatNum(m.ProteinG, 1))
		add("saved_meals", m.Name, "carbs_g", formatNum(m.CarbsG, 1))
		add("saved_meals", m.Name, "fat_g", formatNum(m.FatG, 1))
	}

	if snap.Relationships != nil {
		for _, r := range snap.Relationships.Commitments {
			add("relationships", r.Name, "status", r.Status)
			add("relationships", r.Name, "completed_count", strconv.Itoa(r.CompletedCount))
			add("relationships", r.Name, "days_remaining", strconv.Itoa(r.DaysRemaining))
		}
	}

	return rows
}

func (g *Generator) generateCSV(snap *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.WriteAll(csvRows(snap)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// generatePDF: встроенный шрифт Helvetica, поэтому только latin-1
func (g *Generator) generatePDF(snap *Snapshot) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Baseline snapshot")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Day: %s", snap.Day))
	pdf.Ln(12)

	section := func(title string) {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, title)
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
	}
	line := func(label, value string) {
		pdf.Cell(0, 6, tr(fmt.Sprintf("%s: %s", label, value)))
		pdf.Ln(5)
	}

	section("Today")
	if n := snap.Home.Nutrition; n != nil {
		line("Calories", formatNumOr(n.Calories, 0, "-")+" / "+formatNumOr(n.CalorieGoal, 0, "no goal"))
		line("Protein", formatNumOr(n.ProteinG, 1, "-")+" g / "+formatNumOr(n.ProteinGoalG, 1, "no goal"))
		line("Calories remaining", formatNumOr(n.CaloriesRemaining, 0, "-"))
	} else {
		line("Nutrition", "nothing logged")
	}
	pdf.Ln(4)

	section("Cashflow")
	if c := snap.Home.Cashflow; c != nil {
		line("Current balance", formatNumOr(c.CurrentBalance, 2, "-"))
		line("Projected in 7 days", formatNumOr(c.ProjectedBalance7d, 2, "-"))
		line("Change", formatNumOr(c.Delta7d, 2, "-"))
	} else {
		line("Cashflow", "no data")
	}
	pdf.Ln(4)

	section("Signals")
	if len(snap.Home.Signals) == 0 {
		line("Signals", "none active")
	}
	for _, s := range snap.Home.Signals {
		line(s.Title, fmt.Sprintf("severity %d, score %.2f", s.Severity, s.Score))
	}
	pdf.Ln(4)

	if t := snap.Home.MicroTrends; t != nil {
		section("Micro trends")
		line("Calories avg 7d", formatNumOr(t.CaloriesAvg7d, 0, "-"))
		line("vs previous 7d", formatNumOr(t.CaloriesDeltaVsPrev7d, 0, "-"))
		line("Protein avg 7d", formatNumOr(t.ProteinAvg7d, 1, "-"))
		pdf.Ln(4)
	}

	if snap.Relationships != nil && len(snap.Relationships.Commitments) > 0 {
		section("Relationships")
		for _, r := range snap.Relationships.Commitments {
			line(r.Name, fmt.Sprintf("%s (%d/%d)", r.StatusLabel, r.CompletedCount, r.TargetCount))
		}
		pdf.Ln(4)
	}

	section("Saved meals")
	drawSavedMealsTable(pdf, tr, snap.SavedMeals)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func drawSavedMealsTable(pdf *gofpdf.Fpdf, tr func(string) string, meals []savedmeals.SavedMealDTO) {
	pdf.SetFont("Helvetica", "", 8)

	pdf.CellFormat(70, 6, "Name", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Calories", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Protein g", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Carbs g", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Fat g", "1", 1, "C", false, 0, "")

	for _, m := range meals {
		pdf.CellFormat(70, 6, tr(m.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, formatNum(m.Calories, 0), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, formatNum(m.ProteinG, 1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, formatNum(m.CarbsG, 1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, formatNum(m.FatG, 1), "1", 1, "C", false, 0, "")
	}
}

func formatNum(v *float64, prec int) string {
	return formatNumOr(v, prec, "")
}

func formatNumOr(v *float64, prec int, empty string) string {
	if v == nil {
		return empty
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}
