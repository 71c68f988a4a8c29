// Package report renders a finished (or running) fight as a printable PDF
// chronicle: a health chart over the course of the fight followed by the
// full combat log.
package report

import (
	"bytes"
	"fmt"
	"math"

	"github.com/jung-kurt/gofpdf/v2"

	"cardquest/internal/combat"
)

const (
	pageW      = 595.0
	pageH      = 842.0
	margin     = 40.0
	titleSize  = 18
	fontSize   = 9
	lineHeight = 12.0
	chartH     = 140.0
)

// Fight returns PDF bytes for the fight described by v and its event log.
func Fight(v combat.View, log []combat.Event) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	newPage := func() {
		pdf.AddPage()
		pdf.SetFillColor(245, 235, 210)
		pdf.Rect(0, 0, pageW, pageH, "F")
		drawWavyBorder(pdf)
		pdf.SetTextColor(60, 35, 20)
	}
	newPage()

	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.SetXY(margin+10, margin+14)
	pdf.CellFormat(pageW-2*margin-20, 20, tr(fmt.Sprintf("You vs. %s", v.Enemy.Name)), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", fontSize+1)
	pdf.SetX(margin + 10)
	pdf.CellFormat(pageW-2*margin-20, 14, tr(summary(v)), "", 1, "C", false, 0, "")

	top := pdf.GetY() + 16
	drawHealthChart(pdf, margin+20, top, pageW-2*margin-40, chartH, v, log)

	y := top + chartH + 30
	pdf.SetFont("Helvetica", "B", fontSize+2)
	pdf.SetXY(margin+20, y)
	pdf.CellFormat(0, 14, "Chronicle", "", 1, "L", false, 0, "")
	y += 18

	pdf.SetFont("Helvetica", "", fontSize)
	width := pageW - 2*margin - 40
	for _, ev := range log {
		text, style := logLine(ev)
		if text == "" {
			continue
		}
		lines := pdf.SplitLines([]byte(tr(text)), width)
		if y+float64(len(lines))*lineHeight > pageH-margin-20 {
			newPage()
			pdf.SetFont("Helvetica", "", fontSize)
			y = margin + 20
		}
		pdf.SetFont("Helvetica", style, fontSize)
		for _, l := range lines {
			pdf.SetXY(margin+20, y)
			pdf.CellFormat(width, lineHeight, string(l), "", 0, "L", false, 0, "")
			y += lineHeight
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func summary(v combat.View) string {
	if v.Result == nil {
		return fmt.Sprintf("In progress, turn %d", v.Turn)
	}
	switch v.Result.Outcome {
	case combat.OutcomeVictory:
		return fmt.Sprintf("Victory in %d turns", v.Result.Turns)
	case combat.OutcomeFled:
		return fmt.Sprintf("Fled on turn %d", v.Result.Turns)
	default:
		return fmt.Sprintf("Defeated on turn %d", v.Result.Turns)
	}
}

// logLine picks the events worth printing. Turn banners are bold.
func logLine(ev combat.Event) (string, string) {
	switch ev.Kind {
	case combat.EventMessage:
		if len(ev.Text) > 3 && ev.Text[:3] == "---" {
			return ev.Text, "B"
		}
		return ev.Text, ""
	case combat.EventResult:
		if ev.Result != nil {
			return fmt.Sprintf("Outcome: %s", ev.Result.Outcome), "B"
		}
	}
	return "", ""
}

// healthSeries extracts the health percentage of side after every change.
func healthSeries(log []combat.Event, side combat.Side) []float64 {
	var out []float64
	for _, ev := range log {
		if ev.Kind != combat.EventHealth || ev.Side != side || ev.Max <= 0 {
			continue
		}
		out = append(out, float64(ev.Value)/float64(ev.Max)*100)
	}
	return out
}

func drawHealthChart(pdf *gofpdf.Fpdf, x, y, w, h float64, v combat.View, log []combat.Event) {
	pdf.SetDrawColor(80, 50, 30)
	pdf.SetLineWidth(1)
	pdf.Rect(x, y, w, h, "D")

	pdf.SetDashPattern([]float64{2, 3}, 0)
	pdf.SetLineWidth(0.5)
	for _, pct := range []float64{25, 50, 75} {
		ly := y + h - h*pct/100
		pdf.Line(x, ly, x+w, ly)
	}
	pdf.SetDashPattern([]float64{}, 0)

	series := []struct {
		side  combat.Side
		label string
		r, g  int
		b     int
	}{
		{combat.SidePlayer, "You", 40, 110, 50},
		{combat.SideEnemy, v.Enemy.Name, 180, 40, 40},
	}
	pdf.SetFont("Helvetica", "", fontSize-1)
	for i, s := range series {
		points := healthSeries(log, s.side)
		pdf.SetDrawColor(s.r, s.g, s.b)
		pdf.SetLineWidth(1.8)
		if len(points) == 1 {
			points = append(points, points[0])
		}
		for j := 0; j+1 < len(points); j++ {
			x1 := x + w*float64(j)/float64(len(points)-1)
			x2 := x + w*float64(j+1)/float64(len(points)-1)
			pdf.Line(x1, y+h-h*clampPct(points[j])/100, x2, y+h-h*clampPct(points[j+1])/100)
		}
		// legend
		lx := x + float64(i)*110
		pdf.Line(lx, y+h+12, lx+16, y+h+12)
		pdf.SetTextColor(60, 35, 20)
		pdf.SetXY(lx+20, y+h+7)
		pdf.CellFormat(80, 10, s.label, "", 0, "L", false, 0, "")
	}
	pdf.SetLineWidth(1)
	pdf.SetDrawColor(80, 50, 30)
}

func clampPct(p float64) float64 {
	return math.Max(0, math.Min(100, p))
}

// drawWavyBorder draws an uneven ink border around the page.
func drawWavyBorder(pdf *gofpdf.Fpdf) {
	pts := wavyRectPoints(margin/2, margin/2, pageW-margin, pageH-margin, 14, 3)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(2)
	pdf.Polygon(pts, "D")
	pdf.SetLineWidth(1)
	pdf.SetDrawColor(80, 50, 30)
}

// wavyRectPoints walks the rectangle clockwise with a sinusoidal wobble on
// each edge.
func wavyRectPoints(x, y, w, h float64, steps int, amp float64) []gofpdf.PointType {
	pts := make([]gofpdf.PointType, 0, steps*4+1)
	edge := func(x0, y0, dx, dy, freq float64, from int) {
		for i := from; i <= steps; i++ {
			t := float64(i) / float64(steps)
			pts = append(pts, gofpdf.PointType{
				X: x0 + t*dx + amp*math.Sin(float64(i)*freq),
				Y: y0 + t*dy + amp*math.Cos(float64(i)*freq),
			})
		}
	}
	edge(x, y, w, 0, 0.7, 0)
	edge(x+w, y, 0, h, 0.6, 1)
	edge(x+w, y+h, -w, 0, 0.8, 1)
	edge(x, y+h, 0, -h, 0.5, 1)
	return pts
}
