// Command lane-plot renders a session's lane boundary history to a PNG.
//
// It draws the left and right boundary columns and the detected lane count
// against frame index, which makes drift and misdetections easy to spot
// after a capture run.
//
// Usage:
//
//	go run ./cmd/tools/lane-plot -db lane_data.db -out lanes.png
package main

import (
	"context"
	"flag"
	"image/color"
	"log"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/meridian-data/lanewatch/internal/db"
)

var (
	dbFile    = flag.String("db", "lane_data.db", "Path to the SQLite database file")
	sessionID = flag.String("session", "", "Session to plot (default: most recent)")
	outFile   = flag.String("out", "lanes.png", "Output PNG path")
)

func main() {
	flag.Parse()

	database, err := db.Open(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	ctx := context.Background()

	id := *sessionID
	if id == "" {
		sessions, err := database.Sessions(ctx, 1)
		if err != nil {
			log.Fatalf("Failed to list sessions: %v", err)
		}
		if len(sessions) == 0 {
			log.Fatal("No sessions recorded")
		}
		id = sessions[0].ID
	}

	history, err := database.DecisionHistory(ctx, id)
	if err != nil {
		log.Fatalf("Failed to load decision history: %v", err)
	}
	if len(history) == 0 {
		log.Fatalf("Session %s has no decisions", id)
	}

	leftPts := make(plotter.XYs, 0, len(history))
	rightPts := make(plotter.XYs, 0, len(history))
	countPts := make(plotter.XYs, 0, len(history))
	for _, rec := range history {
		x := float64(rec.FrameIndex)
		leftPts = append(leftPts, plotter.XY{X: x, Y: float64(rec.LeftBoundary)})
		rightPts = append(rightPts, plotter.XY{X: x, Y: float64(rec.RightBoundary)})
		countPts = append(countPts, plotter.XY{X: x, Y: float64(rec.LaneCount)})
	}

	p := plot.New()
	p.Title.Text = "Lane boundaries, session " + id
	p.X.Label.Text = "frame"
	p.Y.Label.Text = "column"

	leftLine, err := plotter.NewLine(leftPts)
	if err != nil {
		log.Fatalf("Failed to build left boundary line: %v", err)
	}
	leftLine.Color = color.RGBA{R: 220, G: 60, B: 60, A: 255}
	leftLine.Width = vg.Points(1)

	rightLine, err := plotter.NewLine(rightPts)
	if err != nil {
		log.Fatalf("Failed to build right boundary line: %v", err)
	}
	rightLine.Color = color.RGBA{R: 60, G: 60, B: 220, A: 255}
	rightLine.Width = vg.Points(1)

	p.Add(leftLine, rightLine)
	p.Legend.Add("left boundary", leftLine)
	p.Legend.Add("right boundary", rightLine)

	if err := p.Save(14*vg.Inch, 6*vg.Inch, *outFile); err != nil {
		log.Fatalf("Failed to save plot: %v", err)
	}

	// Lane count goes on its own axes: column scale would flatten it.
	pc := plot.New()
	pc.Title.Text = "Lane count, session " + id
	pc.X.Label.Text = "frame"
	pc.Y.Label.Text = "lanes"

	countLine, err := plotter.NewLine(countPts)
	if err != nil {
		log.Fatalf("Failed to build lane count line: %v", err)
	}
	countLine.Color = color.RGBA{R: 40, G: 160, B: 80, A: 255}
	countLine.Width = vg.Points(1)
	pc.Add(countLine)

	countFile := countOutputPath(*outFile)
	if err := pc.Save(14*vg.Inch, 4*vg.Inch, countFile); err != nil {
		log.Fatalf("Failed to save lane count plot: %v", err)
	}

	log.Printf("Wrote %s and %s (%d frames)", *outFile, countFile, len(history))
}

// countOutputPath derives the lane count plot path from the boundary plot
// path: lanes.png becomes lanes_count.png.
func countOutputPath(out string) string {
	ext := ".png"
	base := out
	if n := len(out) - len(ext); n > 0 && out[n:] == ext {
		base = out[:n]
	}
	return base + "_count" + ext
}
