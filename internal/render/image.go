package render

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/verte-zerg/intercept/internal/model"
)

const (
	imageWidth  = 8 * vg.Inch
	imageHeight = 6 * vg.Inch
)

var (
	missileColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	pathColor    = color.RGBA{R: 0xff, G: 0xa5, B: 0x00, A: 0xff}
	startColor   = color.RGBA{R: 0xff, A: 0xff}
)

// SaveTrajectoryImage writes the trajectory plot to path. The format follows
// the file extension (png, svg, pdf, ...).
func SaveTrajectoryImage(path string, sc model.Scenario, traj model.Trajectory) error {
	p, err := trajectoryPlot(sc, traj)
	if err != nil {
		return err
	}
	if err := p.Save(imageWidth, imageHeight, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}

func trajectoryPlot(sc model.Scenario, traj model.Trajectory) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = TrajectoryTitle(sc)
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(plotter.NewGrid())

	start, err := plotter.NewScatter(plotter.XYs{{X: sc.TargetX, Y: sc.TargetY}})
	if err != nil {
		return nil, fmt.Errorf("target start: %w", err)
	}
	start.GlyphStyle.Color = startColor
	start.GlyphStyle.Shape = draw.CircleGlyph{}
	start.GlyphStyle.Radius = vg.Points(4)

	// The target moves in a straight line, so two points cover its path.
	last := traj.TEnd
	targetPath, err := plotter.NewLine(plotter.XYs{
		{X: sc.TargetX, Y: sc.TargetY},
		{X: sc.TargetX + sc.TargetVX*last, Y: sc.TargetY + sc.TargetVY*last},
	})
	if err != nil {
		return nil, fmt.Errorf("target path: %w", err)
	}
	targetPath.LineStyle.Color = pathColor
	targetPath.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}

	missile, err := plotter.NewLine(samplesXY(traj.Projectile))
	if err != nil {
		return nil, fmt.Errorf("missile path: %w", err)
	}
	missile.LineStyle.Color = missileColor
	missile.LineStyle.Width = vg.Points(1.5)

	p.Add(start, targetPath, missile)
	p.Legend.Add(fmt.Sprintf("Target start (a=%g, b=%g)", sc.TargetX, sc.TargetY), start)
	p.Legend.Add("Target path", targetPath)
	p.Legend.Add("Missile", missile)
	p.Legend.Top = true
	return p, nil
}

func samplesXY(samples []model.Sample) plotter.XYs {
	xys := make(plotter.XYs, len(samples))
	for i, s := range samples {
		xys[i].X = s.X
		xys[i].Y = s.Y
	}
	return xys
}
