package server

import (
	"bytes"
	"fmt"
	"time"

	"fintrack/application/dto"
	"fintrack/domain/entities"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
)

// ChartStyle defines the layout of a forecast chart
type ChartStyle struct {
	Width      int
	Height     int
	Padding    float64
	AxisGutter float64 // Space left of the plot for balance labels
	Background [3]float64
	Line       [3]float64
	ZeroLine   [4]float64
}

var defaultChartStyle = ChartStyle{
	Width:      720,
	Height:     360,
	Padding:    20,
	AxisGutter: 90,
	Background: [3]float64{0.12, 0.13, 0.16},
	Line:       [3]float64{0.2, 0.6, 0.86},
	ZeroLine:   [4]float64{0.9, 0.3, 0.3, 0.6},
}

// RenderForecastChart draws the projected balance curve as a PNG
func RenderForecastChart(forecast *dto.AccountForecast) ([]byte, error) {
	return renderForecastChart(forecast, defaultChartStyle)
}

func renderForecastChart(forecast *dto.AccountForecast, style ChartStyle) ([]byte, error) {
	start := time.Now()
	defer func() {
		log.WithFields(log.Fields{
			"duration_ms": time.Since(start).Milliseconds(),
			"points":      len(forecast.Points),
		}).Debug("Forecast chart rendered")
	}()

	dc := gg.NewContext(style.Width, style.Height)
	dc.SetRGB(style.Background[0], style.Background[1], style.Background[2])
	dc.Clear()

	titleFace, err := loadFont(gobold.TTF, 14)
	if err != nil {
		return nil, fmt.Errorf("failed to load title font: %w", err)
	}
	labelFace, err := loadFont(gomono.TTF, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to load label font: %w", err)
	}

	dc.SetFontFace(titleFace)
	dc.SetRGB(1, 1, 1)
	title := fmt.Sprintf("%s - %d day forecast from %s", forecast.AccountName, forecast.Days, forecast.AsOf)
	dc.DrawString(title, style.Padding, style.Padding+10)

	left := style.Padding + style.AxisGutter
	right := float64(style.Width) - style.Padding
	top := style.Padding + 30
	bottom := float64(style.Height) - style.Padding - 20

	// Axes
	dc.SetRGBA(1, 1, 1, 0.4)
	dc.SetLineWidth(1)
	dc.DrawLine(left, top, left, bottom)
	dc.DrawLine(left, bottom, right, bottom)
	dc.Stroke()

	if len(forecast.Points) == 0 {
		dc.SetFontFace(labelFace)
		dc.DrawStringAnchored("no data", (left+right)/2, (top+bottom)/2, 0.5, 0.5)
		return encodePNG(dc)
	}

	values := make([]float64, len(forecast.Points))
	minV, maxV := forecast.Points[0].Balance.InexactFloat64(), forecast.Points[0].Balance.InexactFloat64()
	for i, p := range forecast.Points {
		values[i] = p.Balance.InexactFloat64()
		minV = min(minV, values[i])
		maxV = max(maxV, values[i])
	}
	if maxV == minV {
		// Flat series: give it a band to sit in
		maxV += 1
		minV -= 1
	}

	x := func(i int) float64 {
		if len(values) == 1 {
			return (left + right) / 2
		}
		return left + (right-left)*float64(i)/float64(len(values)-1)
	}
	y := func(v float64) float64 {
		return bottom - (bottom-top)*(v-minV)/(maxV-minV)
	}

	if minV < 0 && maxV > 0 {
		dc.SetRGBA(style.ZeroLine[0], style.ZeroLine[1], style.ZeroLine[2], style.ZeroLine[3])
		dc.SetDash(4, 4)
		dc.DrawLine(left, y(0), right, y(0))
		dc.Stroke()
		dc.SetDash()
	}

	// Balances step on the day they change
	dc.SetRGB(style.Line[0], style.Line[1], style.Line[2])
	dc.SetLineWidth(2)
	dc.MoveTo(x(0), y(values[0]))
	for i := 1; i < len(values); i++ {
		dc.LineTo(x(i), y(values[i-1]))
		dc.LineTo(x(i), y(values[i]))
	}
	dc.Stroke()

	dc.SetFontFace(labelFace)
	dc.SetRGB(0.85, 0.85, 0.9)
	dc.DrawStringAnchored(fmt.Sprintf("%.2f", maxV), left-6, top, 1, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.2f", minV), left-6, bottom, 1, 0.5)

	first := forecast.Points[0].Date
	last := forecast.Points[len(forecast.Points)-1].Date
	dc.DrawStringAnchored(entities.FormatDate(first), left, bottom+12, 0, 0.5)
	if len(forecast.Points) > 1 {
		dc.DrawStringAnchored(entities.FormatDate(last), right, bottom+12, 1, 0.5)
	}

	return encodePNG(dc)
}

func encodePNG(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// loadFont loads a font from byte data
func loadFont(fontData []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size:       size,
		DPI:        72,
		Hinting:    font.HintingFull,
		SubPixelsX: 4,
		SubPixelsY: 4,
	})
	return face, nil
}
