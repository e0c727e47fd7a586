package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderChart writes an HTML line chart of reconstruction error and storage
// savings against rank.
func RenderChart(w io.Writer, title string, samples []Sample) error {
	if len(samples) == 0 {
		return fmt.Errorf("no samples to chart")
	}

	line := charts.NewLine()

	var xAxisData []string
	var maeData []opts.LineData
	var savingsData []opts.LineData
	for _, s := range samples {
		xAxisData = append(xAxisData, strconv.Itoa(s.Rank))

		psnr := "lossless"
		if !math.IsInf(s.PSNR, 0) {
			psnr = fmt.Sprintf("%.2f dB", s.PSNR)
		}
		maeData = append(maeData, opts.LineData{
			Value: s.MAE,
			Name:  fmt.Sprintf("k=%d: MAE=%.3f PSNR=%s", s.Rank, s.MAE, psnr),
		})
		savingsData = append(savingsData, opts.LineData{
			Value: s.Savings * 100,
			Name:  fmt.Sprintf("k=%d: Savings=%.1f%%", s.Rank, s.Savings*100),
		})
	}

	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%dx%d, rank 1..%d", samples[0].Width, samples[0].Height, min(samples[0].Width, samples[0].Height)),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "k",
			Type: "category",
			Data: xAxisData,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "MAE",
			Type: "value",
			Min:  0,
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
			Top:  "5%",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:  "slider",
			Start: 0,
			End:   100,
		}),
	)

	line.SetXAxis(xAxisData)

	line.AddSeries("MAE", maeData).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{
				Smooth: opts.Bool(true),
			}),
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
		)

	// Savings goes on a second Y axis; extend before adding the series.
	line.ExtendYAxis(opts.YAxis{
		Name: "Savings (%)",
		Type: "value",
		AxisLabel: &opts.AxisLabel{
			Formatter: "{value}%",
		},
	})
	line.AddSeries("Savings (%)", savingsData,
		charts.WithLineChartOpts(opts.LineChart{
			Smooth:     opts.Bool(true),
			YAxisIndex: 1,
		}),
		charts.WithLabelOpts(opts.Label{
			Show: opts.Bool(false),
		}),
	)

	return line.Render(w)
}
