/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/google/uuid"

	"github.com/humaidq/ennu/biomarker"
)

// chartBands are the horizontal reference lines drawn on a trend chart.
type chartBands struct {
	NormalMin  *float64
	NormalMax  *float64
	OptimalMin *float64
	OptimalMax *float64
}

// BiomarkerChart renders the reading history of one biomarker as an
// interactive line chart.
func BiomarkerChart(c flamego.Context, s session.Session, svc *Services) {
	userID, status, err := subjectUser(c, s)
	if err != nil {
		respondError(c, status, err.Error())
		return
	}

	key, ok := biomarker.CanonicalKey(c.Param("key"))
	if !ok {
		respondError(c, http.StatusNotFound, "unknown biomarker")
		return
	}

	ctx := c.Request().Context()
	history, err := biomarker.LoadHistory(ctx, svc.Meta, userID, key)
	if err != nil {
		logger.Error("Failed to load biomarker history", "user_id", userID, "biomarker", key, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to load history")
		return
	}
	if len(history) == 0 {
		respondError(c, http.StatusNotFound, "no readings for "+key)
		return
	}

	title, unit := key, ""
	if def, found := biomarker.Lookup(key); found {
		title, unit = def.Name, def.Unit
	}

	var bands chartBands
	rr, err := svc.Ranges.GetReferenceRange(ctx, key)
	switch {
	case errors.Is(err, biomarker.ErrReferenceRangeNotFound):
	case err != nil:
		logger.Warn("Failed to get reference range for chart", "biomarker", key, "error", err)
	default:
		bands = bandsFor(ctx, svc, rr, userID)
		if unit == "" {
			unit = rr.Unit
		}
	}

	chartHTML, err := renderBiomarkerChart(title, unit, history, bands)
	if err != nil {
		logger.Error("Failed to render chart", "biomarker", key, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to render chart")
		return
	}

	c.ResponseWriter().Header().Set("Content-Type", "text/html; charset=utf-8")
	c.ResponseWriter().WriteHeader(http.StatusOK)
	if _, err := c.ResponseWriter().Write([]byte(chartHTML)); err != nil {
		logger.Warn("Failed to write chart", "error", err)
	}
}

// bandsFor resolves the optimal band for the user's demographics when they
// are known and otherwise falls back to the base bounds.
func bandsFor(ctx context.Context, svc *Services, rr *biomarker.ReferenceRange, userID uuid.UUID) chartBands {
	bands := chartBands{
		NormalMin:  rr.NormalMin,
		NormalMax:  rr.NormalMax,
		OptimalMin: rr.OptimalMin,
		OptimalMax: rr.OptimalMax,
	}

	demo, err := biomarker.LoadDemographics(ctx, svc.Meta, userID)
	if err != nil {
		return bands
	}

	age, hasAge := demo.Age(svc.now())
	if !hasAge || demo.Gender == "" {
		return bands
	}

	if lo, hi, resolved := rr.ResolveOptimal(age, demo.Gender); resolved {
		bands.OptimalMin = &lo
		bands.OptimalMax = &hi
	}
	return bands
}

// latestPerDay keeps the newest reading for each calendar day, oldest day
// first.
func latestPerDay(history []biomarker.Reading) []biomarker.Reading {
	byDay := make(map[string]biomarker.Reading, len(history))
	for _, r := range history {
		day := r.MeasuredAt.UTC().Format(biomarker.DateLayout)
		if existing, ok := byDay[day]; !ok || !r.MeasuredAt.Before(existing.MeasuredAt) {
			byDay[day] = r
		}
	}

	out := make([]biomarker.Reading, 0, len(byDay))
	for _, r := range byDay {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].MeasuredAt.Before(out[j].MeasuredAt)
	})
	return out
}

func renderBiomarkerChart(title, unit string, history []biomarker.Reading, bands chartBands) (string, error) {
	points := latestPerDay(history)

	xAxis := make([]string, 0, len(points))
	yData := make([]opts.LineData, 0, len(points))
	for _, r := range points {
		xAxis = append(xAxis, r.MeasuredAt.Format("Jan 2, 2006"))
		yData = append(yData, opts.LineData{Value: r.Value})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: title,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: unit,
		}),
	)

	seriesOpts := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{
			Smooth:     opts.Bool(true),
			ShowSymbol: opts.Bool(true),
		}),
		charts.WithMarkPointNameTypeItemOpts(
			opts.MarkPointNameTypeItem{Name: "Max", Type: "max"},
			opts.MarkPointNameTypeItem{Name: "Min", Type: "min"},
		),
	}

	if markLineItems := bandMarkLines(bands); len(markLineItems) > 0 {
		seriesOpts = append(seriesOpts, func(s *charts.SingleSeries) {
			s.MarkLines = &opts.MarkLines{
				Data: markLineItems,
				MarkLineStyle: opts.MarkLineStyle{
					Symbol: []string{"none", "none"},
					LineStyle: &opts.LineStyle{
						Color: "rgba(128, 128, 128, 0.6)",
						Type:  "dashed",
						Width: 1.5,
					},
				},
			}
		})
	}

	line.SetXAxis(xAxis).
		AddSeries(title, yData).
		SetSeriesOptions(seriesOpts...)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func bandMarkLines(bands chartBands) []interface{} {
	var items []interface{}
	add := func(name string, v *float64) {
		if v != nil {
			items = append(items, opts.MarkLineNameYAxisItem{Name: name, YAxis: *v})
		}
	}

	add("Normal Min", bands.NormalMin)
	add("Normal Max", bands.NormalMax)
	add("Optimal Min", bands.OptimalMin)
	add("Optimal Max", bands.OptimalMax)

	return items
}
