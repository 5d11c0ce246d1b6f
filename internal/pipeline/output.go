package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/laborstat-cli/internal/model"
	"github.com/sells-group/laborstat-cli/internal/render"
	"github.com/sells-group/laborstat-cli/internal/store"
)

// wordsmithEntry is one state's payload for the narrative generator.
type wordsmithEntry struct {
	State            string   `json:"state"`
	StateCode        string   `json:"state_code"`
	Month            string   `json:"month"`
	UnemploymentRate float64  `json:"unemployment_rate"`
	MoMChangePP      *float64 `json:"mom_change_pp"`
	TrendDirection   *string  `json:"trend_direction"`
	SummarySentence  string   `json:"summary_sentence"`
	Paragraph2       *string  `json:"paragraph_2"`
	Paragraph3       *string  `json:"paragraph_3"`
	QAFlags          []string `json:"qa_flags"`
	UpdatedAt        string   `json:"updated_at"`
}

// textOrNull maps an empty rendering to an explicit JSON null.
func textOrNull(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type momEntry struct {
	change *float64
	trend  render.Trend
}

// RunOutput computes month-over-month changes and rankings over the freshest
// version of every stored point, renders the narrative payloads, and writes
// the three output artifacts concurrently (they are independent).
func (p *Pipeline) RunOutput(ctx context.Context, runID, latestDataMonth string) error {
	points, err := p.Clean.ReadLatest()
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return eris.New("output: no points in clean data store")
	}
	zap.L().Info("output: latest-version points loaded", zap.Int("points", len(points)))

	qaFlags := p.loadQAFlags()

	type stateDate struct {
		code string
		date string
	}
	valueLookup := make(map[stateDate]float64, len(points))
	stateDates := make(map[string][]string)
	for _, pt := range points {
		valueLookup[stateDate{pt.StateCode, pt.Date}] = pt.Value
		stateDates[pt.StateCode] = append(stateDates[pt.StateCode], pt.Date)
	}

	if latestDataMonth == "" {
		for _, pt := range points {
			if m := pt.Date[:7]; m > latestDataMonth {
				latestDataMonth = m
			}
		}
	}
	latestDate := latestDataMonth + "-01"

	// MoM change and trend for every (state, date) pair.
	mom := make(map[stateDate]momEntry)
	for code, dates := range stateDates {
		for _, date := range dates {
			prev, err := PrevMonthDate(date[:7])
			if err != nil {
				continue
			}
			curr, haveCurr := valueLookup[stateDate{code, date}]
			prevVal, havePrev := valueLookup[stateDate{code, prev}]
			if haveCurr && havePrev {
				change := math.Round((curr-prevVal)*10) / 10
				trend := render.TrendFlat
				if change > 0 {
					trend = render.TrendUp
				} else if change < 0 {
					trend = render.TrendDown
				}
				mom[stateDate{code, date}] = momEntry{change: &change, trend: trend}
			} else {
				mom[stateDate{code, date}] = momEntry{}
			}
		}
	}

	// States present in the latest month.
	latestStates := make(map[string]float64)
	for code := range stateDates {
		if val, ok := valueLookup[stateDate{code, latestDate}]; ok {
			latestStates[code] = val
		}
	}

	rateRanks := render.ScopedRanks(latestStates, p.Dir)

	momAbs := make(map[string]float64)
	for code := range latestStates {
		if m := mom[stateDate{code, latestDate}]; m.change != nil {
			momAbs[code] = math.Abs(*m.change)
		}
	}
	momRanks := render.ScopedRanks(momAbs, p.Dir)

	rankedCodes := make([]string, 0, len(latestStates))
	for code := range latestStates {
		rankedCodes = append(rankedCodes, code)
	}
	sort.Strings(rankedCodes)
	counts := render.CountScopes(rankedCodes, p.Dir)

	apDate, err := render.APDate(latestDate)
	if err != nil {
		return err
	}

	// Build the three artifact record sets. The payload is a JSON array even
	// when no state ranks in the latest month.
	wordsmith := []wordsmithEntry{}
	var mapRows, tableRows [][]string

	for _, code := range rankedCodes {
		ref, ok := p.Dir.ByCode(code)
		if !ok {
			continue
		}
		rate := latestStates[code]
		m := mom[stateDate{code, latestDate}]

		flags := []string{}
		for _, f := range qaFlags[stateMonth{code, latestDataMonth}] {
			flags = append(flags, f.String())
		}

		entry := wordsmithEntry{
			State:            ref.Name,
			StateCode:        code,
			Month:            latestDataMonth,
			UnemploymentRate: rate,
			MoMChangePP:      m.change,
			SummarySentence:  render.SummarySentence(ref.Name, rate, apDate, m.change, m.trend),
			Paragraph2: textOrNull(render.RankingParagraph(ref.Name, apDate, "highest unemployment rate",
				code, rateRanks, ref, counts)),
			QAFlags:   flags,
			UpdatedAt: time.Now().Format(time.RFC3339),
		}
		if m.change != nil {
			trend := string(m.trend)
			entry.TrendDirection = &trend
			entry.Paragraph3 = textOrNull(render.RankingParagraph(ref.Name, apDate, "largest month-over-month change",
				code, momRanks, ref, counts))
		}
		wordsmith = append(wordsmith, entry)

		change, trendStr := "", ""
		if m.change != nil {
			change = fmt.Sprintf("%.1f", *m.change)
			trendStr = string(m.trend)
		}
		mapRows = append(mapRows, []string{
			latestDate, code, ref.Name, ref.FIPSCode,
			fmt.Sprintf("%.1f", rate), change, trendStr,
			fmt.Sprintf("%d", rateRanks[code].National),
			ref.CensusRegion, ref.CensusDivision, runID,
		})
		tableRows = append(tableRows, []string{
			latestDate, ref.Name, code,
			fmt.Sprintf("%.1f", rate), change,
			ref.CensusRegion, ref.CensusDivision, runID,
		})
	}

	// Table artifact is sorted by national rate rank.
	sort.SliceStable(tableRows, func(i, j int) bool {
		return rateRanks[tableRows[i][2]].National < rateRanks[tableRows[j][2]].National
	})

	suffix := fmt.Sprintf("%s_%s", latestDataMonth, runID)
	outDir := p.Cfg.Data.OutputDir

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return writeJSONArtifact(
			filepath.Join(outDir, "wordsmith_json_payload", fmt.Sprintf("wordsmith_%s.json", suffix)),
			wordsmith)
	})
	g.Go(func() error {
		return writeCSVArtifact(
			filepath.Join(outDir, "dw_viz_data", fmt.Sprintf("map_%s.csv", suffix)),
			[]string{"date", "state_code", "state_name", "fips_code", "unemployment_rate",
				"mom_change_pp", "trend_direction", "rate_rank_national",
				"census_region", "census_division", "update_dttm"},
			mapRows)
	})
	g.Go(func() error {
		return writeCSVArtifact(
			filepath.Join(outDir, "dw_viz_data", fmt.Sprintf("table_%s.csv", suffix)),
			[]string{"date", "State", "state_code", "Unemployment Rate", "Monthly Change",
				"Region", "Division", "update_dttm"},
			tableRows)
	})
	return g.Wait()
}

// loadQAFlags reads the validate manifest's rows file back into a per
// (state, month) flag map. Missing files just mean no flags to attach.
func (p *Pipeline) loadQAFlags() map[stateMonth][]model.QAFlag {
	out := make(map[stateMonth][]model.QAFlag)

	manifest, err := store.ReadValidateManifest(p.Cfg.Data.StateDir)
	if err != nil {
		zap.L().Debug("output: no validate manifest", zap.Error(err))
		return out
	}
	rows, err := store.ReadValidatedRows(manifest.RowsFile)
	if err != nil {
		zap.L().Debug("output: no validated rows file", zap.Error(err))
		return out
	}
	for _, r := range rows {
		key := stateMonth{r.StateCode, r.MonthCanonical}
		out[key] = append(out[key], r.QAFlags...)
	}
	return out
}

func writeJSONArtifact(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "output: create dir for %s", path)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "output: marshal %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "output: write %s", path)
	}
	zap.L().Info("output: wrote artifact", zap.String("path", path))
	return nil
}

func writeCSVArtifact(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "output: create dir for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "output: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return eris.Wrapf(err, "output: write header %s", path)
	}
	if err := w.WriteAll(rows); err != nil {
		return eris.Wrapf(err, "output: write rows %s", path)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "output: flush %s", path)
	}
	zap.L().Info("output: wrote artifact", zap.String("path", path), zap.Int("rows", len(rows)))
	return nil
}
