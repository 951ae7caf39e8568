package main

import (
	"encoding/csv"
	"fmt"
	"io"

	"uraniborg-lab/internal/domain/models"
	"uraniborg-lab/pkg/logger"
)

// csvHeader returns the column names for the given metric order
func csvHeader(keys []models.MetricKey) []string {
	header := []string{"oem", "device", "api_level", "fingerprint"}
	for _, k := range keys {
		header = append(header, string(k))
	}
	return append(header, "total", "rating")
}

// csvRecord renders an assessment as one row. Metrics that could not be scored are left blank.
func csvRecord(a *models.Assessment, keys []models.MetricKey) []string {
	hw := a.Hardware
	record := []string{
		hw.OEM,
		fmt.Sprintf("%s:%s:%s", hw.Brand, hw.Model, hw.Product),
		fmt.Sprintf("%d", a.Build.APILevel),
		a.Build.Fingerprint,
	}
	for _, k := range keys {
		if v, ok := a.Score(k); ok {
			record = append(record, fmt.Sprintf("%.2f", v))
		} else {
			record = append(record, "")
		}
	}
	return append(record, fmt.Sprintf("%.2f", a.Total), string(a.Rating))
}

func writeCSV(w io.Writer, a *models.Assessment, keys []models.MetricKey, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(csvHeader(keys)); err != nil {
			return fmt.Errorf("failed to write csv header: %w", err)
		}
	}
	if err := cw.Write(csvRecord(a, keys)); err != nil {
		return fmt.Errorf("failed to write csv record: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// summaryLine is the human readable headline score
func summaryLine(a *models.Assessment) string {
	scope := "Adjusted Uraniborg's Device Preloaded Apps Risk Score (without GMS)"
	if a.IncludeGMS {
		scope = "Uraniborg's Device Preloaded Apps Risk Score (including GMS)"
	}
	return fmt.Sprintf("%s: %.2f / %.2f [%s]", scope, a.Total, models.MaxScore, a.Rating)
}

func warnSummary(log *logger.Logger, a *models.Assessment) {
	log.Warn().Msg(summaryLine(a))
	if !a.IncludeGMS {
		log.Warn().Msg("use the --include-gms option to see the scores with GMS")
	}
	for _, u := range a.Unavailable {
		log.Warn().Str("metric", string(u.Metric)).Str("reason", u.Reason).Msg("metric not scored")
	}
}
