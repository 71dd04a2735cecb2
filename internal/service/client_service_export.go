package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/MKhiriev/triage-queue-sync/models"
)

var csvHeader = []string{
	"ID", "Created", "Status", "Priority", "Triage Level", "Score", "Confidence",
	"SNR (dB)", "Speech %", "Quality Reliable", "WER", "WER Severity",
	"Agreement %", "Consensus", "Notes",
}

// ExportCSV writes the durable queue, all statuses, in presentation order.
func (s *queueService) ExportCSV(ctx context.Context, w io.Writer) error {
	items, err := s.queue.List(ctx, "")
	if err != nil {
		return fmt.Errorf("list queue: %w", err)
	}

	cw := csv.NewWriter(w)
	if err = cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, item := range items {
		if err = cw.Write(csvRow(item)); err != nil {
			return fmt.Errorf("write csv row %s: %w", item.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(item models.QueueItem) []string {
	return []string{
		item.ID,
		item.CreatedAt.UTC().Format(time.RFC3339),
		string(item.Status),
		strconv.Itoa(item.Priority),
		string(item.TriageLevel),
		strconv.Itoa(item.TriageScore),
		strconv.Itoa(item.TriageConfidence),
		formatFloat(item.SNRDB, 1),
		formatFloat(item.SpeechPercentage, 1),
		strconv.FormatBool(item.QualityIsReliable),
		formatFloat(item.WERScore, 3),
		item.WERSeverity,
		formatInt(item.AgreementPercentage),
		item.AgreementConsensus,
		item.Notes,
	}
}

func formatFloat(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
