package harvest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/bryanmaina/wikipedia-scraper/internal/domain"
	"github.com/bryanmaina/wikipedia-scraper/internal/util"
	"go.uber.org/zap"
)

const outputIndent = "    "

// Consolidate joins leaders with the cached biographies and atomically writes
// the result to the output path. It returns how many leaders got a biography.
func (h *Harvester) Consolidate(ctx context.Context, leaders []domain.Leader) (int, error) {
	bios, err := h.store.ListBiographies(ctx)
	if err != nil {
		return 0, err
	}

	records := domain.Consolidate(leaders, bios)

	data, err := encodeOutput(records)
	if err != nil {
		return 0, fmt.Errorf("encode output: %w", err)
	}

	if err := util.WriteFileAtomic(h.outputPath, data, 0o644); err != nil {
		return 0, fmt.Errorf("write output %s: %w", h.outputPath, err)
	}

	withBio := 0
	for _, r := range records {
		if r.Biography != nil {
			withBio++
		}
	}

	h.logger.Info("Output written",
		zap.String("path", h.outputPath),
		zap.Int("leaders", len(records)),
		zap.Int("with_biography", withBio),
	)

	return withBio, nil
}

func encodeOutput(records []domain.ConsolidatedLeader) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", outputIndent)
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
