package importer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/dictionary-importer/internal/domain"
)

// maxLineBytes bounds one JSONL record; raw fragments can be large.
const maxLineBytes = 1 << 20

type jsonlEntry struct {
	Word           string  `json:"word"`
	NormalizedWord string  `json:"normalized_word"`
	PartOfSpeech   *string `json:"part_of_speech"`
	Definition     string  `json:"definition"`
	Etymology      *string `json:"etymology"`
	SenseNumber    *int    `json:"sense_number"`
	RawFragment    *string `json:"raw_fragment"`
}

// JSONLReader streams raw entries from a JSON-lines dump, one record
// per line. Malformed lines are skipped with a debug log.
type JSONLReader struct {
	sourceCode string
	file       *os.File
	scanner    *bufio.Scanner
	log        *slog.Logger
	line       int
	done       bool
}

func NewJSONLReader(path, sourceCode string, log *slog.Logger) (*JSONLReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open entries file: %w", err)
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &JSONLReader{
		sourceCode: domain.NormalizeSourceCode(sourceCode),
		file:       f,
		scanner:    sc,
		log:        log,
	}, nil
}

// Next returns up to max entries, or an empty slice at end of file.
func (r *JSONLReader) Next(ctx context.Context, max int) ([]domain.RawEntry, error) {
	if r.done {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	out := make([]domain.RawEntry, 0, max)
	for len(out) < max && r.scanner.Scan() {
		r.line++
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec jsonlEntry
		if err := json.Unmarshal(line, &rec); err != nil {
			r.log.Debug("malformed entry line skipped",
				slog.Int("line", r.line),
				slog.String("error", err.Error()),
			)
			continue
		}
		out = append(out, domain.RawEntry{
			Word:           rec.Word,
			NormalizedWord: rec.NormalizedWord,
			PartOfSpeech:   rec.PartOfSpeech,
			Definition:     rec.Definition,
			Etymology:      rec.Etymology,
			SenseNumber:    rec.SenseNumber,
			RawFragment:    rec.RawFragment,
			SourceCode:     r.sourceCode,
			CreatedUtc:     now,
		})
	}

	if len(out) < max {
		if err := r.scanner.Err(); err != nil {
			return nil, fmt.Errorf("read entries file: %w", err)
		}
		r.done = true
	}
	if len(out) == 0 {
		return nil, r.Close()
	}
	return out, nil
}

func (r *JSONLReader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
