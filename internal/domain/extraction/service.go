package extraction

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ehr/nhsextract/internal/domain/patient"
	"github.com/ehr/nhsextract/internal/platform/narrative"
	"github.com/ehr/nhsextract/internal/platform/recordlist"
)

// Sources holds the raw text of both inputs. Either may be empty.
type Sources struct {
	Narrative string `json:"narrative"`
	Records   string `json:"records"`
}

// Result is the outcome of one extraction run.
type Result struct {
	RunID          uuid.UUID        `json:"run_id"`
	Records        []patient.Record `json:"records"`
	NarrativeCount int              `json:"narrative_candidates"`
	RecordCount    int              `json:"record_list_candidates"`
	Diagnostics    []string         `json:"diagnostics,omitempty"`
}

type Option func(*Service)

// WithConcurrency runs the two extractors on separate goroutines.
func WithConcurrency(enabled bool) Option {
	return func(s *Service) { s.concurrent = enabled }
}

type Service struct {
	logger     zerolog.Logger
	concurrent bool
}

func NewService(logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract runs both extractors and reconciles their output. Narrative
// records always precede record-list records when duplicates are resolved,
// whichever extractor finishes first.
//
// A record list that cannot be decoded is reported in Result.Diagnostics and
// contributes nothing; the run still succeeds. The only error returned is
// the context's.
func (s *Service) Extract(ctx context.Context, src Sources) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{RunID: uuid.New()}
	log := s.logger.With().Str("run_id", res.RunID.String()).Logger()

	var (
		narrativeBatch []patient.Record
		recordBatch    []patient.Record
		decodeErr      error
	)
	extractNarrative := func() {
		narrativeBatch = narrative.Extract(src.Narrative)
	}
	// extractRecords returns the record list's decode error, if any.
	extractRecords := func() error {
		if strings.TrimSpace(src.Records) == "" {
			recordBatch = []patient.Record{}
			return nil
		}
		var err error
		recordBatch, err = recordlist.Extract(src.Records)
		return err
	}

	if s.concurrent {
		g := new(errgroup.Group)
		g.Go(func() error {
			extractNarrative()
			return nil
		})
		g.Go(extractRecords)
		decodeErr = g.Wait()
	} else {
		extractNarrative()
		decodeErr = extractRecords()
	}

	if decodeErr != nil {
		log.Warn().Err(decodeErr).Str("source", "recordlist").Msg("record list could not be decoded; skipping batch")
		res.Diagnostics = append(res.Diagnostics, "Error parsing record list: "+decodeErr.Error())
	}

	res.NarrativeCount = len(narrativeBatch)
	res.RecordCount = len(recordBatch)
	res.Records = patient.Reconcile(narrativeBatch, recordBatch)

	log.Debug().
		Int("narrative_candidates", res.NarrativeCount).
		Int("record_list_candidates", res.RecordCount).
		Int("patients", len(res.Records)).
		Msg("extraction complete")

	return res, nil
}
