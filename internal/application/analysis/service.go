package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/docsense/internal/application"
	domai "github.com/bryanwahyu/docsense/internal/domain/ai"
	domain "github.com/bryanwahyu/docsense/internal/domain/analysis"
	"github.com/bryanwahyu/docsense/internal/domain/incidents"
	"github.com/bryanwahyu/docsense/internal/settings"
)

// hashLen truncates the sha256 fingerprint to a displayable prefix
const hashLen = 16

// Service implements use-cases untuk document analysis.
// Safe for concurrent use; the ledger owns its own locking.
type Service struct {
	Oracle   domai.Oracle
	Ledger   incidents.Ledger
	Settings *settings.Store
	Clock    application.Clock
}

// Command untuk analyze
type AnalyzeCommand struct {
	DocumentText string
	Filename     string
	Filetype     string
	Filesize     string
}

// Analyze sends the document to the classification model, normalizes the
// answer, and records the derived incident. A response the model botched
// still comes back as a status=error result with its incident recorded;
// credential and transport failures abort the request and record nothing.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (*domain.AnalysisResult, error) {
	cred, err := s.Settings.Credential()
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256([]byte(cmd.DocumentText))
	docHash := hex.EncodeToString(sum[:])[:hashLen]

	meta := domain.RequestMeta{
		ID:        domain.AnalysisID(uuid.New().String()),
		Timestamp: s.Clock.Now().UTC().Format(time.RFC3339),
		Filename:  stringOrUnknown(cmd.Filename),
		Filetype:  stringOrUnknown(cmd.Filetype),
		Filesize:  stringOrUnknown(cmd.Filesize),
	}

	raw, err := s.Oracle.Classify(ctx, cred, domai.Document{
		Text:      cmd.DocumentText,
		Filename:  meta.Filename,
		Filetype:  meta.Filetype,
		Filesize:  meta.Filesize,
		Timestamp: meta.Timestamp,
	})
	if err != nil {
		return nil, err
	}

	result := domain.Normalize(raw, meta)

	inc := incidents.Derive(result, docHash)
	if err := s.Ledger.Append(ctx, inc); err != nil {
		return nil, err
	}
	return result, nil
}

// TestConnection verifies the configured credential with a minimal request.
func (s *Service) TestConnection(ctx context.Context) error {
	cred, err := s.Settings.Credential()
	if err != nil {
		return err
	}
	return s.Oracle.Probe(ctx, cred)
}

// Incidents lists the ledger page matching the filter.
func (s *Service) Incidents(ctx context.Context, f incidents.Filter) (int, []*incidents.Incident, error) {
	return s.Ledger.List(ctx, f)
}

// Incident looks up one incident by id.
func (s *Service) Incident(ctx context.Context, id string) (*incidents.Incident, error) {
	return s.Ledger.Get(ctx, id)
}

// DeleteIncident removes one incident; unknown ids are a no-op.
func (s *Service) DeleteIncident(ctx context.Context, id string) error {
	return s.Ledger.Delete(ctx, id)
}

// ClearIncidents empties the ledger.
func (s *Service) ClearIncidents(ctx context.Context) error {
	return s.Ledger.Clear(ctx)
}

// Stats computes the dashboard aggregate.
func (s *Service) Stats(ctx context.Context) (*incidents.Statistics, error) {
	return s.Ledger.Stats(ctx)
}

func stringOrUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
