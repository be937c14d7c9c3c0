package authority

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/SscSPs/invoice_registry/internal/core/domain"
	portssvc "github.com/SscSPs/invoice_registry/internal/core/ports/services"
	"github.com/SscSPs/invoice_registry/internal/utils/chainhash"
	"github.com/SscSPs/invoice_registry/internal/utils/envelope"
	"github.com/google/uuid"
)

// Sandbox rejection codes.
const (
	SandboxCodeMalformed    = "4102"
	SandboxCodeHashMismatch = "4104"
)

// Sandbox is an in-process authority. It checks each record's hash against its
// own payload and accepts it, answering a resubmitted hash with the same code.
type Sandbox struct {
	mu       sync.Mutex
	accepted map[string]string // hash -> reference code
}

var _ portssvc.AuthorityClient = (*Sandbox)(nil)

// NewSandbox creates an empty sandbox authority.
func NewSandbox() *Sandbox {
	return &Sandbox{accepted: make(map[string]string)}
}

// Submit implements portssvc.AuthorityClient.
func (s *Sandbox) Submit(ctx context.Context, payload []byte) (domain.AuthorityOutcome, error) {
	if err := ctx.Err(); err != nil {
		return domain.AuthorityOutcome{}, err
	}

	rec, err := envelope.DecodeRecord(payload)
	if err != nil {
		return s.reply(envelope.Response{Status: envelope.StatusRejected, ErrorCode: SandboxCodeMalformed, Description: err.Error()})
	}
	if chainhash.Compute(rec.PreviousHash, []byte(rec.Payload)) != rec.Hash {
		return s.reply(envelope.Response{Status: envelope.StatusRejected, ErrorCode: SandboxCodeHashMismatch, Description: "huella no coincide"})
	}

	s.mu.Lock()
	code, ok := s.accepted[rec.Hash]
	if !ok {
		code = strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:16]
		s.accepted[rec.Hash] = code
	}
	s.mu.Unlock()

	return s.reply(envelope.Response{Status: envelope.StatusAccepted, Code: code})
}

// Accepted returns the number of distinct records accepted so far.
func (s *Sandbox) Accepted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accepted)
}

func (s *Sandbox) reply(resp envelope.Response) (domain.AuthorityOutcome, error) {
	body, err := envelope.EncodeResponse(resp)
	if err != nil {
		return domain.AuthorityOutcome{}, err
	}
	return classify(http.StatusOK, body), nil
}
