package extract_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isratransfer/trip-manager/backend/internal/domain"
	"github.com/isratransfer/trip-manager/backend/internal/extract"
	"github.com/isratransfer/trip-manager/backend/internal/ingest"
)

// stubCompleter is a hand-written test double for extract.Completer.
// It records the completion it was asked for and returns a canned response.
type stubCompleter struct {
	response string
	err      error
	got      extract.Completion
}

func (s *stubCompleter) Complete(_ context.Context, c extract.Completion) (string, error) {
	s.got = c
	return s.response, s.err
}

var _ extract.Completer = (*stubCompleter)(nil)

func textBundle(text string) ingest.Bundle {
	return ingest.Bundle{FreeText: text}
}

func TestExtract_StrictJSON(t *testing.T) {
	stub := &stubCompleter{response: `{
		"assistant_reply": "Found one flight.",
		"proposals": [
			{
				"kind": "flight",
				"summary": "BA162 TLV-LHR",
				"payload": {"carrier": "British Airways", "flight_number": "BA162",
				            "depart_airport": "TLV", "arrive_airport": "LHR"}
			}
		]
	}`}
	engine := extract.NewEngine(stub)

	res, err := engine.Extract(context.Background(), textBundle("Add BA162 TLV to LHR Oct 12"), nil)

	require.NoError(t, err)
	assert.Equal(t, "Found one flight.", res.Reply)
	require.Len(t, res.Drafts, 1)
	d := res.Drafts[0]
	assert.Equal(t, domain.KindFlight, d.Kind)
	assert.Equal(t, "BA162 TLV-LHR", d.Summary)
	assert.Nil(t, d.TripID)

	p, err := domain.DecodeFlightPayload(d.Payload)
	require.NoError(t, err)
	require.NotNil(t, p.FlightNumber)
	assert.Equal(t, "BA162", *p.FlightNumber)
}

func TestExtract_SalvagesAlmostJSON(t *testing.T) {
	stub := &stubCompleter{response: `Sure! {"reply":"ok","proposals":[]} thanks`}
	engine := extract.NewEngine(stub)

	res, err := engine.Extract(context.Background(), textBundle("anything"), nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", res.Reply)
	assert.Empty(t, res.Drafts)
}

func TestExtract_DegradesToRawReply(t *testing.T) {
	stub := &stubCompleter{response: "I am sorry, I cannot help with that."}
	engine := extract.NewEngine(stub)

	res, err := engine.Extract(context.Background(), textBundle("anything"), nil)

	require.NoError(t, err, "malformed model output must never fail the call")
	assert.Equal(t, "I am sorry, I cannot help with that.", res.Reply)
	assert.Empty(t, res.Drafts)
}

func TestExtract_UnknownKindCollapsesToOther(t *testing.T) {
	stub := &stubCompleter{response: `{
		"assistant_reply": "ok",
		"proposals": [{"kind": "spaceship", "summary": "to the moon", "payload": {}}]
	}`}
	engine := extract.NewEngine(stub)

	res, err := engine.Extract(context.Background(), textBundle("anything"), nil)

	require.NoError(t, err)
	require.Len(t, res.Drafts, 1)
	assert.Equal(t, domain.KindOther, res.Drafts[0].Kind)
}

func TestExtract_TripHintStampedOnUnboundDrafts(t *testing.T) {
	hint := uuid.New()
	other := uuid.New()
	stub := &stubCompleter{response: fmt.Sprintf(`{
		"assistant_reply": "ok",
		"proposals": [
			{"kind": "note", "payload": {"content": "pack adapters"}},
			{"kind": "note", "trip_id": %q, "payload": {"content": "bound elsewhere"}},
			{"kind": "note", "trip_id": "not-a-uuid", "payload": {"content": "bad binding"}}
		]
	}`, other)}
	engine := extract.NewEngine(stub)

	res, err := engine.Extract(context.Background(), textBundle("notes"), &hint)

	require.NoError(t, err)
	require.Len(t, res.Drafts, 3)
	require.NotNil(t, res.Drafts[0].TripID)
	assert.Equal(t, hint, *res.Drafts[0].TripID, "hint fills in a missing binding")
	require.NotNil(t, res.Drafts[1].TripID)
	assert.Equal(t, other, *res.Drafts[1].TripID, "an explicit model binding wins")
	require.NotNil(t, res.Drafts[2].TripID)
	assert.Equal(t, hint, *res.Drafts[2].TripID, "an unparseable binding falls back to the hint")
}

func TestExtract_CurrencyNormalizedBeforeStorage(t *testing.T) {
	stub := &stubCompleter{response: `{
		"assistant_reply": "ok",
		"proposals": [{"kind": "flight", "payload": {"cost_amount": 900, "cost_currency": "XYZ"}}]
	}`}
	engine := extract.NewEngine(stub)

	res, err := engine.Extract(context.Background(), textBundle("flight for 900"), nil)

	require.NoError(t, err)
	require.Len(t, res.Drafts, 1)
	p, err := domain.DecodeFlightPayload(res.Drafts[0].Payload)
	require.NoError(t, err)
	assert.Nil(t, p.CostCurrency)
}

func TestExtract_DerivesSummaryWhenMissing(t *testing.T) {
	stub := &stubCompleter{response: `{
		"assistant_reply": "ok",
		"proposals": [{"kind": "flight", "payload": {
			"carrier": "British Airways", "flight_number": "BA162",
			"depart_airport": "TLV", "arrive_airport": "LHR"}}]
	}`}
	engine := extract.NewEngine(stub)

	res, err := engine.Extract(context.Background(), textBundle("flight"), nil)

	require.NoError(t, err)
	require.Len(t, res.Drafts, 1)
	assert.Equal(t, "British Airways BA162 TLV-LHR", res.Drafts[0].Summary)
}

func TestExtract_UpstreamErrorPropagates(t *testing.T) {
	stub := &stubCompleter{err: fmt.Errorf("openai status 503: %w", domain.ErrUpstream)}
	engine := extract.NewEngine(stub)

	_, err := engine.Extract(context.Background(), textBundle("anything"), nil)

	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestExtract_SendsBundleContent(t *testing.T) {
	stub := &stubCompleter{response: `{"assistant_reply":"ok","proposals":[]}`}
	engine := extract.NewEngine(stub)

	bundle := ingest.Bundle{
		FreeText: "my prompt",
		DocText:  "[[TEXT:a.txt]]\ndoc body",
		Images:   []string{"data:image/png;base64,AAAA"},
	}
	_, err := engine.Extract(context.Background(), bundle, nil)

	require.NoError(t, err)
	assert.Contains(t, stub.got.UserText, "User prompt:\nmy prompt")
	assert.Contains(t, stub.got.UserText, "doc body")
	assert.Equal(t, bundle.Images, stub.got.ImageURLs)
	assert.Contains(t, stub.got.System, "Output ONLY valid JSON")
}
