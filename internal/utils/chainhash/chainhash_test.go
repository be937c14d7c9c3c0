package chainhash

import (
	"fmt"
	"testing"
	"testing/quick"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = "version=v1&kind=REGISTRATION&issuer=B12345678&number=F2025-000001&issued=15-01-2025&operated=10-01-2025" +
	"&type=INVOICE&recipient=12345678Z&recipientName=Acme+%26+Co&lines=21.00%3A100.00%3A21.00" +
	"&totalTax=21.00&total=121.00&ref=&registered=2025-01-15T10%3A30%3A00Z"

func sampleFields() Fields {
	return Fields{
		Kind:           "REGISTRATION",
		IssuerTaxID:    "b12345678",
		FiscalNumber:   "F2025-000001",
		IssueDate:      time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
		OperationDate:  time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
		InvoiceType:    "INVOICE",
		RecipientTaxID: "12345678Z",
		RecipientName:  "Acme & Co",
		TaxLines: []TaxLine{{
			Rate:  decimal.NewFromInt(21),
			Base:  decimal.NewFromInt(100),
			Quota: decimal.NewFromInt(21),
		}},
		TotalTax:     decimal.NewFromInt(21),
		TotalAmount:  decimal.NewFromInt(121),
		RegistryDate: time.Date(2025, time.January, 15, 10, 30, 0, 0, time.UTC),
	}
}

func TestBuild_KnownVector(t *testing.T) {
	payload, err := Build(sampleFields())
	require.NoError(t, err)
	assert.Equal(t, samplePayload, string(payload))
	assert.Equal(t, "B29881E7CF6B316661D6E50659FF80C6E6DF04534B967DF5B19263CB335B5210", Compute(GenesisHash, payload))
}

func TestBuild_Deterministic(t *testing.T) {
	f := sampleFields()
	a, err := Build(f)
	require.NoError(t, err)

	// Equal values with different internal representation must serialize the same.
	f.TotalAmount = decimal.RequireFromString("121.000")
	f.RegistryDate = f.RegistryDate.In(time.FixedZone("CET", 3600)).Add(400 * time.Millisecond)
	b, err := Build(f)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestBuild_CoversEveryFiscalValue(t *testing.T) {
	base, err := Build(sampleFields())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Fields)
	}{
		{"operation date", func(f *Fields) { f.OperationDate = f.OperationDate.AddDate(0, 0, 1) }},
		{"no operation date", func(f *Fields) { f.OperationDate = time.Time{} }},
		{"issue date", func(f *Fields) { f.IssueDate = f.IssueDate.AddDate(0, 0, 1) }},
		{"recipient", func(f *Fields) { f.RecipientTaxID = "87654321X" }},
		{"line base", func(f *Fields) { f.TaxLines[0].Base = decimal.RequireFromString("100.01") }},
		{"total", func(f *Fields) { f.TotalAmount = decimal.RequireFromString("121.01") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := sampleFields()
			tt.mutate(&f)
			changed, err := Build(f)
			require.NoError(t, err)
			assert.NotEqual(t, base, changed)
		})
	}

	f := sampleFields()
	f.OperationDate = time.Time{}
	payload, err := Build(f)
	require.NoError(t, err)
	values, err := Parse(payload)
	require.NoError(t, err)
	assert.Empty(t, values["operated"])
	assert.Equal(t, "15-01-2025", values["issued"])
}

func TestBuild_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Fields)
	}{
		{"kind", func(f *Fields) { f.Kind = "" }},
		{"issuer", func(f *Fields) { f.IssuerTaxID = " " }},
		{"number", func(f *Fields) { f.FiscalNumber = "" }},
		{"issue date", func(f *Fields) { f.IssueDate = time.Time{} }},
		{"registry date", func(f *Fields) { f.RegistryDate = time.Time{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := sampleFields()
			tt.mutate(&f)
			_, err := Build(f)
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestParse(t *testing.T) {
	values, err := Parse([]byte(samplePayload))
	require.NoError(t, err)
	assert.Equal(t, "Acme & Co", values["recipientName"])
	assert.Equal(t, "121.00", values["total"])
	assert.Equal(t, "10-01-2025", values["operated"])
	assert.Equal(t, "2025-01-15T10:30:00Z", values["registered"])

	_, err = Parse([]byte("version=v9&kind=X"))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestCompute(t *testing.T) {
	assert.Equal(t, "B64374D04EF9C4F39FDDB1E0D6BE38A0130F6C057FC0F4EE467EA0E18BC758F1", Compute(GenesisHash, []byte("abc")))
	assert.Equal(t, "BA7816BF8F01CFEA414140DE5DAE2223B00361A396177A9CB410FF61F20015AD", Compute("", []byte("abc")))
	assert.Len(t, GenesisHash, 64)
}

func buildChain(payloads [][]byte) []Link {
	links := make([]Link, 0, len(payloads))
	prev := GenesisHash
	for i, p := range payloads {
		h := Compute(prev, p)
		links = append(links, Link{RegistryNumber: int64(i + 1), PreviousHash: prev, Hash: h, Payload: p})
		prev = h
	}
	return links
}

func TestVerify(t *testing.T) {
	payloads := [][]byte{[]byte("a=1"), []byte("a=2"), []byte("a=3")}

	t.Run("valid chain", func(t *testing.T) {
		res := Verify(buildChain(payloads))
		assert.True(t, res.OK)
		assert.Equal(t, 3, res.Checked)
		assert.Equal(t, -1, res.BrokenAt)
	})

	t.Run("empty chain", func(t *testing.T) {
		assert.True(t, Verify(nil).OK)
	})

	t.Run("tampered payload", func(t *testing.T) {
		links := buildChain(payloads)
		links[1].Payload = []byte("a=20")
		res := Verify(links)
		assert.False(t, res.OK)
		assert.Equal(t, 1, res.BrokenAt)
		assert.Equal(t, ReasonHashMismatch, res.Reason)
	})

	t.Run("deleted middle entry", func(t *testing.T) {
		links := buildChain(payloads)
		res := Verify([]Link{links[0], links[2]})
		assert.False(t, res.OK)
		assert.Equal(t, 1, res.BrokenAt)
		assert.Equal(t, ReasonSequenceGap, res.Reason)
	})

	t.Run("rewritten link", func(t *testing.T) {
		links := buildChain(payloads)
		links[2].PreviousHash = links[0].Hash
		res := Verify(links)
		assert.False(t, res.OK)
		assert.Equal(t, ReasonBrokenLink, res.Reason)
	})

	t.Run("bad genesis", func(t *testing.T) {
		links := buildChain(payloads)
		links[0].PreviousHash = "X"
		res := Verify(links)
		assert.False(t, res.OK)
		assert.Equal(t, 0, res.BrokenAt)
		assert.Equal(t, ReasonGenesis, res.Reason)
	})
}

// Any single-byte change in any payload breaks verification at that entry.
func TestVerify_TamperProperty(t *testing.T) {
	prop := func(raw [][]byte, pick uint8, flip uint8) bool {
		if len(raw) == 0 {
			return true
		}
		payloads := make([][]byte, len(raw))
		for i, p := range raw {
			payloads[i] = append([]byte(fmt.Sprintf("n=%d;", i)), p...)
		}
		links := buildChain(payloads)
		if !Verify(links).OK {
			return false
		}

		idx := int(pick) % len(links)
		tampered := append([]byte(nil), links[idx].Payload...)
		pos := int(flip) % len(tampered)
		tampered[pos] ^= 0x01
		links[idx].Payload = tampered

		res := Verify(links)
		return !res.OK && res.BrokenAt == idx
	}
	require.NoError(t, quick.Check(prop, &quick.Config{MaxCount: 200}))
}
