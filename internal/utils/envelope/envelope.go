// Package envelope encodes registry entries for the tax authority and decodes its replies.
package envelope

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"
)

const namespace = "urn:invoice-registry:submission:v1"

// Record is the wire form of one registry entry.
type Record struct {
	XMLName        xml.Name `xml:"RegistroFactura"`
	Namespace      string   `xml:"xmlns,attr"`
	Kind           string   `xml:"TipoRegistro"`
	ChainScope     string   `xml:"IDEmisor"`
	RegistryNumber int64    `xml:"NumRegistro"`
	FiscalNumber   string   `xml:"NumSerieFactura"`
	RegistryDate   string   `xml:"FechaHoraRegistro"`
	PreviousHash   string   `xml:"Encadenamiento>HuellaAnterior"`
	Hash           string   `xml:"Huella"`
	ChainVersion   string   `xml:"VersionHuella"`
	Payload        string   `xml:"DatosHuella"`
	Reference      string   `xml:"HuellaAnulada,omitempty"`
}

// Input is what the encoder needs from an entry.
type Input struct {
	Kind           string
	ChainScope     string
	RegistryNumber int64
	FiscalNumber   string
	RegistryDate   time.Time
	PreviousHash   string
	Hash           string
	ChainVersion   string
	Payload        []byte
	ReferencedHash string
}

// Encode renders in as an XML document with declaration.
func Encode(in Input) ([]byte, error) {
	if in.Hash == "" || in.ChainScope == "" {
		return nil, errors.New("envelope: hash and chain scope are required")
	}
	rec := Record{
		Namespace:      namespace,
		Kind:           in.Kind,
		ChainScope:     in.ChainScope,
		RegistryNumber: in.RegistryNumber,
		FiscalNumber:   in.FiscalNumber,
		RegistryDate:   in.RegistryDate.UTC().Format(time.RFC3339),
		PreviousHash:   in.PreviousHash,
		Hash:           in.Hash,
		ChainVersion:   in.ChainVersion,
		Payload:        string(in.Payload),
		Reference:      in.ReferencedHash,
	}
	body, err := xml.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("envelope: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// DecodeRecord parses a document produced by Encode.
func DecodeRecord(data []byte) (Record, error) {
	var rec Record
	if err := xml.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("envelope: %w", err)
	}
	return rec, nil
}

// Response is the authority's reply.
type Response struct {
	XMLName     xml.Name `xml:"RespuestaRegistro"`
	Status      string   `xml:"EstadoRegistro"`
	Code        string   `xml:"CSV"`
	ErrorCode   string   `xml:"CodigoErrorRegistro"`
	Description string   `xml:"DescripcionErrorRegistro"`
}

// Reply statuses.
const (
	StatusAccepted          = "Correcto"
	StatusAcceptedWithError = "AceptadoConErrores"
	StatusRejected          = "Incorrecto"
)

// Accepted reports whether the authority took the record.
func (r Response) Accepted() bool {
	return r.Status == StatusAccepted || r.Status == StatusAcceptedWithError
}

// Reason is a printable rejection reason.
func (r Response) Reason() string {
	return strings.TrimSpace(strings.TrimSpace(r.ErrorCode) + " " + strings.TrimSpace(r.Description))
}

// DecodeResponse parses an authority reply.
func DecodeResponse(data []byte) (Response, error) {
	var resp Response
	if err := xml.Unmarshal(data, &resp); err != nil {
		return Response{}, fmt.Errorf("envelope: %w", err)
	}
	switch resp.Status {
	case StatusAccepted, StatusAcceptedWithError, StatusRejected:
		return resp, nil
	}
	return Response{}, fmt.Errorf("envelope: unknown registry status %q", resp.Status)
}

// EncodeResponse renders a reply. Used by the sandbox authority.
func EncodeResponse(resp Response) ([]byte, error) {
	body, err := xml.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("envelope: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
