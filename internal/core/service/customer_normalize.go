package service

import (
	"bytes"
	"encoding/json"

	"github.com/99minutos/customer-portal/internal/core/domain"
)

// listPayloadKind enumerates the shapes the customer API uses for list data.
type listPayloadKind int

const (
	payloadUnknown listPayloadKind = iota
	payloadArray                   // data: [...]
	payloadItems                   // data: {items, totalItems, totalPages}
	payloadContent                 // data: {content, totalElements, totalPages}
	payloadSingle                  // data: {id, ...}
)

func (k listPayloadKind) String() string {
	switch k {
	case payloadArray:
		return "array"
	case payloadItems:
		return "items"
	case payloadContent:
		return "content"
	case payloadSingle:
		return "single"
	default:
		return "unknown"
	}
}

type listEnvelope struct {
	Items         json.RawMessage `json:"items"`
	Content       json.RawMessage `json:"content"`
	ID            json.RawMessage `json:"id"`
	TotalItems    *float64        `json:"totalItems"`
	TotalElements *float64        `json:"totalElements"`
	TotalPages    *float64        `json:"totalPages"`
}

type listPayload struct {
	kind     listPayloadKind
	raw      json.RawMessage
	envelope listEnvelope
}

// classifyListPayload decides which shape data has. Shapes are tried in a
// fixed priority order.
func classifyListPayload(data json.RawMessage) listPayload {
	data = bytes.TrimSpace(data)
	if !present(data) {
		return listPayload{kind: payloadUnknown}
	}

	switch data[0] {
	case '[':
		return listPayload{kind: payloadArray, raw: data}
	case '{':
		var env listEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return listPayload{kind: payloadUnknown}
		}
		switch {
		case present(env.Items):
			return listPayload{kind: payloadItems, raw: env.Items, envelope: env}
		case present(env.Content):
			return listPayload{kind: payloadContent, raw: env.Content, envelope: env}
		case present(env.ID):
			return listPayload{kind: payloadSingle, raw: data, envelope: env}
		}
	}
	return listPayload{kind: payloadUnknown}
}

// NormalizeCustomerList turns list data of any known shape into a ListResult.
// Unknown or undecodable shapes yield the empty result.
func NormalizeCustomerList(data json.RawMessage) domain.ListResult {
	res, _ := normalizeCustomerList(data)
	return res
}

func normalizeCustomerList(data json.RawMessage) (domain.ListResult, listPayloadKind) {
	p := classifyListPayload(data)

	switch p.kind {
	case payloadArray:
		items, ok := decodeCustomers(p.raw)
		if !ok {
			break
		}
		return domain.ListResult{Items: items, TotalItems: len(items), TotalPages: 1}, p.kind

	case payloadItems:
		items, ok := decodeCustomers(p.raw)
		if !ok {
			break
		}
		return domain.ListResult{
			Items:      items,
			TotalItems: intOr(p.envelope.TotalItems, len(items)),
			TotalPages: intOr(p.envelope.TotalPages, 1),
		}, p.kind

	case payloadContent:
		items, ok := decodeCustomers(p.raw)
		if !ok {
			break
		}
		return domain.ListResult{
			Items:      items,
			TotalItems: intOr(p.envelope.TotalElements, len(items)),
			TotalPages: intOr(p.envelope.TotalPages, 1),
		}, p.kind

	case payloadSingle:
		var c domain.Customer
		if err := json.Unmarshal(p.raw, &c); err != nil {
			break
		}
		return domain.ListResult{Items: []domain.Customer{c}, TotalItems: 1, TotalPages: 1}, p.kind

	case payloadUnknown:
	}
	return domain.EmptyListResult(), payloadUnknown
}

func decodeCustomers(raw json.RawMessage) ([]domain.Customer, bool) {
	items := []domain.Customer{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	if items == nil {
		items = []domain.Customer{}
	}
	return items, true
}

func present(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

func intOr(v *float64, fallback int) int {
	if v == nil {
		return fallback
	}
	return int(*v)
}
