package envelope

import (
	"encoding/json"
	"fmt"
)

// Status marks a response envelope as a capability success or failure.
type Status string

const (
	// StatusSuccess means Message carries a ResultPayload.
	StatusSuccess Status = "success"
	// StatusError means Message carries a Failure.
	StatusError Status = "error"
)

// RequestEnvelope is the wire shape of every dispatch request.
type RequestEnvelope struct {
	Capability string          `json:"capability"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// DecodePayload unmarshals the capability-specific payload into v.
func (e *RequestEnvelope) DecodePayload(v interface{}) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("envelope: request has no payload")
	}
	return json.Unmarshal(e.Payload, v)
}

// Failure is the message of an error-status envelope: human-readable text
// plus an optional machine code.
type Failure struct {
	Text string `json:"text"`
	Code string `json:"code,omitempty"`
}

// ResponseEnvelope is the wire shape of every dispatch response. Exactly one
// of Result and Failure is set, matching Status.
type ResponseEnvelope struct {
	Status  Status
	Result  ResultPayload
	Failure *Failure
}

// Success wraps a result payload into a success envelope.
func Success(result ResultPayload) *ResponseEnvelope {
	return &ResponseEnvelope{Status: StatusSuccess, Result: result}
}

// Fail wraps a failure reason into an error envelope.
func Fail(code, text string) *ResponseEnvelope {
	return &ResponseEnvelope{Status: StatusError, Failure: &Failure{Text: text, Code: code}}
}

// marshalResult serializes a ResultPayload with its kind tag. The type
// switch covers the whole sealed union; a foreign implementation cannot
// exist outside this package, so the default branch is unreachable.
func marshalResult(p ResultPayload) ([]byte, error) {
	switch r := p.(type) {
	case TextResult:
		return json.Marshal(struct {
			Kind    ResultKind `json:"kind"`
			Content string     `json:"content"`
		}{KindText, r.Content})
	case CodeResult:
		return json.Marshal(struct {
			Kind  ResultKind `json:"kind"`
			Block CodeBlock  `json:"block"`
		}{KindCode, r.Block})
	case CodeSetResult:
		return json.Marshal(struct {
			Kind   ResultKind  `json:"kind"`
			Blocks []CodeBlock `json:"blocks"`
		}{KindCodeSet, r.Blocks})
	case LinkReportResult:
		return json.Marshal(struct {
			Kind   ResultKind   `json:"kind"`
			OK     []LinkRecord `json:"ok"`
			Broken []LinkRecord `json:"broken"`
			Slow   []LinkRecord `json:"slow"`
		}{KindLinkReport, r.OK, r.Broken, r.Slow})
	}
	panic(fmt.Sprintf("envelope: result type %T outside the sealed union", p))
}

// unmarshalResult deserializes a tagged result payload.
func unmarshalResult(data []byte) (ResultPayload, error) {
	var probe struct {
		Kind ResultKind `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("envelope: invalid result payload: %w", err)
	}
	switch probe.Kind {
	case KindText:
		var r TextResult
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return r, nil
	case KindCode:
		var r CodeResult
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return r, nil
	case KindCodeSet:
		var r CodeSetResult
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return r, nil
	case KindLinkReport:
		var r LinkReportResult
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, fmt.Errorf("envelope: unrecognized result kind %q", probe.Kind)
}

// MarshalJSON writes {"status": ..., "message": ...} with the message shape
// determined by Status.
func (e *ResponseEnvelope) MarshalJSON() ([]byte, error) {
	var message json.RawMessage
	switch e.Status {
	case StatusSuccess:
		data, err := marshalResult(e.Result)
		if err != nil {
			return nil, err
		}
		message = data
	case StatusError:
		data, err := json.Marshal(e.Failure)
		if err != nil {
			return nil, err
		}
		message = data
	default:
		return nil, fmt.Errorf("envelope: invalid status %q", e.Status)
	}
	return json.Marshal(struct {
		Status  Status          `json:"status"`
		Message json.RawMessage `json:"message"`
	}{e.Status, message})
}

// UnmarshalJSON reads the tagged wire form back into the union.
func (e *ResponseEnvelope) UnmarshalJSON(data []byte) error {
	var wire struct {
		Status  Status          `json:"status"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch wire.Status {
	case StatusSuccess:
		result, err := unmarshalResult(wire.Message)
		if err != nil {
			return err
		}
		e.Status = StatusSuccess
		e.Result = result
		e.Failure = nil
		return nil
	case StatusError:
		var f Failure
		if err := json.Unmarshal(wire.Message, &f); err != nil {
			return err
		}
		e.Status = StatusError
		e.Failure = &f
		e.Result = nil
		return nil
	}
	return fmt.Errorf("envelope: invalid status %q", wire.Status)
}
