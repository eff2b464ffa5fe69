package server

import (
	"bytes"
	"testing"

	"github.com/bastiangx/splitsearch/pkg/config"
	"github.com/bastiangx/splitsearch/pkg/dict"
	"github.com/vmihailenco/msgpack/v5"
)

// runSession feeds encoded requests through one server loop and returns a
// decoder over everything it wrote
func runSession(t *testing.T, requests []Request) *msgpack.Decoder {
	t.Helper()

	var in, out bytes.Buffer
	encoder := msgpack.NewEncoder(&in)
	for i := range requests {
		if err := encoder.Encode(&requests[i]); err != nil {
			t.Fatalf("encoding request: %v", err)
		}
	}

	srv := NewServerWithStreams(dict.NewDict(), config.DefaultConfig(), &in, &out)
	if err := srv.Start(); err != nil {
		t.Fatalf("server loop: %v", err)
	}
	return msgpack.NewDecoder(&out)
}

func decodeStatus(t *testing.T, decoder *msgpack.Decoder) DictResponse {
	t.Helper()
	var response DictResponse
	if err := decoder.Decode(&response); err != nil {
		t.Fatalf("decoding status response: %v", err)
	}
	return response
}

func decodeQuery(t *testing.T, decoder *msgpack.Decoder) QueryResponse {
	t.Helper()
	var response QueryResponse
	if err := decoder.Decode(&response); err != nil {
		t.Fatalf("decoding query response: %v", err)
	}
	return response
}

func TestServerAddAndQuery(t *testing.T) {
	decoder := runSession(t, []Request{
		{ID: "a1", Action: "add", Path: "Math.Mat44.MultiplyVector3", Echelon: 1},
		{ID: "a2", Action: "add", Path: "Math.Vec3.Normalize", Echelon: 1},
		{ID: "a3", Action: "add", Path: "Util.Debug.Log"},
		{ID: "q1", Query: []string{"mat4", "mul"}, Limit: 10},
	})

	for _, id := range []string{"a1", "a2", "a3"} {
		response := decodeStatus(t, decoder)
		if response.ID != id || !response.OK || response.Status != "ok" {
			t.Fatalf("add %s response: %+v", id, response)
		}
	}

	response := decodeQuery(t, decoder)
	if response.ID != "q1" {
		t.Fatalf("query response id: %s", response.ID)
	}
	if response.Count != 1 || len(response.Matches) != 1 {
		t.Fatalf("expected one match, got %+v", response)
	}
	top := response.Matches[0]
	if top.Data != "Math.Mat44.MultiplyVector3" {
		t.Errorf("top match data: %s", top.Data)
	}
	if top.Echelon != 1 {
		t.Errorf("top match echelon: %d", top.Echelon)
	}
	if top.Points != 17 || top.Penalty != 14 {
		t.Errorf("top match score: (%d, %d)", top.Points, top.Penalty)
	}
}

func TestServerSelectFeedback(t *testing.T) {
	index := 0
	decoder := runSession(t, []Request{
		{ID: "a1", Action: "add", Path: "Util.Debug.Log"},
		{ID: "q1", Query: []string{"log"}},
		{ID: "s1", Action: "select", Index: &index},
		{ID: "q2", Query: []string{"log"}},
	})

	decodeStatus(t, decoder) // a1
	first := decodeQuery(t, decoder)
	if first.Matches[0].SelectCount != 0 {
		t.Fatalf("fresh entry selectCount: %d", first.Matches[0].SelectCount)
	}
	selected := decodeStatus(t, decoder)
	if !selected.OK {
		t.Fatalf("select rejected: %+v", selected)
	}
	second := decodeQuery(t, decoder)
	if second.Matches[0].SelectCount != 1 {
		t.Errorf("selectCount after feedback: %d, want 1", second.Matches[0].SelectCount)
	}
}

func TestServerCoherenceRejection(t *testing.T) {
	decoder := runSession(t, []Request{
		{ID: "a1", Action: "add", Path: "A.B", Data: "one"},
		{ID: "a2", Action: "add", Path: "A.B", Data: "two"},
	})

	if response := decodeStatus(t, decoder); !response.OK {
		t.Fatalf("first add rejected: %+v", response)
	}
	response := decodeStatus(t, decoder)
	if response.OK || response.Status != "rejected" {
		t.Errorf("conflicting add should be rejected, got %+v", response)
	}
}

func TestServerValidation(t *testing.T) {
	index := 0
	decoder := runSession(t, []Request{
		{ID: "e1", Query: []string{}},
		{ID: "e2", Action: "add"},
		{ID: "e3", Action: "select", Index: &index},
		{ID: "e4", Action: "bogus"},
	})

	for _, tc := range []struct {
		id   string
		code int
	}{
		{"e1", 400}, // empty query
		{"e2", 400}, // missing path
		{"e3", 409}, // select before any query
		{"e4", 400}, // unknown action
	} {
		var response ErrorResponse
		if err := decoder.Decode(&response); err != nil {
			t.Fatalf("decoding error response %s: %v", tc.id, err)
		}
		if response.ID != tc.id || response.Code != tc.code {
			t.Errorf("response %+v, want id %s code %d", response, tc.id, tc.code)
		}
	}
}

func TestServerQueryLimit(t *testing.T) {
	requests := []Request{
		{ID: "a0", Action: "add", Path: "Ns0.Log"},
		{ID: "a1", Action: "add", Path: "Ns1.Log"},
		{ID: "a2", Action: "add", Path: "Ns2.Log"},
		{ID: "q1", Query: []string{"log"}, Limit: 2},
	}
	decoder := runSession(t, requests)

	decodeStatus(t, decoder)
	decodeStatus(t, decoder)
	decodeStatus(t, decoder)
	response := decodeQuery(t, decoder)
	if response.Count != 2 {
		t.Errorf("limit ignored: got %d matches", response.Count)
	}
}
