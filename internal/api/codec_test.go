package api

import "testing"

func TestJSONCodec_RoundTrip(t *testing.T) {
	c := jsonCodec{}
	if c.Name() != "json" {
		t.Fatalf("Name() = %q, want json", c.Name())
	}

	req := &ReportIDRequest{RunID: "abc-123"}
	data, err := c.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got ReportIDRequest
	if err := c.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.RunID != req.RunID {
		t.Errorf("RunID = %q, want %q", got.RunID, req.RunID)
	}
}
