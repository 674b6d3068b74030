package kgraph

import "testing"

func TestNormalizePayloadBareArray(t *testing.T) {
	out, err := NormalizePayload(`[{"head":"A","relation":"r","tail":"B"}]`)
	if err != nil {
		t.Fatalf("NormalizePayload: %v", err)
	}
	if string(out) != `[{"head":"A","relation":"r","tail":"B"}]` {
		t.Fatalf("got %s", out)
	}
}

func TestNormalizePayloadStripsCodeFence(t *testing.T) {
	raw := "Here you go:\n```json\n[{\"head\":\"A\",\"relation\":\"r\",\"tail\":\"B\"}]\n```"
	out, err := NormalizePayload(raw)
	if err != nil {
		t.Fatalf("NormalizePayload: %v", err)
	}
	if string(out) != `[{"head":"A","relation":"r","tail":"B"}]` {
		t.Fatalf("got %s", out)
	}
}

func TestNormalizePayloadRecoversWrapperKey(t *testing.T) {
	for _, key := range wrapperKeys {
		raw := `{"` + key + `": [{"head":"A","relation":"r","tail":"B"}]}`
		out, err := NormalizePayload(raw)
		if err != nil {
			t.Fatalf("NormalizePayload(%s): %v", key, err)
		}
		if string(out) != `[{"head":"A","relation":"r","tail":"B"}]` {
			t.Fatalf("got %s for wrapper key %s", out, key)
		}
	}
}

func TestNormalizePayloadSingleTripleObject(t *testing.T) {
	out, err := NormalizePayload(`{"head":"A","relation":"r","tail":"B"}`)
	if err != nil {
		t.Fatalf("NormalizePayload: %v", err)
	}
	if string(out) != `[{"head":"A","relation":"r","tail":"B"}]` {
		t.Fatalf("got %s", out)
	}
}

func TestNormalizePayloadRecoversSubstringFromProse(t *testing.T) {
	raw := `Sure, here is the result: [{"head":"A","relation":"r","tail":"B"}] hope that helps!`
	out, err := NormalizePayload(raw)
	if err != nil {
		t.Fatalf("NormalizePayload: %v", err)
	}
	if string(out) != `[{"head":"A","relation":"r","tail":"B"}]` {
		t.Fatalf("got %s", out)
	}
}

func TestNormalizePayloadFailsOnGarbage(t *testing.T) {
	_, err := NormalizePayload("not json at all, sorry")
	if !IsProviderParseError(err) {
		t.Fatalf("want IsProviderParseError, got %v", err)
	}
}

func TestNormalizePayloadIsIdempotent(t *testing.T) {
	raw := "```json\n[{\"head\":\"A\",\"relation\":\"r\",\"tail\":\"B\"}]\n```"
	first, err := NormalizePayload(raw)
	if err != nil {
		t.Fatalf("NormalizePayload: %v", err)
	}
	second, err := NormalizePayload(string(first))
	if err != nil {
		t.Fatalf("NormalizePayload (second pass): %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("not idempotent: %s != %s", first, second)
	}
}
