package bootstrap

import "testing"

func TestParse_DefaultPolicy(t *testing.T) {
	out := "some banner text\nMOSH CONNECT 60001 ABCDEFGHIJKLMNOPQRSTUV\nmore text\n"
	r, err := Parse(out, "example.com", "", PolicyDefault)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if r.Host != "example.com" || r.UDPPort != 60001 || r.Key != "ABCDEFGHIJKLMNOPQRSTUV" {
		t.Fatalf("got %+v", r)
	}
}

func TestParse_RemotePolicy(t *testing.T) {
	out := "MOSH SSH_CONNECTION 198.51.100.22 60123 203.0.113.10 22\n" +
		"MOSH CONNECT 60001 ABCDEFGHIJKLMNOPQRSTUV\n"
	r, err := Parse(out, "example.com", "", PolicyRemote)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if r.Host != "203.0.113.10" {
		t.Fatalf("host = %q, want 203.0.113.10", r.Host)
	}
}

func TestParse_LocalPolicyFallsBackToDefault(t *testing.T) {
	out := "MOSH CONNECT 60001 ABCDEFGHIJKLMNOPQRSTUV\n"
	r, err := Parse(out, "example.com", "", PolicyLocal)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if r.Host != "example.com" {
		t.Fatalf("host = %q, want fallback to example.com", r.Host)
	}

	r2, err := Parse(out, "example.com", "10.0.0.5", PolicyLocal)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if r2.Host != "10.0.0.5" {
		t.Fatalf("host = %q, want 10.0.0.5", r2.Host)
	}
}

func TestParse_NoConnectLineFails(t *testing.T) {
	_, err := Parse("nothing relevant here\n", "example.com", "", PolicyDefault)
	if err == nil {
		t.Fatalf("expected error for missing MOSH CONNECT line")
	}
}

func TestParse_BadPortFails(t *testing.T) {
	out := "MOSH CONNECT notaport ABCDEFGHIJKLMNOPQRSTUV\n"
	_, err := Parse(out, "example.com", "", PolicyDefault)
	if err == nil {
		t.Fatalf("expected error for unparseable port")
	}
}

func TestParse_BadKeyLengthFails(t *testing.T) {
	out := "MOSH CONNECT 60001 QQ\n"
	_, err := Parse(out, "example.com", "", PolicyDefault)
	if err == nil {
		t.Fatalf("expected error for key not decoding to 16 bytes")
	}
}

func TestDecodeKey_RestoresPadding(t *testing.T) {
	key, err := DecodeKey("ABCDEFGHIJKLMNOPQRSTUV")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(key) != KeySize {
		t.Fatalf("decoded length = %d, want %d", len(key), KeySize)
	}
}
