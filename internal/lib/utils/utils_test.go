package utils

import (
	"bytes"
	"testing"
)

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSON(&buf, map[string]int{"count": 3}); err != nil {
		t.Fatalf("PrintJSON returned error: %v", err)
	}
	if got := buf.String(); got != "{\n\t\"count\": 3\n}\n" {
		t.Fatalf("PrintJSON wrote %q", got)
	}
}

func TestPrintJSONUnsupported(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSON(&buf, make(chan int)); err == nil {
		t.Fatal("expected an error for an unsupported value")
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing should be written on error, got %q", buf.String())
	}
}
