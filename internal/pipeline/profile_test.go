package pipeline

import (
	"bytes"
	"testing"

	"github.com/google/pprof/profile"
)

func TestWriteProfileProducesAParseableProfile(t *testing.T) {
	var buf bytes.Buffer
	err := WriteProfile(&buf, []PhaseTiming{
		{Name: "check", Nanos: 1000},
		{Name: "codegen", Nanos: 2000},
	})
	if err != nil {
		t.Fatalf("WriteProfile returned error: %v", err)
	}
	p, err := profile.Parse(&buf)
	if err != nil {
		t.Fatalf("profile.Parse failed to read back what WriteProfile wrote: %v", err)
	}
	if len(p.Sample) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(p.Sample))
	}
	if p.Sample[0].Value[0] != 1000 || p.Sample[1].Value[0] != 2000 {
		t.Fatalf("sample values not preserved: %+v", p.Sample)
	}
}
