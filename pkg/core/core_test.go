package core

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestScan_Smoke(t *testing.T) {
	items := Scan("uart.log", []byte("boot ok\nstack overflow in task_rx\n"))
	if len(items) == 0 {
		t.Fatal("expected at least one evidence item")
	}
	if items[0].Source != "uart.log" || items[0].Line != 2 {
		t.Fatalf("unexpected attribution: %+v", items[0])
	}
}

func TestScanFile_Smoke(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fuzz_crashlog_1.txt")
	if err := os.WriteFile(path, []byte("hard fault at 0x08000400\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	items, err := ScanFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Source != "fuzz_crashlog_1.txt" {
		t.Fatalf("unexpected items: %+v", items)
	}

	none, err := ScanFile(filepath.Join(dir, "missing.txt"))
	if err != nil || len(none) != 0 {
		t.Fatalf("missing file should scan clean, got %v %v", none, err)
	}
}

func TestEvidenceJSON_Roundtrip(t *testing.T) {
	items := Scan("qemu.log", []byte("malloc failed\n"))
	var buf bytes.Buffer
	if err := MarshalEvidence(&buf, items); err != nil {
		t.Fatal(err)
	}
	back, err := UnmarshalEvidence(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != len(items) || back[0].Keyword != "malloc failed" {
		t.Fatalf("roundtrip mismatch: %+v", back)
	}
}

func TestKeywords_NonEmpty(t *testing.T) {
	if len(Keywords()) == 0 {
		t.Fatal("taxonomy keywords should not be empty")
	}
}
