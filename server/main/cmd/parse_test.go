package cmd

import (
	"testing"
)

func TestParseFlags(t *testing.T) {
	var got *CommandFlags
	err := Parse([]string{
		"--config", "./sortid.toml", "--node", "0xCAFE", "--addr", " :7410 ",
		"--yield", "TRUE", "--logout", "stderr,./sortid.log",
	}, func(cmdFlags *CommandFlags) error {
		got = cmdFlags
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if fn, set := got.ConfFilePath(); !set || fn != "./sortid.toml" {
		t.Fatalf("unexpected config path: %q %v", fn, set)
	}
	if node, set := got.Node(); !set || node != 0xCAFE {
		t.Fatalf("unexpected node: %x %v", node, set)
	}
	if addr, set := got.ServiceAddr(); !set || addr != ":7410" {
		t.Fatalf("unexpected addr: %q %v", addr, set)
	}
	if b, set := got.SpinYield(); !set || !b {
		t.Fatalf("unexpected yield: %v %v", b, set)
	}
	if _, set := got.Development(); set {
		t.Fatalf("dev flag should be unset")
	}
	if _, set := got.MetricsAddr(); set {
		t.Fatalf("metrics flag should be unset")
	}
	if outs, set := got.LogOutputPaths(); !set || len(outs) != 2 {
		t.Fatalf("unexpected log outputs: %v %v", outs, set)
	}
}

func TestParseFlagsRejectsBadValues(t *testing.T) {
	noop := func(*CommandFlags) error { return nil }
	if err := Parse([]string{"--dev", "yes"}, noop); err == nil {
		t.Fatalf("expected error for non-boolean --dev")
	}
	if err := Parse([]string{"--node", "4294967296"}, noop); err == nil {
		t.Fatalf("expected error for node overflowing 32 bits")
	}
	if err := Parse([]string{"extra"}, noop); err == nil {
		t.Fatalf("expected error for positional args")
	}
}
