package config

import (
	"strings"
	"testing"
	"time"
)

func TestResolveConfigPath(t *testing.T) {
	tests := []struct {
		goos, home, programData string
		want                    string
	}{
		{"linux", "/home/u", "", "/etc/rtvi/client.yaml"},
		{"darwin", "/Users/u", "", "/Users/u/Library/Application Support/rtvi/client.yaml"},
		{"windows", "", `C:\ProgramData\`, "C:/ProgramData/rtvi/client.yaml"},
		{"windows", "", "", "C:/ProgramData/rtvi/client.yaml"},
	}
	for _, tt := range tests {
		got := strings.ReplaceAll(ResolveConfigPath(tt.goos, tt.home, tt.programData, "client.yaml"), "\\", "/")
		if got != tt.want {
			t.Fatalf("%s: got %q want %q", tt.goos, got, tt.want)
		}
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("RTVI_TEST_STR", "x")
	t.Setenv("RTVI_TEST_BOOL", "true")
	t.Setenv("RTVI_TEST_BAD_BOOL", "maybe")
	t.Setenv("RTVI_TEST_DUR", "1.5")
	t.Setenv("RTVI_TEST_DUR2", "2m")

	if v := GetEnv("RTVI_TEST_STR", "d"); v != "x" {
		t.Fatalf("GetEnv = %q", v)
	}
	if v := GetEnv("RTVI_TEST_MISSING", "d"); v != "d" {
		t.Fatalf("GetEnv default = %q", v)
	}
	if !GetEnvBool("RTVI_TEST_BOOL", false) || !GetEnvBool("RTVI_TEST_BAD_BOOL", true) {
		t.Fatalf("GetEnvBool")
	}
	if d := GetEnvDuration("RTVI_TEST_DUR", 0); d != 1500*time.Millisecond {
		t.Fatalf("seconds duration = %v", d)
	}
	if d := GetEnvDuration("RTVI_TEST_DUR2", 0); d != 2*time.Minute {
		t.Fatalf("go duration = %v", d)
	}
	if d := ParseDuration("soon", time.Second); d != time.Second {
		t.Fatalf("fallback duration = %v", d)
	}
	if a := ListenAddr("9090"); a != ":9090" {
		t.Fatalf("ListenAddr = %q", a)
	}
	if a := ListenAddr("127.0.0.1:9090"); a != "127.0.0.1:9090" {
		t.Fatalf("ListenAddr = %q", a)
	}
}
