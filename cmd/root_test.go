package cmd

import (
	"strings"
	"testing"
)

func TestSetVersionInfo(t *testing.T) {
	SetVersionInfo("1.2.3", "abc1234", "2025-01-10")
	if version != "1.2.3" || commit != "abc1234" || date != "2025-01-10" {
		t.Errorf("version info = %s %s %s", version, commit, date)
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"serve", "digest", "prefetch", "sources", "subscribers", "version"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if strings.HasPrefix(c.Use, name) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}
