package cli

import (
	"errors"
	"strings"
	"testing"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("server.listen_address", "must be host:port")
	if !strings.Contains(err.Error(), "server.listen_address") {
		t.Errorf("error %q missing field", err.Error())
	}

	bare := NewConfigError("", "file unreadable")
	if strings.Contains(bare.Error(), "in :") {
		t.Errorf("error %q renders empty field awkwardly", bare.Error())
	}
}

func TestCommandError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewCommandError("run", cause)

	if !errors.Is(err, cause) {
		t.Error("CommandError does not unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "run") {
		t.Errorf("error %q missing command name", err.Error())
	}
}
