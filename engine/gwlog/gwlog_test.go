package gwlog

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestGWLog(t *testing.T) {
	SetSource("gwlog_test")
	SetLevel(DebugLevel)

	if lv := ParseLevel("debug"); lv != DebugLevel {
		t.Fail()
	}
	if lv := ParseLevel("info"); lv != InfoLevel {
		t.Fail()
	}
	if lv := ParseLevel("warn"); lv != WarnLevel {
		t.Fail()
	}
	if lv := ParseLevel("error"); lv != ErrorLevel {
		t.Fail()
	}
	if lv := ParseLevel("panic"); lv != PanicLevel {
		t.Fail()
	}
	if lv := ParseLevel("fatal"); lv != FatalLevel {
		t.Fail()
	}

	Debugf("this is a debug %d", 1)
	SetLevel(InfoLevel)
	Debugf("SHOULD NOT SEE THIS!")
	Infof("this is an info %d", 2)
	Warnf("this is a warning %d", 3)
	TraceError("this is a trace error %d", 4)
	func() {
		defer func() {
			_ = recover()
		}()
		Panicf("this is a panic %d", 4)
	}()
}

func TestSetOutputAndLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetSource("worker7")
	SetLevel(WarnLevel)
	defer SetLevel(DebugLevel)

	Infof("hidden %d", 1)
	Warnf("visible %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered: %s", out)
	}
	if !strings.Contains(out, "visible 2") || !strings.Contains(out, "worker7") {
		t.Errorf("warn message missing: %s", out)
	}
	if GetLevel() != WarnLevel {
		t.Errorf("level should be warn")
	}
}
