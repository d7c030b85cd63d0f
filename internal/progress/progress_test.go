// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestDisabledIsSilent(t *testing.T) {
	r := New(100, false)
	if _, ok := r.(nop); !ok {
		t.Fatalf("New(disabled) = %T, want nop", r)
	}
	r.Update(50, 100)
	r.Finish()
}

func TestBarReportsCounts(t *testing.T) {
	var buf bytes.Buffer
	r := NewWriter(200, &buf)
	for done := 20; done <= 200; done += 20 {
		r.Update(done, 200)
	}
	r.Finish()
	r.Finish()

	out := buf.String()
	if !strings.Contains(out, "200 / 200") {
		t.Errorf("output %q missing final counter", out)
	}
	if !strings.Contains(out, "100.00%") {
		t.Errorf("output %q missing final percentage", out)
	}
}

func TestFinishWithoutUpdate(t *testing.T) {
	var buf bytes.Buffer
	r := NewWriter(10, &buf)
	r.Finish()
}
