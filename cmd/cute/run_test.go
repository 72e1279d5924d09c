package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/go-lynx/cute"
	"github.com/go-lynx/cute/beans"
	"github.com/go-lynx/cute/dispatch"
)

func TestPrintReport(t *testing.T) {
	color.NoColor = true
	m := cute.NewManager(cute.JoinScanners())

	var buf bytes.Buffer
	failures := []error{beans.NewError(beans.KindInstantiation, "compA", errors.New("boom"))}
	printReport(&buf, m, failures, dispatch.NewMessages(nil, ""))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "0 beans created, 1 failures")
	assert.Contains(t, out, "  - failed to instantiate bean compA: boom")
}
