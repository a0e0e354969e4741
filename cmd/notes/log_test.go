package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelazar/fancy-forms/pkg/adapters/memory"
	"github.com/joelazar/fancy-forms/pkg/core"
)

type stubHistory []string

func (s stubHistory) History(ctx context.Context) ([]string, error) { return s, nil }

func TestPrintHistory(t *testing.T) {
	h := stubHistory{"docs(notes): delete b", "docs(notes): create b", "docs(notes): create a"}

	var all bytes.Buffer
	require.NoError(t, printHistory(context.Background(), &all, h, 0))
	assert.Equal(t, "docs(notes): delete b\ndocs(notes): create b\ndocs(notes): create a\n", all.String())

	var limited bytes.Buffer
	require.NoError(t, printHistory(context.Background(), &limited, h, 1))
	assert.Equal(t, "docs(notes): delete b\n", limited.String())
}

func TestPrintHistory_UnversionedStore(t *testing.T) {
	svc := core.NewService(memory.NewRepository())

	var out bytes.Buffer
	err := printHistory(context.Background(), &out, svc, 0)
	assert.ErrorIs(t, err, core.ErrNoHistory)
	assert.Contains(t, err.Error(), "notes init --git")
	assert.Empty(t, out.String())
}
