package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mailmesh/core"
)

func generate(ctx context.Context, m Model, req Request) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)
	return Collect(ctx, respCh, errCh)
}

func TestMockModel_Echo(t *testing.T) {
	m := NewMockModel("mock", nil)

	resp, err := generate(context.Background(), m, Request{
		Contents: []core.Content{core.NewTextContent(core.RoleUser, "hello")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: hello", resp.Content.Text())
	assert.Equal(t, "mock", m.Info().Provider)
}

func TestMockModel_HandlerError(t *testing.T) {
	boom := errors.New("boom")
	m := NewMockModel("mock", func(context.Context, Request) (Response, error) { return Response{}, boom })

	_, err := generate(context.Background(), m, Request{})
	assert.ErrorIs(t, err, boom)
}

func TestCollect_SkipsPartials(t *testing.T) {
	respCh := make(chan Response, 3)
	errCh := make(chan error)
	respCh <- Response{Partial: true, Content: core.NewTextContent(core.RoleAssistant, "he")}
	respCh <- TextResponse("hello")
	close(respCh)
	close(errCh)

	resp, err := Collect(context.Background(), respCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content.Text())
}

func TestCollect_NoFinal(t *testing.T) {
	respCh := make(chan Response)
	errCh := make(chan error)
	close(respCh)
	close(errCh)

	_, err := Collect(context.Background(), respCh, errCh)
	assert.ErrorIs(t, err, ErrNoResponse)
}

func TestCollect_Timeout(t *testing.T) {
	stuck := NewMockModel("stuck", func(ctx context.Context, _ Request) (Response, error) {
		<-ctx.Done()
		return Response{}, ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := generate(ctx, stuck, Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCallResponse(t *testing.T) {
	resp := CallResponse("web_search", `{"query":"x"}`)
	calls := resp.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "web_search", calls[0].Name)
	assert.NotEmpty(t, calls[0].ID)
}
