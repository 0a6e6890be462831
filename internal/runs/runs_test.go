package runs

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	runsmodel "github.com/hitesh22rana/docsync/internal/model/runs"
	"github.com/hitesh22rana/docsync/internal/pkg/httperr"
)

func TestCreateRun(t *testing.T) {
	t.Parallel()

	var gotRequest *http.Request
	var gotBody CreateRunRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequest = r
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"run-1"}`)
	}))
	defer server.Close()

	client := New(server.URL, nil, validator.New(), zap.NewNop())
	res, err := client.CreateRun(context.Background(), &CreateRunRequest{
		ConfigurationID: "cfg-1",
		Mode:            "extraction",
		Options:         map[string]any{"strict": true},
	})
	require.NoError(t, err)
	assert.Equal(t, "run-1", res.ID)

	require.NotNil(t, gotRequest)
	assert.Equal(t, http.MethodPost, gotRequest.Method)
	assert.Equal(t, "/runs", gotRequest.URL.Path)
	assert.Equal(t, "application/json", gotRequest.Header.Get("Content-Type"))
	assert.Equal(t, "cfg-1", gotBody.ConfigurationID)
	assert.Equal(t, runsmodel.RunMode("extraction"), gotBody.Mode)
	assert.Equal(t, map[string]any{"strict": true}, gotBody.Options)
}

func TestCreateRunInvalidRequest(t *testing.T) {
	t.Parallel()

	client := New("http://localhost:0", nil, validator.New(), zap.NewNop())

	tests := []struct {
		name string
		req  *CreateRunRequest
	}{
		{
			name: "missing configuration id",
			req:  &CreateRunRequest{Mode: "validation"},
		},
		{
			name: "unknown mode",
			req:  &CreateRunRequest{ConfigurationID: "cfg-1", Mode: "turbo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := client.CreateRun(context.Background(), tt.req)
			assert.ErrorContains(t, err, "invalid request")
		})
	}
}

func TestCreateRunAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"detail":"unknown configuration"}`)
	}))
	defer server.Close()

	client := New(server.URL, nil, validator.New(), zap.NewNop())

	_, err := client.CreateRun(context.Background(), &CreateRunRequest{ConfigurationID: "cfg-1", Mode: "validation"})

	var apiErr *httperr.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
}

func TestCreateRunMissingID(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer server.Close()

	client := New(server.URL, nil, validator.New(), zap.NewNop())

	_, err := client.CreateRun(context.Background(), &CreateRunRequest{ConfigurationID: "cfg-1", Mode: "validation"})
	assert.ErrorContains(t, err, "without an id")
}

func TestStreamEvents(t *testing.T) {
	t.Parallel()

	var gotRequest *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequest = r

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"event\":\"environment.provisioning\",\"sequence_num\":1,\"level\":\"info\",\"message\":\"starting\"}\n\n")
		_, _ = io.WriteString(w, "data: not json\n\n")
		_, _ = io.WriteString(w, "event: run.completed\nid: ev-9\ndata: {\"sequence_num\":2,\"status\":\"succeeded\"}\n\n")
	}))
	defer server.Close()

	client := New(server.URL, nil, validator.New(), zap.NewNop())
	stream, err := client.StreamEvents(context.Background(), "run-1", 7)
	require.NoError(t, err)
	defer stream.Close()

	first, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "environment.provisioning", first.Name)
	assert.Equal(t, uint64(1), first.SequenceNum)
	assert.Equal(t, "starting", first.Message)

	second, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "run.completed", second.Name)
	assert.Equal(t, "ev-9", second.ID)
	assert.Equal(t, "succeeded", second.Payload["status"])

	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)

	require.NotNil(t, gotRequest)
	assert.Equal(t, "/runs/run-1/events/stream", gotRequest.URL.Path)
	assert.Equal(t, "7", gotRequest.URL.Query().Get("afterSequence"))
	assert.Equal(t, "text/event-stream", gotRequest.Header.Get("Accept"))
}

func TestStreamEventsMissingRunID(t *testing.T) {
	t.Parallel()

	client := New("http://localhost:0", nil, validator.New(), zap.NewNop())

	_, err := client.StreamEvents(context.Background(), "", 0)
	assert.ErrorContains(t, err, "run id is required")
}

func TestStreamEventsAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, nil, validator.New(), zap.NewNop())

	_, err := client.StreamEvents(context.Background(), "run-404", 0)

	var apiErr *httperr.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
