package agent

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wingmanlabs/wingman/internal/rpc"
)

// fakeServer answers framed JSON-RPC requests with canned results keyed by
// method.
type fakeServer struct {
	in      *bufio.Reader
	out     io.Writer
	results map[string]string
}

func (s *fakeServer) serve() {
	for {
		contentLength := 0
		for {
			line, err := s.in.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				break
			}
			if strings.HasPrefix(strings.ToLower(line), "content-length:") {
				parts := strings.SplitN(line, ":", 2)
				contentLength, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
			}
		}
		if contentLength == 0 {
			return
		}
		body := make([]byte, contentLength)
		if _, err := io.ReadFull(s.in, body); err != nil {
			return
		}

		var req struct {
			ID     int64  `json:"id"`
			Method string `json:"method"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return
		}

		result, ok := s.results[req.Method]
		if !ok {
			result = "{}"
		}
		reply := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":%s}`, req.ID, result)
		fmt.Fprintf(s.out, "Content-Length: %d\r\n\r\n%s", len(reply), reply)
	}
}

func newFakeClient(t *testing.T, results map[string]string) (*Client, func()) {
	t.Helper()

	clientReader, serverWriter := io.Pipe()
	serverReader, clientWriter := io.Pipe()

	transport := rpc.NewTransport(clientReader, clientWriter, clientWriter)
	ctx, cancel := context.WithCancel(context.Background())
	transport.Start(ctx)

	server := &fakeServer{
		in:      bufio.NewReader(serverReader),
		out:     serverWriter,
		results: results,
	}
	go server.serve()

	client := newClientWithTransport(transport)
	client.registerDefaultHandlers()

	return client, func() {
		transport.Close()
		cancel()
	}
}

func TestCheckStatus(t *testing.T) {
	t.Parallel()

	client, teardown := newFakeClient(t, map[string]string{
		MethodCheckStatus: `{"status":"OK","user":"octocat"}`,
	})
	defer teardown()

	status, err := client.CheckStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.OK())
	assert.Equal(t, "octocat", status.User)
}

func TestSetEditorInfo(t *testing.T) {
	t.Parallel()

	client, teardown := newFakeClient(t, nil)
	defer teardown()

	err := client.SetEditorInfo(context.Background(), EditorInfo{
		EditorInfo:       NameVersion{Name: "host", Version: "1.0"},
		EditorPluginInfo: NameVersion{Name: "wingman", Version: "0.1"},
	})
	assert.NoError(t, err)
}

func TestGetCompletionsAsync(t *testing.T) {
	t.Parallel()

	client, teardown := newFakeClient(t, map[string]string{
		MethodGetCompletions: `{"completions":[{"text":"foo()"}]}`,
	})
	defer teardown()

	done := make(chan struct{})
	var gotCompletions []Completion
	var gotFailed bool

	client.GetCompletionsAsync(context.Background(), &CompletionParams{}, func(completions []Completion, failed bool) {
		gotCompletions = completions
		gotFailed = failed
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for completion callback")
	}

	assert.False(t, gotFailed)
	require.Len(t, gotCompletions, 1)
	assert.Equal(t, "foo()", gotCompletions[0].Text)
}

func TestGetCompletionsAsyncTransportFailure(t *testing.T) {
	t.Parallel()

	client, teardown := newFakeClient(t, nil)
	teardown() // close immediately so the call fails

	done := make(chan struct{})
	var gotFailed bool

	client.GetCompletionsAsync(context.Background(), &CompletionParams{}, func(completions []Completion, failed bool) {
		gotFailed = failed
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for completion callback")
	}

	assert.True(t, gotFailed)
}
