package ipc

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRequest(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Request
		wantErr string
	}{
		{"send", `{"action":"send","content":"hello"}`, SendRequest{Content: "hello"}, ""},
		{"send keeps whitespace", `{"action":"send","content":"  hi \n"}`, SendRequest{Content: "  hi \n"}, ""},
		{"new", `{"action":"new"}`, NewRequest{}, ""},
		{"new ignores content", `{"action":"new","content":"x"}`, NewRequest{}, ""},
		{"status", `{"action":"status"}`, StatusRequest{}, ""},
		{"ping", `{"action":"ping"}`, PingRequest{}, ""},
		{"unknown action", `{"action":"dance"}`, nil, `Unknown action: "dance"`},
		{"missing action", `{}`, nil, `Unknown action: ""`},
		{"send without content", `{"action":"send"}`, nil, "missing content"},
		{"send blank content", `{"action":"send","content":"   "}`, nil, "missing content"},
		{"invalid json", `{"action":`, nil, "Invalid JSON"},
		{"not json", `hello`, nil, "Invalid JSON"},
		{"empty", ``, nil, "Empty request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadRequest(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				var protoErr *ProtocolError
				require.ErrorAs(t, err, &protoErr)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteRequest(t *testing.T) {
	tests := []struct {
		req  Request
		want string
	}{
		{SendRequest{Content: "hi"}, `{"action":"send","content":"hi"}`},
		{NewRequest{}, `{"action":"new"}`},
		{StatusRequest{}, `{"action":"status"}`},
		{PingRequest{}, `{"action":"ping"}`},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		require.NoError(t, WriteRequest(&buf, tt.req))
		assert.JSONEq(t, tt.want, buf.String())

		back, err := ReadRequest(&buf)
		require.NoError(t, err)
		assert.Equal(t, tt.req, back)
	}
}
