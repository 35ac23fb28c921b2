package dberror

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "read tcp: i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestDBError_Classify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"deadline", fmt.Errorf("view_orders_by_day: %w", context.DeadlineExceeded), ErrorTypeTimeout},
		{"net timeout", timeoutErr{}, ErrorTypeTimeout},
		{"net op", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}, ErrorTypeConnectivity},
		{"refused text", errors.New("dial tcp 10.0.0.1:9000: connect: connection refused"), ErrorTypeConnectivity},
		{"exception timeout", &clickhouse.Exception{Code: 159, Message: "Timeout exceeded"}, ErrorTypeTimeout},
		{"exception auth", &clickhouse.Exception{Code: 516, Message: "default: Authentication failed"}, ErrorTypeAuth},
		{"exception unknown table", fmt.Errorf("lookup: %w", &clickhouse.Exception{Code: 60, Message: "Table x doesn't exist"}), ErrorTypeQuery},
		{"syntax text", errors.New("code: 62, message: Syntax error"), ErrorTypeQuery},
		{"other", errors.New("something odd"), ErrorTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestDBError_StatusCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusServiceUnavailable, StatusCode(errors.New("connection reset by peer")))
	assert.Equal(t, http.StatusGatewayTimeout, StatusCode(context.DeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(errors.New("boom")))
}

func TestDBError_UserMessage(t *testing.T) {
	t.Parallel()

	assert.Empty(t, UserMessage(nil))
	assert.Contains(t, UserMessage(errors.New("connection refused")), "temporarily unavailable")
	assert.Contains(t, UserMessage(errors.New("boom")), "unexpected")
	assert.Equal(t, "timeout", ErrorTypeTimeout.String())
}
