package minidbwire

import "github.com/tuannm99/minidb/internal/sql/executor"

// ExecuteRequest is a single SQL command request. Token carries a JWT when
// the server requires authentication; a request with a token and no SQL
// only authenticates the connection.
type ExecuteRequest struct {
	ID    uint64 `json:"id"`
	SQL   string `json:"sql,omitempty"`
	Token string `json:"token,omitempty"`
}

// ExecuteResponse is the response for a request ID.
type ExecuteResponse struct {
	ID      uint64           `json:"id"`
	Session string           `json:"session,omitempty"`
	Result  *executor.Result `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
}
