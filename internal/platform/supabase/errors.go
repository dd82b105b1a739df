package supabase

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/daylog/core/internal/platform"
	"github.com/go-resty/resty/v2"
)

// apiError covers the error bodies of all three services. PostgREST uses
// code/message/details, GoTrue uses code/error_code/msg, Storage uses
// statusCode/error/message.
type apiError struct {
	Code      json.RawMessage `json:"code"`
	ErrorCode string          `json:"error_code"`
	Message   string          `json:"message"`
	Msg       string          `json:"msg"`
	ErrorText string          `json:"error"`
	ErrorDesc string          `json:"error_description"`
	Details   json.RawMessage `json:"details"`
}

func decodeError(resp *resty.Response) *platform.Error {
	out := &platform.Error{Status: resp.StatusCode()}

	var body apiError
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		out.Message = strings.TrimSpace(resp.String())
		if out.Message == "" {
			out.Message = resp.Status()
		}
		return out
	}

	out.Code = rawText(body.Code)
	if out.Code == "" {
		out.Code = body.ErrorCode
	}
	out.Details = rawText(body.Details)
	for _, msg := range []string{body.Message, body.Msg, body.ErrorDesc, body.ErrorText} {
		if msg != "" {
			out.Message = msg
			break
		}
	}
	if out.Message == "" {
		out.Message = resp.Status()
	}
	return out
}

// rawText renders a JSON scalar as plain text: strings unquoted, numbers
// verbatim, null as empty.
func rawText(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	if strings.HasPrefix(s, `"`) {
		if unq, err := strconv.Unquote(s); err == nil {
			return unq
		}
	}
	return s
}

func transportError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
