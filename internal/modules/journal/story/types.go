package story

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/daylog/core/internal/models"
	"github.com/daylog/core/internal/pkg/response"
)

const (
	defaultStyle    = "Cozy"
	markdownType    = "text/markdown; charset=utf-8"
	badRangeMessage = "Bad range: 'from' and 'to' must be YYYY-MM-DD"
)

var errBadRange = response.NewError(http.StatusBadRequest, badRangeMessage)

// CompileInput is a validated compile request.
type CompileInput struct {
	From    models.Date
	To      models.Date
	Style   string
	Persona *string
	Title   *string
}

// CompileResult identifies the stored story.
type CompileResult struct {
	ID     string
	Title  string
	MDPath string
}

// decodeCompileRequest parses the body. Keys match exactly as spelled.
// Malformed JSON counts as an empty object, so it fails on the date range
// like any other incomplete request.
func decodeCompileRequest(body []byte) (CompileInput, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return CompileInput{}, errBadRange
		}
		fields = nil
	}

	from, errFrom := stringField(fields, "from")
	to, errTo := stringField(fields, "to")
	if errFrom != nil || errTo != nil || from == nil || to == nil || !isISODate(*from) || !isISODate(*to) {
		return CompileInput{}, errBadRange
	}

	style, err := stringField(fields, "style")
	if err != nil {
		return CompileInput{}, err
	}
	persona, err := stringField(fields, "persona")
	if err != nil {
		return CompileInput{}, err
	}
	title, err := stringField(fields, "title")
	if err != nil {
		return CompileInput{}, err
	}

	in := CompileInput{
		From:    models.Date(*from),
		To:      models.Date(*to),
		Style:   defaultStyle,
		Persona: persona,
		Title:   title,
	}
	if style != nil {
		in.Style = *style
	}
	return in, nil
}

// stringField reads an optional string member. Absent and null are nil.
func stringField(fields map[string]json.RawMessage, key string) (*string, error) {
	raw, ok := fields[key]
	if !ok {
		return nil, nil
	}
	var v *string
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, response.NewError(http.StatusBadRequest, fmt.Sprintf("Invalid '%s': expected a string", key))
	}
	return v, nil
}
